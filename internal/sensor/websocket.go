package sensor

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// MotionPath is the WebSocket endpoint; "/" serves a page that streams the
// phone's devicemotion events to it.
const MotionPath = "/motion"

//go:embed phone.html
var phonePage []byte

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the phone page may be served from another host
	},
}

// WebSocket serves an endpoint where each text message is one JSON sample
type WebSocket struct {
	*hub
	addr   string
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*websocket.Conn]struct{}
}

// NewWebSocket creates a WebSocket source listening on addr once subscribed
func NewWebSocket(addr string, logger *slog.Logger) *WebSocket {
	w := &WebSocket{
		addr:   addr,
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	w.hub = newHub(w.run)
	return w
}

// Subscribe implements cadence.MotionSource
func (w *WebSocket) Subscribe(handler func(cadence.MotionSample)) (func(), error) {
	return w.subscribe(handler)
}

// Addr returns the bound listen address while serving
func (w *WebSocket) Addr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listener == nil {
		return ""
	}
	return w.listener.Addr().String()
}

func (w *WebSocket) run() (func(), error) {
	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", w.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		rw.Write(phonePage)
	})
	mux.HandleFunc(MotionPath, w.handleMotion)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	w.mu.Lock()
	w.listener = ln
	w.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Warn("motion server stopped", "error", err)
		}
	}()
	w.logger.Info("serving motion endpoint", "addr", ln.Addr().String(), "path", MotionPath)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)

		// Shutdown does not touch hijacked connections.
		w.mu.Lock()
		for c := range w.conns {
			c.Close()
		}
		w.listener = nil
		w.mu.Unlock()
		wg.Wait()
	}, nil
}

func (w *WebSocket) handleMotion(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("websocket upgrade", "error", err)
		return
	}
	w.mu.Lock()
	w.conns[conn] = struct{}{}
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.conns, conn)
		w.mu.Unlock()
		conn.Close()
	}()

	w.logger.Info("motion client connected", "remote", r.RemoteAddr)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("motion client", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		s, err := ParseJSON(payload, time.Now())
		if err != nil {
			w.logger.Debug("dropping websocket payload", "error", err)
			continue
		}
		w.publish(s)
	}
}
