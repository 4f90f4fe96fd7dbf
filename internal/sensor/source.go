package sensor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/config"
)

// ErrUnknownSource is returned for a sensor source name New does not know
var ErrUnknownSource = errors.New("unknown sensor source")

// New builds the motion source selected by cfg
func New(cfg config.SensorConfig, logger *slog.Logger) (cadence.MotionSource, error) {
	logger = logger.With("source", cfg.Source)
	switch cfg.Source {
	case config.SourceSimulated:
		return NewSimulated(cfg.SimulatedSPM, logger), nil
	case config.SourceReplay:
		return NewReplay(cfg.ReplayFile, logger), nil
	case config.SourceMQTT:
		return NewMQTT(cfg.MQTTBroker, cfg.MQTTTopic, cfg.MQTTClientID, logger), nil
	case config.SourceWebSocket:
		return NewWebSocket(cfg.WebSocketAddr, logger), nil
	case config.SourceSerial:
		return NewSerial(cfg.SerialPort, cfg.SerialBaud, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}
