package speech

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LHacuevas/strideSync/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeScript creates an executable shell script standing in for a TTS program
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "tts")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestCommandAnnounce(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spoken.txt")
	script := writeScript(t, `echo "$@" > "`+out+`"`)

	cmd, err := NewCommand(script, []string{"-s", "150"}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, cmd.Announce("Cadence 172"))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "-s 150 Cadence 172", strings.TrimSpace(string(got)))
}

func TestCommandAnnounceFailure(t *testing.T) {
	script := writeScript(t, `echo "no audio device" >&2; exit 3`)

	cmd, err := NewCommand(script, nil, discardLogger())
	require.NoError(t, err)

	err = cmd.Announce("Up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio device")
}

func TestNewCommandNotFound(t *testing.T) {
	_, err := NewCommand("stridesync-no-such-tts", nil, discardLogger())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a, err := New(config.SpeechConfig{}, logger)
	assert.NoError(t, err)
	assert.IsType(t, Log{}, a)

	a, err = New(config.SpeechConfig{Command: "stridesync-no-such-tts"}, logger)
	assert.Error(t, err)
	assert.IsType(t, Log{}, a)
	assert.Contains(t, buf.String(), "speech unavailable")

	script := writeScript(t, "exit 0")
	a, err = New(config.SpeechConfig{Command: script}, logger)
	assert.NoError(t, err)
	assert.IsType(t, &Command{}, a)
}

func TestLogAnnounce(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, l.Announce("Hold"))
	assert.Contains(t, buf.String(), `text=Hold`)
}

type stubAnnouncer struct {
	said []string
	err  error
}

func (s *stubAnnouncer) Announce(text string) error {
	s.said = append(s.said, text)
	return s.err
}

func TestMultiAnnounce(t *testing.T) {
	boom := errors.New("boom")
	a := &stubAnnouncer{err: boom}
	b := &stubAnnouncer{}

	err := Multi{a, b}.Announce("Down")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"Down"}, a.said)
	assert.Equal(t, []string{"Down"}, b.said)

	assert.NoError(t, Multi{b}.Announce("Up"))
}
