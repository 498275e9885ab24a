package imagediff

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	SetLogger(nil)
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(nil, slog.LevelError) {
		t.Error("default logger enabled at error level, want fully silent")
	}
}

func TestSetLoggerRoutesOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("adapter selected", "name", "test")
	if !strings.Contains(buf.String(), "adapter selected") {
		t.Errorf("log output %q does not contain the message", buf.String())
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	SetLogger(nil)

	Logger().Error("should be discarded")
	if buf.Len() != 0 {
		t.Errorf("output after reset: %q, want none", buf.String())
	}
}

// loggingAccelerator records logger propagation.
type loggingAccelerator struct {
	stubAccelerator
	logger *slog.Logger
}

func (a *loggingAccelerator) SetLogger(l *slog.Logger) { a.logger = l }

func TestSetLoggerPropagatesToAccelerator(t *testing.T) {
	la := &loggingAccelerator{}
	if err := RegisterAccelerator(la); err != nil {
		t.Fatalf("RegisterAccelerator: %v", err)
	}
	defer func() {
		accelMu.Lock()
		accel = nil
		accelMu.Unlock()
		SetLogger(nil)
	}()

	if la.logger == nil {
		t.Fatal("RegisterAccelerator did not hand the accelerator a logger")
	}

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if la.logger != custom {
		t.Error("SetLogger did not propagate the new logger to the accelerator")
	}
}
