package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	l := New()
	if err := l.Init("Info"); err != nil {
		t.Fatalf("Init(Info) returned error: %v", err)
	}
	if !l.Log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info level to be enabled")
	}
	if l.Log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be disabled")
	}
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	if err := l.Init("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if l.Log == nil {
		t.Fatal("logger must stay usable after a failed Init")
	}
}
