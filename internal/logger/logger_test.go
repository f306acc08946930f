package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
		ok    bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := parseLevel(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewHonoursLevel(t *testing.T) {
	l := New("warn", false).(*loggerImpl)

	if l.base.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.base.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestNopAndWith(t *testing.T) {
	l := Nop().With(String("component", "test"))

	// must not panic on any method
	l.Info("hello", Int("n", 1), Uint64("rev", 2), Bool("ok", true), Error(errors.New("boom")))
	l.Debugf("value %d", 3)
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() on nop logger = %v", err)
	}
}
