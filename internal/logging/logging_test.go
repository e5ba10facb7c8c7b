package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.name)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tuiorder.log")
	logger, err := New("info", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("session restored")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "session restored") {
		t.Fatalf("expected info entry, got %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("expected debug entry to be filtered, got %q", text)
	}
}

func TestNewEmptyPathIsNop(t *testing.T) {
	logger, err := New("debug", "")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("dropped")
}
