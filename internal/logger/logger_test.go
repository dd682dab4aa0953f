package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsConfig(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		level    zapcore.Level
		encoding string
	}{
		{name: "defaults", level: zapcore.InfoLevel, encoding: "console"},
		{name: "json warn", opts: Options{JSON: true, Level: " warn "}, level: zapcore.WarnLevel, encoding: "json"},
		{name: "debug wins", opts: Options{Debug: true, Level: "error"}, level: zapcore.DebugLevel, encoding: "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.opts.config()
			if err != nil {
				t.Fatalf("config() failed: %v", err)
			}
			if got := cfg.Level.Level(); got != tt.level {
				t.Fatalf("level = %v, want %v", got, tt.level)
			}
			if cfg.Encoding != tt.encoding {
				t.Fatalf("encoding = %q, want %q", cfg.Encoding, tt.encoding)
			}
			if cfg.OutputPaths[0] != "stderr" {
				t.Fatalf("expected logs on stderr, got %v", cfg.OutputPaths)
			}
		})
	}
}

func TestOptionsAppField(t *testing.T) {
	cfg, err := Options{App: "prodanswer"}.config()
	if err != nil {
		t.Fatalf("config() failed: %v", err)
	}
	if cfg.InitialFields["app"] != "prodanswer" {
		t.Fatalf("expected app field, got %v", cfg.InitialFields)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
