package app

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/tasklane/tasklane/testing"
)

func TestLoadConfigPoolSize(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "config-test-secret")
	t.Setenv("PG_MAX_CONNS", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PGMaxConns != 4 {
		t.Fatalf("expected pool size 4, got %d", cfg.PGMaxConns)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without a token secret")
	}
}

func TestLogLevelSelection(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logLevel(&Config{LogLevel: in}); got != want {
			t.Fatalf("level %q: expected %v, got %v", in, want, got)
		}
	}
	if got := logLevel(nil); got != slog.LevelInfo {
		t.Fatalf("nil config: expected info, got %v", got)
	}
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "json", LogLevel: "warn"})
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}
}
