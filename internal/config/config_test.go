package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TAFL_RELAY_MODE", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultVariant != "ardri" {
		t.Fatalf("default variant = %q", cfg.DefaultVariant)
	}
	if cfg.MaxSessions != 200 || cfg.EventBuffer != 64 {
		t.Fatalf("unexpected caps: %+v", cfg)
	}
	if cfg.LobbyTTL != time.Hour {
		t.Fatalf("lobby ttl = %v", cfg.LobbyTTL)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "legacy" || !cfg.Log.Console {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAFL_RELAY_MODE", " HTTP ")
	t.Setenv("TAFL_RELAY_BASE_URL", "http://relay.local/")
	t.Setenv("TAFL_DEFAULT_VARIANT", "Tablut")
	t.Setenv("TAFL_ALLOWED_ROOMS", "a, ,b")
	t.Setenv("TAFL_LOG_LEVEL", "debug")
	t.Setenv("TAFL_LOBBY_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RelayMode != RelayHTTP || cfg.RelayBaseURL != "http://relay.local" {
		t.Fatalf("relay = %q %q", cfg.RelayMode, cfg.RelayBaseURL)
	}
	if cfg.DefaultVariant != "tablut" {
		t.Fatalf("variant = %q", cfg.DefaultVariant)
	}
	if len(cfg.AllowedRooms) != 2 || !cfg.RoomAllowed("b") || cfg.RoomAllowed("c") {
		t.Fatalf("rooms = %v", cfg.AllowedRooms)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.LobbyTTL != 90*time.Second {
		t.Fatalf("lobby ttl = %v", cfg.LobbyTTL)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"http without url": {"TAFL_RELAY_MODE": "http"},
		"ws without url":   {"TAFL_RELAY_MODE": "ws"},
		"auto without url": {"TAFL_RELAY_MODE": "auto"},
		"unknown mode":     {"TAFL_RELAY_MODE": "smoke"},
		"zero sessions":    {"TAFL_RELAY_MODE": "off", "TAFL_MAX_SESSIONS": "0"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("TAFL_RELAY_MODE", "off")
	t.Setenv("TAFL_MAX_SESSIONS", "lots")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestDryRunWithoutURL(t *testing.T) {
	t.Setenv("TAFL_RELAY_MODE", "ws")
	t.Setenv("TAFL_RELAY_DRY_RUN", "true")
	if _, err := Load(); err != nil {
		t.Fatalf("dry run should not need a url: %v", err)
	}
}
