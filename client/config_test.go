package main

import (
	"errors"
	"testing"

	"spacewar/protocol"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SPACEWAR_SERVER", "")
	t.Setenv("SPACEWAR_PORT", "")
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server != "" || cfg.Port != protocol.DefaultPort || cfg.Mute {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	t.Setenv("SPACEWAR_SERVER", "10.0.0.5")
	cfg, err = LoadConfig([]string{"-port", "48200", "-mute"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server != "10.0.0.5" || cfg.Port != 48200 || !cfg.Mute {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := LoadConfig([]string{"-port", "70000"}); !errors.Is(err, protocol.ErrInvalidPort) {
		t.Errorf("expected ErrInvalidPort, got %v", err)
	}
}
