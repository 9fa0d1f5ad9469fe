package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"spacewar/protocol"
)

const (
	TickRate      = 60 // physics ticks per second
	BroadcastRate = 30 // spectator frames per second
)

// Config holds the server settings
type Config struct {
	Port         int
	TickRate     int
	SpectateAddr string // empty disables the spectator feed
	EventsDB     string // empty disables the session journal
	ShowQR       bool
	Gravity      bool
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Port:     protocol.DefaultPort,
		TickRate: TickRate,
		Gravity:  true,
	}
}

// LoadConfig reads .env (if present), then the SPACEWAR_* environment, then
// command line flags. Later sources win.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	cfg := DefaultConfig()
	portStr := envOr("SPACEWAR_PORT", strconv.Itoa(cfg.Port))
	tickRate, err := strconv.Atoi(envOr("SPACEWAR_TICK_RATE", strconv.Itoa(cfg.TickRate)))
	if err != nil {
		return Config{}, errors.New("SPACEWAR_TICK_RATE must be an integer")
	}

	fset := flag.NewFlagSet("spacewar-server", flag.ContinueOnError)
	fset.StringVar(&portStr, "port", portStr, "UDP port to listen on (0 selects the default)")
	fset.IntVar(&cfg.TickRate, "tick", tickRate, "simulation ticks per second")
	fset.StringVar(&cfg.SpectateAddr, "spectate", os.Getenv("SPACEWAR_SPECTATE_ADDR"), "HTTP address for the websocket spectator feed, e.g. :8080")
	fset.StringVar(&cfg.EventsDB, "events", os.Getenv("SPACEWAR_EVENTS_DB"), "SQLite file for the session journal")
	fset.BoolVar(&cfg.ShowQR, "qr", false, "print a QR code of the spectator URL")
	fset.BoolVar(&cfg.Gravity, "gravity", true, "start with planet gravity on")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Port, err = protocol.ParsePort(portStr)
	if err != nil {
		return Config{}, err
	}
	if cfg.TickRate < 1 {
		return Config{}, errors.New("tick rate must be positive")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
