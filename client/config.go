package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"spacewar/protocol"
)

// FrameRate is how often the client steps and redraws
const FrameRate = 60

// Config holds the client settings
type Config struct {
	Server  string // empty prompts for the address
	Port    int
	LogFile string // empty discards the log
	Mute    bool
}

// LoadConfig reads .env (if present), the SPACEWAR_* environment, then
// flags. Later sources win.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	var cfg Config
	portStr := envOr("SPACEWAR_PORT", "0")

	fset := flag.NewFlagSet("spacewar", flag.ContinueOnError)
	fset.StringVar(&cfg.Server, "server", os.Getenv("SPACEWAR_SERVER"), "server address; prompt for it when empty")
	fset.StringVar(&portStr, "port", portStr, "server UDP port (0 selects the default)")
	fset.StringVar(&cfg.LogFile, "log", os.Getenv("SPACEWAR_CLIENT_LOG"), "write the debug log to this file")
	fset.BoolVar(&cfg.Mute, "mute", false, "disable sound")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	port, err := protocol.ParsePort(portStr)
	if err != nil {
		return Config{}, err
	}
	cfg.Port = port
	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
