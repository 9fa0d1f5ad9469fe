package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("config: %v", err)
	}

	// tcell owns the terminal, so the log goes to a file or nowhere
	log.SetOutput(io.Discard)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("init screen: %v", err)
	}
	defer screen.Fini()

	var audio Audio = mute{}
	if !cfg.Mute {
		sm := NewSoundManager()
		if err := sm.Initialize(); err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			defer sm.Cleanup()
			audio = sm
		}
	}

	client := NewClient(NewScreenRenderer(screen), audio, DialUDP)
	defer client.Close()
	if cfg.Server != "" {
		client.conn.ConnectTo(cfg.Server, cfg.Port)
	} else {
		client.conn.Connect()
	}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	client.Run(events, screen.Sync)
	log.Printf("client exiting")
}
