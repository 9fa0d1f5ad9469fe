package main

import (
	"log"
	"strings"
	"time"

	"spacewar/protocol"
)

var consoleHelp = []string{
	"Console Commands:",
	"help - show this list",
	"fps - toggle the measured tick rate report",
	"gravity off - turns off planet gravity",
	"gravity on - turns on planet gravity",
	"port # - sets port number, CAUTION! Restarts server",
	"status - show players, round and port",
}

// command runs one operator console line on the game loop goroutine
func (g *Game) command(line string) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "help":
		for _, l := range consoleHelp {
			log.Print(l)
		}
	case "fps":
		g.fpsOn = !g.fpsOn
		g.fpsTicks = 0
		g.fpsStart = time.Now()
		if g.fpsOn {
			log.Print("fps On")
		} else {
			log.Print("fps Off")
		}
	case "gravity":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			log.Print("usage: gravity on|off")
			return
		}
		on := fields[1] == "on"
		g.planet.SetGravity(on)
		if on {
			log.Print("Gravity On")
		} else {
			log.Print("Gravity Off")
		}
	case "port":
		if len(fields) != 2 {
			log.Print("usage: port #")
			return
		}
		port, err := protocol.ParsePort(fields[1])
		if err != nil {
			log.Printf("Invalid port number: %v", err)
			return
		}
		if err := g.restartOn(port); err != nil {
			log.Printf("port %d: %v", port, err)
		}
	case "status":
		g.logStatus()
	default:
		log.Printf("unknown command %q, type help", fields[0])
	}
}

// restartOn rebinds the server to a new port and drops every player
func (g *Game) restartOn(port int) error {
	var tr Transport
	var err error
	if port == g.port {
		// Same port: the old socket has to go first
		if err := g.transport.Close(); err != nil {
			log.Printf("closing old socket: %v", err)
		}
		if tr, err = g.listen(port); err != nil {
			// The old socket is gone; the tick loop keeps trying to reopen it
			g.deaf = true
			g.rebindIn = g.cfg.TickRate
			log.Printf("***** UDP port %d is closed and could not be reopened: %v. Retrying every second. *****", port, err)
			return err
		}
	} else {
		if tr, err = g.listen(port); err != nil {
			return err
		}
		if err := g.transport.Close(); err != nil {
			log.Printf("closing old socket: %v", err)
		}
	}
	g.adopt(tr, port)
	return nil
}

// retryListen reopens the port after a failed same-port restart. Called from
// the tick loop while the server is deaf, once per second.
func (g *Game) retryListen() {
	g.rebindIn--
	if g.rebindIn > 0 {
		return
	}
	g.rebindIn = g.cfg.TickRate
	tr, err := g.listen(g.port)
	if err != nil {
		log.Printf("reopen UDP port %d: %v", g.port, err)
		return
	}
	g.deaf = false
	g.adopt(tr, g.port)
}

// adopt makes tr the served socket and starts over with no players
func (g *Game) adopt(tr Transport, port int) {
	g.transport = tr
	g.port = port
	g.netTime = 0
	g.slots.Clear()
	for i, s := range g.ships {
		s.Deactivate()
		g.torpedoes[i].Reset()
	}
	g.resetMatch()
	log.Printf("server restarted on port %d", port)
	g.track(EventPortChange, -1, tr.LocalAddr().String())
}

// logStatus prints the server state. Journal counts are queried on their own
// goroutine so the tick is not held up by SQLite; done is closed once they
// have been printed.
func (g *Game) logStatus() (done <-chan struct{}) {
	gravity := "on"
	if g.planet.Mass == 0 {
		gravity = "off"
	}
	log.Printf("port %d, round %d (%s), gravity %s, %d dropped datagrams",
		g.port, g.round.Number, g.round.Phase, gravity, g.dropped)
	if g.deaf {
		log.Printf("  UDP socket closed, reopening port %d", g.port)
	}
	now := time.Now()
	for i, s := range g.ships {
		slot := g.slots.Slot(i)
		if !slot.Connected {
			log.Printf("  player %d: empty", i)
			continue
		}
		log.Printf("  player %d: %s connected %s score %d health %.0f timeout %d/%d",
			i, slot.Addr, now.Sub(slot.JoinedAt).Round(time.Second), s.Score, s.Health, slot.Timeout, MaxErrors)
	}

	finished := make(chan struct{})
	j, ok := g.events.(*Journal)
	if !ok {
		close(finished)
		return finished
	}
	go func() {
		defer close(finished)
		counts, err := j.EventCounts()
		if err != nil {
			log.Printf("journal: %v", err)
			return
		}
		log.Printf("journal %s (last %s may be unflushed): %v", j.ServerID(), journalFlushEvery, counts)
	}()
	return finished
}
