package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/skip2/go-qrcode"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("config: %v", err)
	}

	game, err := NewGame(cfg, ListenUDP)
	if err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("Spacewar server listening on UDP port %d", game.Port())
	log.Printf("Local addresses: %s", strings.Join(localIPs(), ", "))

	var journal *Journal
	if cfg.EventsDB != "" {
		db, err := OpenDB(cfg.EventsDB)
		if err != nil {
			log.Fatalf("open journal %s: %v", cfg.EventsDB, err)
		}
		defer db.Close()
		journal = NewJournal(db, GenerateUUID())
		game.SetEventSink(journal)
		journal.Track(EventServerStart, -1, fmt.Sprintf(":%d", game.Port()))
		log.Printf("Journal %s, server id %s", cfg.EventsDB, journal.ServerID())
	}

	var hub *Hub
	var httpServer *http.Server
	if cfg.SpectateAddr != "" {
		hub = NewHub()
		go hub.Run()
		game.SetFrameSink(hub)
		httpServer = &http.Server{Addr: cfg.SpectateAddr, Handler: SetupRoutes(hub)}
		go func() {
			log.Printf("Spectator feed on ws://%s/spectate", cfg.SpectateAddr)
			if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("ListenAndServe: %v", err)
			}
		}()
		if cfg.ShowQR {
			printQR(spectateURL(cfg.SpectateAddr))
		}
	}

	// Operator console on stdin
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			game.Commands() <- scanner.Text()
		}
	}()

	done := make(chan struct{})
	go func() {
		game.Run()
		close(done)
	}()
	log.Print("Type help for console commands")

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")

	game.Stop()
	<-done
	game.Close()
	if httpServer != nil {
		httpServer.Close()
		hub.Stop()
	}
	if journal != nil {
		journal.Stop()
	}
}

// localIPs lists this host's IPv4 addresses so players know where to connect
func localIPs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	var ips []string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		ips = append(ips, ipnet.IP.String())
	}
	return ips
}

// spectateURL turns a listen address into a URL another machine on the LAN can open
func spectateURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "ws://" + addr + "/spectate"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
		if ips := localIPs(); len(ips) > 0 {
			host = ips[0]
		}
	}
	return "ws://" + net.JoinHostPort(host, port) + "/spectate"
}

func printQR(url string) {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		log.Printf("qr code: %v", err)
		return
	}
	fmt.Println(qr.ToSmallString(false))
	fmt.Println(url)
}
