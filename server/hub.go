package main

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 100
)

// Hub fans spectator frames out to every connected websocket
type Hub struct {
	mu         sync.RWMutex
	spectators map[*Spectator]bool
	register   chan *Spectator
	unregister chan *Spectator
	frames     chan []byte
	stop       chan struct{}
	stopOnce   sync.Once
	count      atomic.Int32
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		spectators: make(map[*Spectator]bool),
		register:   make(chan *Spectator, 64),
		unregister: make(chan *Spectator, 64),
		frames:     make(chan []byte, 8),
		stop:       make(chan struct{}),
		ipConns:    make(map[string]int),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Publish encodes a frame and queues it for fan-out. Called from the game
// loop, so it never blocks and skips encoding when nobody is watching.
func (h *Hub) Publish(f SpectatorFrame) {
	if h.count.Load() == 0 {
		return
	}
	data, err := msgpack.Marshal(&f)
	if err != nil {
		log.Printf("spectator frame encode: %v", err)
		return
	}
	select {
	case h.frames <- data:
	default:
	}
}

// Run processes register/unregister events and frame fan-out
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.spectators[s] = true
			h.count.Add(1)
			h.mu.Unlock()

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.spectators[s]; ok {
				delete(h.spectators, s)
				close(s.send)
				h.count.Add(-1)
			}
			h.mu.Unlock()

		case data := <-h.frames:
			h.mu.RLock()
			for s := range h.spectators {
				select {
				case s.send <- data:
				default:
					// Spectator too slow, drop frame
				}
			}
			h.mu.RUnlock()

		case <-h.stop:
			h.mu.Lock()
			for s := range h.spectators {
				delete(h.spectators, s)
				close(s.send)
			}
			h.mu.Unlock()
			h.count.Store(0)
			return
		}
	}
}

// Stop ends Run and closes every spectator's send queue
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ClientCount returns the number of connected spectators
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
