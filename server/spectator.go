package main

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 512
	sendBufSize       = 64
	maxMessagesPerSec = 10
)

// Spectator is a read-only websocket watching the match
type Spectator struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewSpectator creates a new Spectator
func NewSpectator(hub *Hub, conn *websocket.Conn, remoteAddr string) *Spectator {
	return &Spectator{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump keeps the connection alive and notices when it closes. Anything
// the spectator sends is discarded.
func (s *Spectator) ReadPump() {
	defer func() {
		s.hub.TrackDisconnect(s.remoteAddr)
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("spectator ws error: %v", err)
			}
			break
		}

		now := time.Now()
		if now.After(s.msgResetAt) {
			s.msgCount = 0
			s.msgResetAt = now.Add(time.Second)
		}
		s.msgCount++
		if s.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for spectator %s, disconnecting", s.remoteAddr)
			break
		}
	}
}

// WritePump writes frames and pings to the connection
func (s *Spectator) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
