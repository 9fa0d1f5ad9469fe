package main

import (
	"errors"
	"fmt"
	"log"
	"net"
)

const (
	maxDatagramSize = 512
	inboxSize       = 256
)

// Datagram is one received UDP payload with its sender
type Datagram struct {
	Addr *net.UDPAddr
	Data []byte
}

// Transport is the game loop's view of the network. Poll never blocks.
type Transport interface {
	Poll() (Datagram, bool)
	SendTo(data []byte, addr *net.UDPAddr) error
	LocalAddr() net.Addr
	Close() error
}

// Listener opens a Transport on a port
type Listener func(port int) (Transport, error)

// UDPTransport reads datagrams on its own goroutine and hands them to the
// game loop through a buffered channel
type UDPTransport struct {
	conn  *net.UDPConn
	inbox chan Datagram
	done  chan struct{}
}

// ListenUDP binds a UDP socket on every interface at port
func ListenUDP(port int) (Transport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", port, err)
	}
	t := &UDPTransport{
		conn:  conn,
		inbox: make(chan Datagram, inboxSize),
		done:  make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *UDPTransport) readLoop() {
	defer close(t.done)
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("udp read error: %v", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case t.inbox <- Datagram{Addr: addr, Data: data}:
		default:
			// Game loop is behind, drop like the network would
		}
	}
}

// Poll returns the next queued datagram, if any
func (t *UDPTransport) Poll() (Datagram, bool) {
	select {
	case dg := <-t.inbox:
		return dg, true
	default:
		return Datagram{}, false
	}
}

// SendTo writes one datagram to addr
func (t *UDPTransport) SendTo(data []byte, addr *net.UDPAddr) error {
	_, err := t.conn.WriteToUDP(data, addr)
	return err
}

func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close shuts the socket and waits for the reader to exit
func (t *UDPTransport) Close() error {
	err := t.conn.Close()
	<-t.done
	return err
}
