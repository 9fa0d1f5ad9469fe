package main

import (
	"errors"
	"log"
	"net"
	"strconv"
	"sync"
)

const maxDatagram = 512

// UDPConn is a connected UDP socket with a reader goroutine, so Poll never
// blocks the frame loop
type UDPConn struct {
	conn  *net.UDPConn
	inbox chan []byte
	done  sync.WaitGroup
}

// DialUDP resolves host and connects a UDP socket to it
func DialUDP(host string, port int) (Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	u := &UDPConn{conn: conn, inbox: make(chan []byte, 64)}
	u.done.Add(1)
	go u.readLoop()
	return u, nil
}

func (u *UDPConn) readLoop() {
	defer u.done.Done()
	buf := make([]byte, maxDatagram)
	for {
		n, err := u.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port unreachable surfaces here while the server is down
			log.Printf("udp read: %v", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case u.inbox <- data:
		default:
			// frame loop is behind, drop
		}
	}
}

func (u *UDPConn) Send(data []byte) error {
	_, err := u.conn.Write(data)
	return err
}

func (u *UDPConn) Poll() ([]byte, bool) {
	select {
	case data := <-u.inbox:
		return data, true
	default:
		return nil, false
	}
}

func (u *UDPConn) Close() error {
	err := u.conn.Close()
	u.done.Wait()
	return err
}
