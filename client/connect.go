package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"spacewar/protocol"
)

const (
	NetTime        = 40 * time.Millisecond // input send interval
	MaxErrors      = 75                    // missed intervals before giving up
	ConnectTimeout = 10 * time.Second      // join request resend interval
)

var ErrHandshakeTimeout = errors.New("join request timed out")

// ConnState is the step of the join handshake
type ConnState int

const (
	StateIdle ConnState = iota
	StateAwaitAddress
	StateAwaitPort
	StateSendJoin
	StateAwaitJoin
	StateConnected
)

var connStateNames = [...]string{"idle", "await-address", "await-port", "send-join", "await-join", "connected"}

func (s ConnState) String() string {
	if int(s) < len(connStateNames) {
		return connStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Conn is a datagram socket bound to one server
type Conn interface {
	Send(data []byte) error
	// Poll returns the next received datagram without blocking
	Poll() ([]byte, bool)
	Close() error
}

// Dialer opens a Conn to host:port
type Dialer func(host string, port int) (Conn, error)

// SnapshotSink receives world state once connected
type SnapshotSink interface {
	Apply(protocol.Snapshot)
	Reset()
}

// Connection owns the handshake state and the socket. Step advances it once
// per frame; nothing in here blocks.
type Connection struct {
	state   ConnState
	console Console
	input   Input
	sink    SnapshotSink
	dial    Dialer
	conn    Conn

	host       string
	port       int
	playerN    int
	waitTime   time.Duration
	netTime    time.Duration
	commErrors int
}

func NewConnection(console Console, input Input, sink SnapshotSink, dial Dialer) *Connection {
	return &Connection{
		console: console,
		input:   input,
		sink:    sink,
		dial:    dial,
		playerN: -1,
	}
}

func (c *Connection) State() ConnState { return c.state }
func (c *Connection) PlayerN() int     { return c.playerN }
func (c *Connection) Connected() bool  { return c.state == StateConnected }

// Server returns the address being joined, or "" before one was entered
func (c *Connection) Server() string {
	if c.host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect starts the interactive handshake
func (c *Connection) Connect() {
	c.disconnect()
	c.console.Print("----- Spacewar Client -----")
	c.console.Print("Enter IP address or name of server:")
	c.state = StateAwaitAddress
}

// ConnectTo skips the prompts and goes straight to the join request
func (c *Connection) ConnectTo(host string, port int) {
	c.disconnect()
	c.host, c.port = host, port
	c.state = StateSendJoin
}

// Step advances the state machine by one frame of length dt
func (c *Connection) Step(dt time.Duration) {
	switch c.state {
	case StateIdle:
		if _, ok := c.console.ReadLine(); ok {
			c.Connect()
		}
	case StateAwaitAddress:
		line, ok := c.console.ReadLine()
		if !ok || strings.TrimSpace(line) == "" {
			return
		}
		c.host = strings.TrimSpace(line)
		c.console.Print(fmt.Sprintf("Enter port number, 0 selects default %d: ", protocol.DefaultPort))
		c.state = StateAwaitPort
	case StateAwaitPort:
		line, ok := c.console.ReadLine()
		if !ok {
			return
		}
		port, err := protocol.ParsePort(line)
		if err != nil {
			log.Printf("port entry: %v", err)
			c.console.Print("Invalid port number")
			return
		}
		c.port = port
		c.state = StateSendJoin
	case StateSendJoin:
		c.sendJoin()
	case StateAwaitJoin:
		c.awaitJoin(dt)
	case StateConnected:
		c.communicate(dt)
	}
}

func (c *Connection) sendJoin() {
	if c.conn == nil {
		conn, err := c.dial(c.host, c.port)
		if err != nil {
			c.console.Print(fmt.Sprintf("Error connecting to %s:%d: %v", c.host, c.port, err))
			c.state = StateIdle
			return
		}
		c.conn = conn
		c.console.Print("Attempting to connect with server.")
	}
	data, _ := protocol.JoinRequest().MarshalBinary()
	if err := c.conn.Send(data); err != nil {
		// stay here and try again next frame
		log.Printf("send join request: %v", err)
		c.console.Print(fmt.Sprintf("Error sending to server: %v", err))
		return
	}
	c.console.Print("'Request to join' sent to server.")
	c.waitTime = 0
	c.state = StateAwaitJoin
}

func (c *Connection) awaitJoin(dt time.Duration) {
	c.waitTime += dt
	for {
		data, ok := c.conn.Poll()
		if !ok {
			break
		}
		if len(data) != protocol.JoinResponseSize {
			continue // stray snapshot or garbage
		}
		var resp protocol.JoinResponse
		if err := resp.UnmarshalBinary(data); err != nil {
			log.Printf("join response: %v", err)
			continue
		}
		c.handleJoinResponse(resp)
		return
	}
	if c.waitTime > ConnectTimeout {
		log.Printf("%s: %v", c.Server(), ErrHandshakeTimeout)
		c.console.Print("'Request to join' timed out.")
		c.state = StateSendJoin
	}
}

func (c *Connection) handleJoinResponse(resp protocol.JoinResponse) {
	switch {
	case resp.Accepted():
		c.playerN = int(resp.Number)
		c.commErrors = 0
		c.netTime = 0
		c.sink.Reset()
		c.state = StateConnected
		c.console.Print(fmt.Sprintf("Connected as player number: %d", c.playerN))
		return
	case resp.Response == protocol.ServerID:
		c.console.Print("Invalid player number received from server.")
	case resp.Response == protocol.ServerFull:
		c.console.Print("Server Full")
	default:
		c.console.Print("Invalid ID from server. Server sent: " + resp.Response)
	}
	c.disconnect()
}

// communicate runs while connected: drain snapshots, then send input every
// NetTime. Each send counts as an error until a snapshot clears it.
func (c *Connection) communicate(dt time.Duration) {
	for {
		data, ok := c.conn.Poll()
		if !ok {
			break
		}
		if len(data) != protocol.SnapshotSize {
			continue
		}
		var snap protocol.Snapshot
		if err := snap.UnmarshalBinary(data); err != nil {
			continue
		}
		c.sink.Apply(snap)
		c.commErrors = 0
	}

	c.netTime += dt
	if c.netTime < NetTime {
		return
	}
	c.netTime -= NetTime

	c.commErrors++
	if c.commErrors > MaxErrors {
		c.console.Print("***** Disconnected from server. *****")
		c.disconnect()
		return
	}
	in := protocol.ClientInput{Buttons: c.input.Buttons(), PlayerN: uint8(c.playerN)}
	data, _ := in.MarshalBinary()
	if err := c.conn.Send(data); err != nil {
		log.Printf("send input: %v", err)
	}
}

func (c *Connection) disconnect() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("close socket: %v", err)
		}
		c.conn = nil
	}
	if c.state == StateConnected {
		c.sink.Reset()
	}
	c.playerN = -1
	c.state = StateIdle
}

// Close releases the socket
func (c *Connection) Close() { c.disconnect() }
