package main

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// maxFrameTime caps dt after a stall so timers do not jump
const maxFrameTime = 100 * time.Millisecond

// Client runs the frame loop: it routes terminal events, steps the
// connection, runs the countdown and redraws.
type Client struct {
	conn     *Connection
	mirror   *Reconciler
	renderer Renderer
	console  *LineConsole
	keys     *KeyInput
}

func NewClient(renderer Renderer, audio Audio, dial Dialer) *Client {
	c := &Client{
		renderer: renderer,
		console:  NewLineConsole(),
		keys:     NewKeyInput(),
		mirror:   NewReconciler(audio),
	}
	c.conn = NewConnection(c.console, c.keys, c.mirror, dial)
	return c
}

// Run blocks until the user quits
func (c *Client) Run(events <-chan tcell.Event, onResize func()) {
	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if c.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				if onResize != nil {
					onResize()
				}
			}
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > maxFrameTime {
				dt = maxFrameTime
			}
			c.step(dt)
		}
	}
}

func (c *Client) step(dt time.Duration) {
	c.conn.Step(dt)
	c.mirror.Update(dt)
	c.renderer.Draw(c.frame())
}

// handleKey reports whether the user asked to quit
func (c *Client) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyCtrlD:
		if c.conn.Connected() {
			c.console.Print("Disconnected.")
			c.conn.Close()
			c.keys.Release()
		}
		return false
	}
	if c.conn.Connected() {
		c.keys.HandleKey(ev)
		return false
	}
	c.console.HandleKey(ev)
	return false
}

func (c *Client) frame() Frame {
	f := Frame{
		Self:      c.conn.PlayerN(),
		Countdown: c.mirror.CountdownSeconds(),
		Console:   c.console.Lines(),
		Prompt:    c.console.Editing(),
		Typing:    !c.conn.Connected(),
	}
	if c.conn.Connected() {
		f.Players = c.mirror.Players()
		f.Status = c.conn.Server()
	} else if c.conn.State() == StateIdle {
		f.Status = "press Enter to connect, Esc to quit"
	} else {
		f.Status = c.conn.State().String()
	}
	return f
}

func (c *Client) Close() { c.conn.Close() }
