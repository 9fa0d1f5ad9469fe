package main

import (
	"log"

	"github.com/gdamore/tcell/v2"
)

const scrollback = 10

// Console is the line-oriented text collaborator
type Console interface {
	Print(text string)
	// ReadLine returns the next completed input line without blocking
	ReadLine() (string, bool)
}

// LineConsole is an in-screen console: typed keys build a line, Enter
// queues it for ReadLine, and printed text scrolls above the prompt.
// It is only touched from the frame loop.
type LineConsole struct {
	lines   []string
	pending []string
	edit    []rune
}

func NewLineConsole() *LineConsole {
	return &LineConsole{}
}

func (c *LineConsole) Print(text string) {
	log.Print(text)
	c.lines = append(c.lines, text)
	if len(c.lines) > scrollback {
		c.lines = c.lines[len(c.lines)-scrollback:]
	}
}

func (c *LineConsole) ReadLine() (string, bool) {
	if len(c.pending) == 0 {
		return "", false
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, true
}

// HandleKey edits the prompt line
func (c *LineConsole) HandleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		c.Enter()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		c.Backspace()
	case tcell.KeyRune:
		c.Type(ev.Rune())
	}
}

func (c *LineConsole) Type(r rune) { c.edit = append(c.edit, r) }

func (c *LineConsole) Backspace() {
	if n := len(c.edit); n > 0 {
		c.edit = c.edit[:n-1]
	}
}

// Enter queues the typed line for ReadLine and echoes it
func (c *LineConsole) Enter() {
	line := string(c.edit)
	c.edit = c.edit[:0]
	c.pending = append(c.pending, line)
	c.lines = append(c.lines, "> "+line)
	if len(c.lines) > scrollback {
		c.lines = c.lines[len(c.lines)-scrollback:]
	}
}

// Lines returns the scrollback, oldest first
func (c *LineConsole) Lines() []string { return c.lines }

// Editing returns the partially typed line
func (c *LineConsole) Editing() string { return string(c.edit) }
