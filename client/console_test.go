package main

import (
	"fmt"
	"testing"
)

func TestLineConsoleReadLine(t *testing.T) {
	c := NewLineConsole()
	if _, ok := c.ReadLine(); ok {
		t.Fatal("no line typed yet")
	}
	for _, r := range "locall" {
		c.Type(r)
	}
	c.Backspace()
	c.Type('h')
	if c.Editing() != "localh" {
		t.Fatalf("editing %q", c.Editing())
	}
	if _, ok := c.ReadLine(); ok {
		t.Fatal("line is not complete before Enter")
	}
	c.Enter()
	c.Enter()

	line, ok := c.ReadLine()
	if !ok || line != "localh" {
		t.Errorf("got %q %v", line, ok)
	}
	if line, ok := c.ReadLine(); !ok || line != "" {
		t.Errorf("empty line should be queued too, got %q %v", line, ok)
	}
	if c.Editing() != "" {
		t.Error("prompt should clear after Enter")
	}
}

func TestLineConsoleScrollback(t *testing.T) {
	c := NewLineConsole()
	for i := 0; i < scrollback+5; i++ {
		c.Print(fmt.Sprintf("line %d", i))
	}
	lines := c.Lines()
	if len(lines) != scrollback || lines[0] != "line 5" {
		t.Errorf("unexpected scrollback %v", lines)
	}
}
