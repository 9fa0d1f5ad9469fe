package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"spacewar/protocol"
)

// Terminals report key presses and auto-repeat but never releases, so a
// button counts as held for keyHold after its last press or repeat.
const keyHold = 150 * time.Millisecond

// Input is the controls collaborator, sampled once per send interval
type Input interface {
	Buttons() protocol.Buttons
}

var buttonOrder = [...]protocol.Buttons{
	protocol.ButtonLeft, protocol.ButtonForward, protocol.ButtonRight, protocol.ButtonFire,
}

// KeyInput maps arrow keys, WASD and space to buttons
type KeyInput struct {
	pressed [len(buttonOrder)]time.Time
	now     func() time.Time
}

func NewKeyInput() *KeyInput {
	return &KeyInput{now: time.Now}
}

// HandleKey records a press and reports whether the key is a control
func (k *KeyInput) HandleKey(ev *tcell.EventKey) bool {
	b := keyButton(ev.Key(), ev.Rune())
	if b == 0 {
		return false
	}
	k.Press(b)
	return true
}

func keyButton(key tcell.Key, r rune) protocol.Buttons {
	switch key {
	case tcell.KeyLeft:
		return protocol.ButtonLeft
	case tcell.KeyUp:
		return protocol.ButtonForward
	case tcell.KeyRight:
		return protocol.ButtonRight
	case tcell.KeyRune:
		switch r {
		case 'a', 'A':
			return protocol.ButtonLeft
		case 'w', 'W':
			return protocol.ButtonForward
		case 'd', 'D':
			return protocol.ButtonRight
		case ' ':
			return protocol.ButtonFire
		}
	}
	return 0
}

// Press marks every button in b as held from now
func (k *KeyInput) Press(b protocol.Buttons) {
	now := k.now()
	for i, bit := range buttonOrder {
		if b&bit != 0 {
			k.pressed[i] = now
		}
	}
}

func (k *KeyInput) Buttons() protocol.Buttons {
	now := k.now()
	var b protocol.Buttons
	for i, bit := range buttonOrder {
		if !k.pressed[i].IsZero() && now.Sub(k.pressed[i]) < keyHold {
			b |= bit
		}
	}
	return b
}

// Release drops every held key
func (k *KeyInput) Release() {
	k.pressed = [len(buttonOrder)]time.Time{}
}
