package main

import (
	"errors"
	"net"
	"time"

	"spacewar/protocol"
)

const (
	NetTime   = 40 * time.Millisecond // input/timeout sweep period
	MaxErrors = 75                    // sweeps without input before eviction
)

var (
	ErrSlotFull    = errors.New("all player slots are occupied")
	ErrPeerTimeout = errors.New("peer stopped sending input")
)

// Slot binds a player number to a client address
type Slot struct {
	Addr       *net.UDPAddr
	Connected  bool
	Timeout    int // sweeps since the last input
	Buttons    protocol.Buttons
	SendErrors int // consecutive failed snapshot sends
	JoinedAt   time.Time
}

// SlotManager owns the fixed table of player slots. It is only touched by
// the game loop goroutine.
type SlotManager struct {
	slots [protocol.MaxPlayers]Slot
}

// NewSlotManager creates a table with every slot empty
func NewSlotManager() *SlotManager {
	return &SlotManager{}
}

// Join binds addr to the lowest empty slot. A full table rejects every
// join and is left untouched. Below capacity a client already holding a slot
// gets the same one back.
func (sm *SlotManager) Join(addr *net.UDPAddr) (int, error) {
	if sm.Connected() == len(sm.slots) {
		return -1, ErrSlotFull
	}
	if n := sm.Lookup(addr); n >= 0 {
		sm.slots[n].Timeout = 0
		return n, nil
	}
	for i := range sm.slots {
		s := &sm.slots[i]
		if s.Connected {
			continue
		}
		*s = Slot{
			Addr:      addr,
			Connected: true,
			JoinedAt:  time.Now(),
		}
		return i, nil
	}
	return -1, ErrSlotFull
}

// Lookup returns the slot bound to addr, or -1
func (sm *SlotManager) Lookup(addr *net.UDPAddr) int {
	if addr == nil {
		return -1
	}
	for i := range sm.slots {
		s := &sm.slots[i]
		if s.Connected && s.Addr != nil && s.Addr.IP.Equal(addr.IP) && s.Addr.Port == addr.Port {
			return i
		}
	}
	return -1
}

// Touch records that input arrived for slot n. Returns false if n is not a
// connected slot.
func (sm *SlotManager) Touch(n int) bool {
	if n < 0 || n >= len(sm.slots) || !sm.slots[n].Connected {
		return false
	}
	sm.slots[n].Timeout = 0
	return true
}

// SetButtons stores the last known input for slot n
func (sm *SlotManager) SetButtons(n int, b protocol.Buttons) {
	sm.slots[n].Buttons = b
}

// Buttons returns the last known input for slot n
func (sm *SlotManager) Buttons(n int) protocol.Buttons {
	return sm.slots[n].Buttons
}

// Sweep ages every connected slot by one sweep period and frees the ones
// that went silent for more than MaxErrors sweeps. Returns the freed slots.
func (sm *SlotManager) Sweep() []int {
	var evicted []int
	for i := range sm.slots {
		s := &sm.slots[i]
		if !s.Connected {
			continue
		}
		s.Timeout++
		if s.Timeout > MaxErrors {
			*s = Slot{}
			evicted = append(evicted, i)
		}
	}
	return evicted
}

// Connected returns the number of connected slots
func (sm *SlotManager) Connected() int {
	n := 0
	for i := range sm.slots {
		if sm.slots[i].Connected {
			n++
		}
	}
	return n
}

// Slot returns a copy of slot n
func (sm *SlotManager) Slot(n int) Slot {
	return sm.slots[n]
}

// SendFailed counts a failed send to slot n and returns the running count
func (sm *SlotManager) SendFailed(n int) int {
	sm.slots[n].SendErrors++
	return sm.slots[n].SendErrors
}

// SendOK clears the failed-send count for slot n
func (sm *SlotManager) SendOK(n int) {
	sm.slots[n].SendErrors = 0
}

// Clear frees every slot
func (sm *SlotManager) Clear() {
	for i := range sm.slots {
		sm.slots[i] = Slot{}
	}
}
