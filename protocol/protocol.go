// Package protocol defines the fixed-size datagrams exchanged between the
// Spacewar server and its clients.
//
// Every message has an exact byte length. Numbers are little-endian and
// floats are IEEE-754 float32; there is no framing beyond the datagram.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxPlayers   = 2     // player slots on a server
	JoinSentinel = 255   // PlayerN value of a request to join
	DefaultPort  = 48161 // used when the port is entered as 0
	MinPort      = 10000 // ports must be above this
	ResponseSize = 16    // bytes reserved for the join response token
)

// Join response tokens
const (
	ServerID   = "SPACEWAR 1.0"
	ServerFull = "SERVER FULL"
)

// Wire sizes in bytes
const (
	InputSize        = 2
	JoinResponseSize = ResponseSize + 1
	ShipStateSize    = 7*4 + 2 + 1 + 1
	TorpedoStateSize = 4*4 + 1
	PlayerStateSize  = ShipStateSize + TorpedoStateSize
	SnapshotSize     = MaxPlayers*PlayerStateSize + 2
)

var (
	// ErrMalformedMessage means a datagram had the wrong size or content.
	// The datagram must be dropped, never retried.
	ErrMalformedMessage = errors.New("malformed message")
	ErrInvalidPort      = errors.New("invalid port number")
)

// Buttons is the player's key state, bit 0=Left, 1=Forward, 2=Right, 3=Fire
type Buttons uint8

const (
	ButtonLeft Buttons = 1 << iota
	ButtonForward
	ButtonRight
	ButtonFire
)

func (b Buttons) Left() bool    { return b&ButtonLeft != 0 }
func (b Buttons) Forward() bool { return b&ButtonForward != 0 }
func (b Buttons) Right() bool   { return b&ButtonRight != 0 }
func (b Buttons) Fire() bool    { return b&ButtonFire != 0 }

// GameState carries round signals. Bits 1-7 are reserved.
type GameState uint8

const GameRoundStart GameState = 0x01

// RoundStart reports whether a new round has just begun
func (g GameState) RoundStart() bool { return g&GameRoundStart != 0 }

// Sound identifies one of the eight sound effects by its bit index in the
// snapshot's sound byte.
type Sound uint8

const (
	SoundCheer Sound = iota
	SoundCollide
	SoundExplode
	SoundEngine1
	SoundEngine2
	SoundTorpedoCrash
	SoundTorpedoFire
	SoundTorpedoHit

	NumSounds
)

var soundNames = [NumSounds]string{
	"cheer", "collide", "explode", "engine1", "engine2",
	"torpedoCrash", "torpedoFire", "torpedoHit",
}

func (s Sound) String() string {
	if s >= NumSounds {
		return fmt.Sprintf("sound(%d)", uint8(s))
	}
	return soundNames[s]
}

// EdgeTriggered reports whether the effect plays once per change of its bit.
// The engine sounds are level-triggered: on while the bit is 1.
func (s Sound) EdgeTriggered() bool {
	return s != SoundEngine1 && s != SoundEngine2
}

// EngineSound returns the engine sound of the given player slot
func EngineSound(player int) Sound {
	if player == 0 {
		return SoundEngine1
	}
	return SoundEngine2
}

// SoundBits is the sound byte of a snapshot
type SoundBits uint8

func (b SoundBits) Has(s Sound) bool { return b&(1<<s) != 0 }

// Set forces the bit of s to on
func (b *SoundBits) Set(s Sound, on bool) {
	if on {
		*b |= 1 << s
	} else {
		*b &^= 1 << s
	}
}

// Toggle flips the bit of s, which plays an edge-triggered effect once
func (b *SoundBits) Toggle(s Sound) { *b ^= 1 << s }

// ShipFlags packs ship status booleans
type ShipFlags uint8

const (
	ShipActive ShipFlags = 1 << iota
	ShipEngineOn
	ShipShieldOn
	ShipVisible
	ShipExploding
)

// TorpedoFlags packs torpedo status booleans
type TorpedoFlags uint8

const (
	TorpedoActive TorpedoFlags = 1 << iota
	TorpedoVisible
)

// ClientInput is sent by the client every communication interval.
// PlayerN == JoinSentinel turns it into a request to join.
type ClientInput struct {
	Buttons Buttons
	PlayerN uint8
}

// JoinRequest returns the datagram a client sends to ask for a slot
func JoinRequest() ClientInput {
	return ClientInput{PlayerN: JoinSentinel}
}

// IsJoinRequest reports whether the input asks for a slot
func (in ClientInput) IsJoinRequest() bool { return in.PlayerN == JoinSentinel }

// JoinResponse answers a join request
type JoinResponse struct {
	Response string // ServerID or ServerFull
	Number   uint8  // assigned player index, valid only with ServerID
}

// Accepted reports whether the response grants a valid slot
func (r JoinResponse) Accepted() bool {
	return r.Response == ServerID && r.Number < MaxPlayers
}

// ShipState is everything a client needs to mirror one ship
type ShipState struct {
	X, Y     float32
	Radians  float32
	Health   float32
	VX, VY   float32
	Rotation float32 // rotation rate, radians/second
	Score    int16
	PlayerN  uint8
	Flags    ShipFlags
}

func (s ShipState) Active() bool    { return s.Flags&ShipActive != 0 }
func (s ShipState) EngineOn() bool  { return s.Flags&ShipEngineOn != 0 }
func (s ShipState) ShieldOn() bool  { return s.Flags&ShipShieldOn != 0 }
func (s ShipState) Visible() bool   { return s.Flags&ShipVisible != 0 }
func (s ShipState) Exploding() bool { return s.Flags&ShipExploding != 0 }

// TorpedoState is everything a client needs to mirror one torpedo
type TorpedoState struct {
	X, Y   float32
	VX, VY float32
	Flags  TorpedoFlags
}

func (t TorpedoState) Active() bool  { return t.Flags&TorpedoActive != 0 }
func (t TorpedoState) Visible() bool { return t.Flags&TorpedoVisible != 0 }

// PlayerState pairs the ship and torpedo of one slot
type PlayerState struct {
	Ship    ShipState
	Torpedo TorpedoState
}

// Snapshot is the complete world state sent from server to clients
type Snapshot struct {
	Players   [MaxPlayers]PlayerState
	GameState GameState
	Sounds    SoundBits
}

// ParsePort validates a user-entered port. "0" selects DefaultPort;
// anything else must satisfy MinPort < port < 65536.
func ParsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	if p == 0 {
		return DefaultPort, nil
	}
	if p <= MinPort || p >= 65536 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, p)
	}
	return p, nil
}
