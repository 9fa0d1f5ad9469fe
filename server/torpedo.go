package main

import (
	"math"

	"spacewar/protocol"
)

const (
	TorpedoSpeed  = 200.0 // pixels/s
	TorpedoRadius = 4.0
	TorpedoMass   = 300.0
	FireDelay     = 4.0 // seconds between shots, also the torpedo lifetime
	TorpedoOffset = ShipRadius + TorpedoRadius + 1
)

// Torpedo is a ship's single reusable torpedo
type Torpedo struct {
	Body
	FireTimer float64
}

// NewTorpedo creates an inactive torpedo ready to fire
func NewTorpedo() *Torpedo {
	return &Torpedo{Body: Body{
		Kind:   KindTorpedo,
		Radius: TorpedoRadius,
		Mass:   TorpedoMass,
	}}
}

// Reset readies the torpedo for a new round
func (t *Torpedo) Reset() {
	t.Active = false
	t.Visible = false
	t.FireTimer = 0
}

// Fire launches the torpedo along the owner's heading. Returns false while
// the fire delay is still running or the owner is out of play.
func (t *Torpedo) Fire(owner *Ship) bool {
	if t.FireTimer > 0 || !owner.Active {
		return false
	}
	cos, sin := math.Cos(owner.Angle), math.Sin(owner.Angle)
	t.X = owner.X + cos*TorpedoOffset
	t.Y = owner.Y + sin*TorpedoOffset
	t.VX = cos * TorpedoSpeed
	t.VY = sin * TorpedoSpeed
	t.Angle = owner.Angle
	t.Active = true
	t.Visible = true
	t.FireTimer = FireDelay
	return true
}

// Update moves the torpedo one tick and expires it once the fire delay ends
func (t *Torpedo) Update(dt float64) {
	if t.FireTimer > 0 {
		t.FireTimer -= dt
	}
	if !t.Active {
		return
	}
	if t.FireTimer <= 0 {
		t.Crash()
		return
	}
	Integrate(&t.Body, dt)
}

// Crash removes the torpedo after it hit something or expired
func (t *Torpedo) Crash() {
	t.Active = false
	t.Visible = false
}

// ToState converts to wire state
func (t *Torpedo) ToState() protocol.TorpedoState {
	var flags protocol.TorpedoFlags
	if t.Active {
		flags |= protocol.TorpedoActive
	}
	if t.Visible {
		flags |= protocol.TorpedoVisible
	}
	return protocol.TorpedoState{
		X:     float32(t.X),
		Y:     float32(t.Y),
		VX:    float32(t.VX),
		VY:    float32(t.VY),
		Flags: flags,
	}
}
