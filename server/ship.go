package main

import (
	"math"

	"spacewar/protocol"
)

const (
	ShipRadius        = 16.0
	ShipMass          = 300.0
	ShipThrust        = 100.0   // pixels/s² while the engine is on
	ShipRotationRate  = math.Pi // rad/s² per frame a turn is held
	ShieldDuration    = 0.4     // seconds of immunity after a hit
	ExplosionDuration = 1.6
)

// Weapon is whatever just hit a ship
type Weapon int

const (
	WeaponTorpedo Weapon = iota
	WeaponShip
	WeaponPlanet
)

var weaponDamage = [...]float64{
	WeaponTorpedo: 46,
	WeaponShip:    10,
	WeaponPlanet:  FullHealth,
}

// Direction is the turn currently commanded
type Direction int8

const (
	TurnNone Direction = iota
	TurnLeft
	TurnRight
)

// Ship is a player's vessel
type Ship struct {
	Body
	Health    float64
	Rotation  float64 // angular rate, rad/s
	Direction Direction
	Score     int
	EngineOn  bool

	ShieldOn    bool
	ShieldT     float64
	ExplosionOn bool
	ExplosionT  float64

	oldX, oldY, oldAngle float64
}

// NewShip creates an inactive, hidden ship
func NewShip() *Ship {
	return &Ship{
		Body: Body{
			Kind:   KindShip,
			Radius: ShipRadius,
			Mass:   ShipMass,
		},
		Health: FullHealth,
	}
}

// Place puts the ship at a start position with the given velocity and heading
func (s *Ship) Place(x, y, vx, vy, angle float64) {
	s.X, s.Y = x, y
	s.VX, s.VY = vx, vy
	s.Angle = angle
	s.oldX, s.oldY, s.oldAngle = x, y, angle
}

// Repair makes the ship ready for a new round
func (s *Ship) Repair() {
	s.Active = true
	s.Visible = true
	s.Health = FullHealth
	s.Rotation = 0
	s.Direction = TurnNone
	s.EngineOn = false
	s.ShieldOn = false
	s.ShieldT = 0
	s.ExplosionOn = false
	s.ExplosionT = 0
}

// Deactivate removes the ship from play, e.g. after its player left
func (s *Ship) Deactivate() {
	s.Active = false
	s.Visible = false
	s.EngineOn = false
	s.Direction = TurnNone
}

// ApplyButtons maps the player's held buttons onto engine and turn state
func (s *Ship) ApplyButtons(b protocol.Buttons) {
	s.EngineOn = b.Forward()
	s.Direction = TurnNone
	if b.Left() {
		s.Direction = TurnLeft
	}
	if b.Right() {
		s.Direction = TurnRight
	}
}

// Update advances timers, then thrust, rotation and position by one frame.
// Gravity must already have been applied to the velocity.
func (s *Ship) Update(dt float64) {
	if s.ShieldOn {
		s.ShieldT -= dt
		if s.ShieldT <= 0 {
			s.ShieldOn = false
		}
	}
	if s.ExplosionOn {
		s.ExplosionT -= dt
		if s.ExplosionT <= 0 {
			s.ExplosionOn = false
			s.Visible = false
		}
	}
	if !s.Active {
		return
	}

	if s.EngineOn {
		s.VX += math.Cos(s.Angle) * ShipThrust * dt
		s.VY += math.Sin(s.Angle) * ShipThrust * dt
	}

	s.oldX, s.oldY, s.oldAngle = s.X, s.Y, s.Angle

	switch s.Direction {
	case TurnLeft:
		s.Rotation -= ShipRotationRate * dt
	case TurnRight:
		s.Rotation += ShipRotationRate * dt
	}
	s.Angle = NormalizeAngle(s.Angle + s.Rotation*dt)

	Integrate(&s.Body, dt)
}

// ToOldPosition reverts the last move and stops the spin
func (s *Ship) ToOldPosition() {
	s.X, s.Y, s.Angle = s.oldX, s.oldY, s.oldAngle
	s.Rotation = 0
}

// Damage applies a hit and returns true if it destroyed the ship.
// Torpedo and ship hits are ignored while the shield is up; a planet crash is not.
func (s *Ship) Damage(w Weapon) bool {
	if !s.Active || !s.Kind.Damageable() {
		return false
	}
	if s.ShieldOn && w != WeaponPlanet {
		return false
	}
	s.Health = Clamp(s.Health-weaponDamage[w], 0, FullHealth)
	if s.Health > 0 {
		s.ShieldOn = true
		s.ShieldT = ShieldDuration
		return false
	}
	s.Active = false
	s.EngineOn = false
	s.ShieldOn = false
	s.VX, s.VY = 0, 0
	s.Rotation = 0
	s.ExplosionOn = true
	s.ExplosionT = ExplosionDuration
	return true
}

// Scored credits the ship with one point
func (s *Ship) Scored() {
	s.Score++
}

// ToState converts to wire state for player n
func (s *Ship) ToState(n int) protocol.ShipState {
	var flags protocol.ShipFlags
	if s.Active {
		flags |= protocol.ShipActive
	}
	if s.EngineOn {
		flags |= protocol.ShipEngineOn
	}
	if s.ShieldOn {
		flags |= protocol.ShipShieldOn
	}
	if s.Visible {
		flags |= protocol.ShipVisible
	}
	if s.ExplosionOn {
		flags |= protocol.ShipExploding
	}
	return protocol.ShipState{
		X:        float32(s.X),
		Y:        float32(s.Y),
		Radians:  float32(s.Angle),
		Health:   float32(s.Health),
		VX:       float32(s.VX),
		VY:       float32(s.VY),
		Rotation: float32(s.Rotation),
		Score:    int16(s.Score),
		PlayerN:  uint8(n),
		Flags:    flags,
	}
}
