package main

import "math"

const GravityConstant = 6.67428e-11

// GravityAccel returns the acceleration p exerts on b: G*M*m/r² toward the
// planet centre. A massless body is pulled with G*M/r². A planet with zero
// mass exerts nothing.
func GravityAccel(b *Body, p *Planet) (ax, ay float64) {
	if p.Mass == 0 {
		return 0, 0
	}
	dx := p.X - b.X
	dy := p.Y - b.Y
	rr := dx*dx + dy*dy
	if rr == 0 {
		return 0, 0
	}
	m := b.Mass
	if m == 0 {
		m = 1
	}
	a := GravityConstant * p.Mass * m / rr
	r := math.Sqrt(rr)
	return dx / r * a, dy / r * a
}

// ApplyGravity adds one frame of planet gravity to b's velocity
func ApplyGravity(b *Body, p *Planet, dt float64) {
	if !b.Active || !b.Kind.Movable() {
		return
	}
	ax, ay := GravityAccel(b, p)
	b.VX += ax * dt
	b.VY += ay * dt
}

// Integrate moves b by its (already updated) velocity and wraps it around
// the arena edges
func Integrate(b *Body, dt float64) {
	b.X += b.VX * dt
	b.Y += b.VY * dt

	// Wrap once the body is fully off screen
	if b.X > WorldWidth+b.Radius {
		b.X = -b.Radius
	} else if b.X < -b.Radius {
		b.X = WorldWidth + b.Radius
	}
	if b.Y > WorldHeight+b.Radius {
		b.Y = -b.Radius
	} else if b.Y < -b.Radius {
		b.Y = WorldHeight + b.Radius
	}
}

// OrbitSpeed returns the tangential speed of a circular orbit of the given
// radius for a body of the given mass: a = v²/r.
func OrbitSpeed(planetMass, mass, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	return math.Sqrt(GravityConstant * planetMass * mass / radius)
}
