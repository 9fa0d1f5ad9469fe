package main

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// Collides reports whether two bodies are both in play and overlapping
func Collides(a, b *Body) bool {
	if !a.Active || !b.Active || !a.Kind.Collidable() || !b.Kind.Collidable() {
		return false
	}
	return CheckCollision(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius)
}

// Bounce exchanges momentum between two bodies along the line joining their
// centres, weighted by mass. Both new velocities come from the pre-collision
// ones. Bodies already moving apart are only nudged apart.
func Bounce(a, b *Body) {
	nx, ny := b.X-a.X, b.Y-a.Y
	d := Distance(a.X, a.Y, b.X, b.Y)
	if d == 0 {
		nx, ny, d = 1, 0, 1
	}
	nx /= d
	ny /= d

	ra, rb := 1.0, 1.0
	if total := a.Mass + b.Mass; total > 0 {
		ra = 2 * b.Mass / total
		rb = 2 * a.Mass / total
	}

	// closing speed of b relative to a along the normal; negative when approaching
	rel := (b.VX-a.VX)*nx + (b.VY-a.VY)*ny
	if rel >= 0 {
		a.X -= nx * ra
		a.Y -= ny * ra
		b.X += nx * rb
		b.Y += ny * rb
		return
	}
	a.VX += ra * rel * nx
	a.VY += ra * rel * ny
	b.VX -= rb * rel * nx
	b.VY -= rb * rel * ny
}
