package main

const (
	WorldWidth  = 640.0
	WorldHeight = 480.0
	FullHealth  = 100.0
)

// Kind selects the per-kind behaviour of a Body
type Kind uint8

const (
	KindShip Kind = iota
	KindTorpedo
	KindPlanet
)

type capabilities struct {
	movable    bool // integrated and pulled by gravity
	collidable bool
	damageable bool
}

var kindCaps = [...]capabilities{
	KindShip:    {movable: true, collidable: true, damageable: true},
	KindTorpedo: {movable: true, collidable: true},
	KindPlanet:  {collidable: true},
}

func (k Kind) Movable() bool    { return kindCaps[k].movable }
func (k Kind) Collidable() bool { return kindCaps[k].collidable }
func (k Kind) Damageable() bool { return kindCaps[k].damageable }

// Body is the state every entity shares. X, Y is the centre.
type Body struct {
	Kind    Kind
	X, Y    float64
	VX, VY  float64
	Angle   float64 // radians, 0 faces +X
	Radius  float64
	Mass    float64
	Active  bool
	Visible bool
}
