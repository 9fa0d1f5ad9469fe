package main

const (
	PlanetRadius = 60.0
	PlanetMass   = 1.0e14
)

// Planet sits at the arena centre and pulls on ships and torpedoes
type Planet struct {
	Body
}

// NewPlanet creates the planet at full mass
func NewPlanet() *Planet {
	return &Planet{Body: Body{
		Kind:    KindPlanet,
		X:       WorldWidth / 2,
		Y:       WorldHeight / 2,
		Radius:  PlanetRadius,
		Mass:    PlanetMass,
		Active:  true,
		Visible: true,
	}}
}

// SetGravity turns planet gravity on or off by restoring or zeroing its mass
func (p *Planet) SetGravity(on bool) {
	if on {
		p.Mass = PlanetMass
	} else {
		p.Mass = 0
	}
}
