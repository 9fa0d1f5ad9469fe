package main

import "spacewar/protocol"

// SpectatorFrame is what websocket spectators receive, msgpack encoded,
// BroadcastRate times per second
type SpectatorFrame struct {
	Tick      uint64          `msgpack:"tick"`
	Port      int             `msgpack:"port"`
	Round     int             `msgpack:"round"`
	Phase     string          `msgpack:"phase"`
	Countdown float64         `msgpack:"cd,omitempty"`
	Gravity   bool            `msgpack:"g"`
	Sounds    uint8           `msgpack:"snd"`
	Ships     []SpectatorShip `msgpack:"ships"`
}

// SpectatorShip is one player's ship and torpedo in a frame
type SpectatorShip struct {
	N         int               `msgpack:"n"`
	Connected bool              `msgpack:"c"`
	X         float32           `msgpack:"x"`
	Y         float32           `msgpack:"y"`
	R         float32           `msgpack:"r"`
	Health    float32           `msgpack:"hp"`
	Score     int               `msgpack:"sc"`
	Flags     uint8             `msgpack:"f"`
	Torpedo   *SpectatorTorpedo `msgpack:"t,omitempty"`
}

// SpectatorTorpedo is present only while the torpedo is visible
type SpectatorTorpedo struct {
	X float32 `msgpack:"x"`
	Y float32 `msgpack:"y"`
}

// spectatorFrame converts a snapshot plus server-side state into a frame
func (g *Game) spectatorFrame(snap protocol.Snapshot) SpectatorFrame {
	f := SpectatorFrame{
		Tick:      g.tick,
		Port:      g.port,
		Round:     g.round.Number,
		Phase:     g.round.Phase.String(),
		Countdown: g.round.CountdownT,
		Gravity:   g.planet.Mass != 0,
		Sounds:    uint8(snap.Sounds),
		Ships:     make([]SpectatorShip, 0, len(snap.Players)),
	}
	for i, p := range snap.Players {
		s := SpectatorShip{
			N:         i,
			Connected: g.slots.Slot(i).Connected,
			X:         p.Ship.X,
			Y:         p.Ship.Y,
			R:         p.Ship.Radians,
			Health:    p.Ship.Health,
			Score:     int(p.Ship.Score),
			Flags:     uint8(p.Ship.Flags),
		}
		if p.Torpedo.Visible() {
			s.Torpedo = &SpectatorTorpedo{X: p.Torpedo.X, Y: p.Torpedo.Y}
		}
		f.Ships = append(f.Ships, s)
	}
	return f
}
