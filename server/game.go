package main

import (
	"errors"
	"log"
	"math"
	"net"
	"sync"
	"time"

	"spacewar/protocol"
)

// maxDatagramsPerTick bounds the receive drain so a flood cannot stall a tick
const maxDatagramsPerTick = 64

// FrameSink receives spectator frames from the game loop
type FrameSink interface {
	Publish(f SpectatorFrame)
}

// EventSink records session events
type EventSink interface {
	Track(kind string, slot int, addr string)
}

// Game is the authoritative simulation. Everything below is owned by the
// goroutine running Run; other goroutines talk to it through channels.
type Game struct {
	cfg       Config
	listen    Listener
	transport Transport
	port      int
	deaf      bool // transport closed by a failed restart
	rebindIn  int  // ticks until the next reopen attempt

	planet    *Planet
	ships     [protocol.MaxPlayers]*Ship
	torpedoes [protocol.MaxPlayers]*Torpedo
	slots     *SlotManager
	round     Round

	gameState protocol.GameState
	sounds    protocol.SoundBits

	dt             float64
	netTime        time.Duration
	tick           uint64
	broadcastEvery uint64
	dropped        uint64 // malformed datagrams

	fpsOn    bool
	fpsTicks int
	fpsStart time.Time

	frames   FrameSink
	events   EventSink
	commands chan string
	stop     chan struct{}
	stopOnce sync.Once
}

// NewGame opens the transport on cfg.Port and sets up an empty arena
func NewGame(cfg Config, listen Listener) (*Game, error) {
	tr, err := listen(cfg.Port)
	if err != nil {
		return nil, err
	}
	every := uint64(cfg.TickRate / BroadcastRate)
	if every == 0 {
		every = 1
	}
	g := &Game{
		cfg:            cfg,
		listen:         listen,
		transport:      tr,
		port:           cfg.Port,
		planet:         NewPlanet(),
		slots:          NewSlotManager(),
		dt:             1.0 / float64(cfg.TickRate),
		broadcastEvery: every,
		commands:       make(chan string, 16),
		stop:           make(chan struct{}),
	}
	g.planet.SetGravity(cfg.Gravity)
	for i := range g.ships {
		g.ships[i] = NewShip()
		g.torpedoes[i] = NewTorpedo()
	}
	return g, nil
}

// SetFrameSink attaches the spectator feed
func (g *Game) SetFrameSink(f FrameSink) { g.frames = f }

// SetEventSink attaches the session journal
func (g *Game) SetEventSink(e EventSink) { g.events = e }

// Commands returns the channel console lines are submitted on
func (g *Game) Commands() chan<- string { return g.commands }

// Port returns the UDP port currently served
func (g *Game) Port() int { return g.port }

// Run starts the game loop
func (g *Game) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case line := <-g.commands:
			g.command(line)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Close releases the network transport. Call after Run has returned.
func (g *Game) Close() error {
	return g.transport.Close()
}

func (g *Game) track(kind string, slot int, addr string) {
	if g.events != nil {
		g.events.Track(kind, slot, addr)
	}
}

// update runs one game tick
func (g *Game) update() {
	dt := g.dt
	g.tick++

	if g.deaf {
		g.retryListen()
	}
	g.receive()

	g.netTime += time.Duration(dt * float64(time.Second))
	if g.netTime >= NetTime {
		g.netTime -= NetTime
		g.checkNetworkTimeout()
	}

	g.advanceRound(dt)
	g.checkPopulation()
	g.broadcastState()
	g.measureFPS()
}

// receive drains pending datagrams and dispatches them
func (g *Game) receive() {
	for i := 0; i < maxDatagramsPerTick; i++ {
		dg, ok := g.transport.Poll()
		if !ok {
			return
		}
		var in protocol.ClientInput
		if err := in.UnmarshalBinary(dg.Data); err != nil {
			g.dropped++
			continue
		}
		if in.IsJoinRequest() {
			g.clientWantsToJoin(dg.Addr)
			continue
		}
		g.handleInput(in)
	}
}

// resetMatch ends any round in progress and zeroes the scores
func (g *Game) resetMatch() {
	g.round.Reset()
	g.gameState &^= protocol.GameRoundStart
	for _, s := range g.ships {
		s.Score = 0
	}
}

// clientWantsToJoin answers a join request with a slot or SERVER FULL
func (g *Game) clientWantsToJoin(addr *net.UDPAddr) {
	log.Printf("player requesting to join from %s", addr)

	if g.slots.Connected() == 0 {
		// First player in: forget the previous match
		g.resetMatch()
	}

	resp := protocol.JoinResponse{Response: protocol.ServerID}
	n, err := g.slots.Join(addr)
	switch {
	case errors.Is(err, ErrSlotFull):
		resp = protocol.JoinResponse{Response: protocol.ServerFull, Number: protocol.JoinSentinel}
		log.Printf("join from %s rejected: %v", addr, err)
		g.track(EventJoinRejected, -1, addr.String())
	default:
		resp.Number = uint8(n)
		log.Printf("player %d joined from %s", n, addr)
		g.track(EventPlayerJoin, n, addr.String())
	}

	data, err := resp.MarshalBinary()
	if err != nil {
		log.Printf("join response encode: %v", err)
		return
	}
	if err := g.transport.SendTo(data, addr); err != nil {
		log.Printf("join response to %s: %v", addr, err)
	}
}

// handleInput stores a connected player's buttons. The sender address is not
// checked against the slot.
func (g *Game) handleInput(in protocol.ClientInput) {
	n := int(in.PlayerN)
	if !g.slots.Touch(n) {
		return
	}
	if g.ships[n].Active {
		g.slots.SetButtons(n, in.Buttons)
	}
}

// checkNetworkTimeout evicts players that stopped sending input
func (g *Game) checkNetworkTimeout() {
	for _, n := range g.slots.Sweep() {
		g.ships[n].Deactivate()
		log.Printf("***** player %d disconnected: %v *****", n, ErrPeerTimeout)
		g.track(EventPlayerEvicted, n, "")
	}
}

// advanceRound handles the restart timer and countdown, and simulates the
// world once play is running
func (g *Game) advanceRound(dt float64) {
	if g.round.TickRestart(dt) {
		g.roundStart()
	}
	if g.round.Phase == PhaseCountdown {
		if g.round.TickCountdown(dt) {
			g.gameState &^= protocol.GameRoundStart
		}
		return
	}
	g.simulate(dt)
}

// roundStart places both ships in opposite orbits and starts the countdown
func (g *Game) roundStart() {
	speed := OrbitSpeed(PlanetMass, ShipMass, OrbitRadius)
	starts := [protocol.MaxPlayers]struct{ side, vy, heading float64 }{
		{side: -1, vy: -speed, heading: 0},
		{side: 1, vy: speed, heading: math.Pi},
	}
	for i, s := range g.ships {
		st := starts[i]
		s.Place(g.planet.X+st.side*OrbitRadius, g.planet.Y, 0, st.vy, st.heading)
		s.Repair()
		g.torpedoes[i].Reset()
		g.slots.SetButtons(i, 0)
		g.sounds.Set(protocol.EngineSound(i), false)
	}
	g.round.Begin()
	g.gameState |= protocol.GameRoundStart
	g.sounds.Toggle(protocol.SoundCheer)
	log.Printf("round %d starting", g.round.Number)
}

// simulate runs one frame of play: input, gravity, movement, collisions
func (g *Game) simulate(dt float64) {
	var events protocol.SoundBits
	for i, s := range g.ships {
		t := g.torpedoes[i]
		engine := protocol.EngineSound(i)
		if s.Active {
			b := g.slots.Buttons(i)
			s.ApplyButtons(b)
			if b.Fire() && t.Fire(s) {
				events.Set(protocol.SoundTorpedoFire, true)
			}
		}
		g.sounds.Set(engine, s.Active && s.EngineOn)

		ApplyGravity(&s.Body, g.planet, dt)
		ApplyGravity(&t.Body, g.planet, dt)
		s.Update(dt)
		t.Update(dt)
	}
	events |= g.collisions()
	// Each edge sound flips at most once per tick
	g.sounds ^= events
}

// collisions resolves every contact of this frame and returns the edge
// sounds that occurred
func (g *Game) collisions() protocol.SoundBits {
	var events protocol.SoundBits
	exploded := func(yes bool) {
		if yes {
			events.Set(protocol.SoundExplode, true)
		}
	}

	for i, s := range g.ships {
		if Collides(&s.Body, &g.planet.Body) {
			s.ToOldPosition()
			exploded(s.Damage(WeaponPlanet))
			for j, other := range g.ships {
				if j != i {
					other.Scored()
				}
			}
		}

		for j := i + 1; j < len(g.ships); j++ {
			o := g.ships[j]
			if !Collides(&s.Body, &o.Body) {
				continue
			}
			Bounce(&s.Body, &o.Body)
			events.Set(protocol.SoundCollide, true)
			if s.Damage(WeaponShip) {
				o.Scored()
				exploded(true)
			}
			if o.Damage(WeaponShip) {
				s.Scored()
				exploded(true)
			}
		}

		for j, t := range g.torpedoes {
			if j == i || !Collides(&s.Body, &t.Body) {
				continue
			}
			exploded(s.Damage(WeaponTorpedo))
			t.Crash()
			g.ships[j].Scored()
			events.Set(protocol.SoundTorpedoHit, true)
		}

		t := g.torpedoes[i]
		if Collides(&t.Body, &g.planet.Body) {
			t.Crash()
			events.Set(protocol.SoundTorpedoCrash, true)
		}
	}
	return events
}

// checkPopulation schedules a new round once at least two players are
// connected and the current round is over or down to one ship
func (g *Game) checkPopulation() {
	connected := g.slots.Connected()
	if connected < 2 {
		g.round.CancelRestart()
		return
	}
	visible := 0
	for _, s := range g.ships {
		if s.Visible {
			visible++
		}
	}
	if g.round.Phase != PhaseCountdown && (visible <= 1 || g.round.Over()) {
		g.round.ArmRestart()
	}
}

func (g *Game) snapshot() protocol.Snapshot {
	var snap protocol.Snapshot
	for i, s := range g.ships {
		snap.Players[i] = protocol.PlayerState{
			Ship:    s.ToState(i),
			Torpedo: g.torpedoes[i].ToState(),
		}
	}
	snap.GameState = g.gameState
	snap.Sounds = g.sounds
	return snap
}

// broadcastState sends the snapshot to every connected player, and every
// broadcastEvery ticks a frame to spectators
func (g *Game) broadcastState() {
	snap := g.snapshot()
	data, err := snap.MarshalBinary()
	if err != nil {
		log.Printf("snapshot encode: %v", err)
		return
	}
	for i := 0; i < protocol.MaxPlayers; i++ {
		slot := g.slots.Slot(i)
		if !slot.Connected {
			continue
		}
		if err := g.transport.SendTo(data, slot.Addr); err != nil {
			if g.slots.SendFailed(i) == 1 {
				log.Printf("send to player %d (%s): %v", i, slot.Addr, err)
			}
			continue
		}
		g.slots.SendOK(i)
	}

	if g.frames != nil && g.tick%g.broadcastEvery == 0 {
		g.frames.Publish(g.spectatorFrame(snap))
	}
}

func (g *Game) measureFPS() {
	if !g.fpsOn {
		return
	}
	g.fpsTicks++
	if elapsed := time.Since(g.fpsStart); elapsed >= time.Second {
		log.Printf("fps %.1f", float64(g.fpsTicks)/elapsed.Seconds())
		g.fpsTicks = 0
		g.fpsStart = time.Now()
	}
}
