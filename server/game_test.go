package main

import (
	"bytes"
	"encoding"
	"errors"
	"log"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"spacewar/protocol"
)

type sentDatagram struct {
	addr *net.UDPAddr
	data []byte
}

// fakeTransport captures sent datagrams and replays queued ones
type fakeTransport struct {
	port   int
	inbox  []Datagram
	sent   []sentDatagram
	closed bool
}

func (f *fakeTransport) Poll() (Datagram, bool) {
	if len(f.inbox) == 0 {
		return Datagram{}, false
	}
	dg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return dg, true
}

func (f *fakeTransport) SendTo(data []byte, addr *net.UDPAddr) error {
	if f.closed {
		return net.ErrClosed
	}
	f.sent = append(f.sent, sentDatagram{addr: addr, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeTransport) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: f.port}
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) deliver(t *testing.T, from *net.UDPAddr, msg encoding.BinaryMarshaler) {
	t.Helper()
	data, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	f.inbox = append(f.inbox, Datagram{Addr: from, Data: data})
}

// joinResponses returns every join response sent to addr
func (f *fakeTransport) joinResponses(t *testing.T, addr *net.UDPAddr) []protocol.JoinResponse {
	t.Helper()
	var out []protocol.JoinResponse
	for _, d := range f.sent {
		if d.addr.String() != addr.String() || len(d.data) != protocol.JoinResponseSize {
			continue
		}
		var r protocol.JoinResponse
		if err := r.UnmarshalBinary(d.data); err != nil {
			t.Fatalf("unmarshal join response: %v", err)
		}
		out = append(out, r)
	}
	return out
}

// lastSnapshot returns the newest snapshot sent to addr
func (f *fakeTransport) lastSnapshot(t *testing.T, addr *net.UDPAddr) (protocol.Snapshot, bool) {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		d := f.sent[i]
		if d.addr.String() != addr.String() || len(d.data) != protocol.SnapshotSize {
			continue
		}
		var s protocol.Snapshot
		if err := s.UnmarshalBinary(d.data); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
		return s, true
	}
	return protocol.Snapshot{}, false
}

type recordedEvent struct {
	kind string
	slot int
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) Track(kind string, slot int, addr string) {
	r.events = append(r.events, recordedEvent{kind: kind, slot: slot})
}

type frameRecorder struct {
	frames []SpectatorFrame
}

func (r *frameRecorder) Publish(f SpectatorFrame) {
	r.frames = append(r.frames, f)
}

// newTestGame returns a game wired to fake transports; every Listener call
// opens a fresh one
func newTestGame(t *testing.T) (*Game, *[]*fakeTransport) {
	t.Helper()
	var opened []*fakeTransport
	listen := func(port int) (Transport, error) {
		ft := &fakeTransport{port: port}
		opened = append(opened, ft)
		return ft, nil
	}
	g, err := NewGame(DefaultConfig(), listen)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, &opened
}

func current(opened *[]*fakeTransport) *fakeTransport {
	return (*opened)[len(*opened)-1]
}

// runTicks advances the game, with every listed player sending input each tick
func runTicks(t *testing.T, g *Game, ft *fakeTransport, n int, players map[int]*net.UDPAddr, buttons protocol.Buttons) {
	t.Helper()
	for i := 0; i < n; i++ {
		for num, addr := range players {
			ft.deliver(t, addr, protocol.ClientInput{Buttons: buttons, PlayerN: uint8(num)})
		}
		g.update()
	}
}

func TestGameJoinAssignsSlots(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	a1, a2, a3 := testAddr(1), testAddr(2), testAddr(3)

	ft.deliver(t, a1, protocol.JoinRequest())
	ft.deliver(t, a2, protocol.JoinRequest())
	ft.deliver(t, a3, protocol.JoinRequest())
	g.update()

	for i, addr := range []*net.UDPAddr{a1, a2} {
		resp := ft.joinResponses(t, addr)
		if len(resp) != 1 || resp[0].Response != protocol.ServerID || int(resp[0].Number) != i {
			t.Errorf("client %d: expected %q #%d, got %+v", i, protocol.ServerID, i, resp)
		}
	}
	resp := ft.joinResponses(t, a3)
	if len(resp) != 1 || resp[0].Response != protocol.ServerFull || resp[0].Number != protocol.JoinSentinel {
		t.Errorf("third client: expected %q, got %+v", protocol.ServerFull, resp)
	}
	if g.slots.Slot(0).Addr != a1 || g.slots.Slot(1).Addr != a2 {
		t.Error("slots should keep the first two clients")
	}
}

func TestGameBoundAddressRejoinAtCapacity(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	a1, a2 := testAddr(1), testAddr(2)
	ft.deliver(t, a1, protocol.JoinRequest())
	ft.deliver(t, a2, protocol.JoinRequest())
	g.update()

	ft.deliver(t, a1, protocol.JoinRequest())
	g.update()

	resp := ft.joinResponses(t, a1)
	if len(resp) != 2 || resp[1].Response != protocol.ServerFull || resp[1].Number != protocol.JoinSentinel {
		t.Fatalf("rejoin at capacity: expected %q, got %+v", protocol.ServerFull, resp)
	}
	if g.slots.Connected() != 2 || g.slots.Slot(0).Addr != a1 {
		t.Error("slots should be unchanged")
	}
}

func TestGameFirstJoinResetsScores(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	g.ships[0].Score = 4
	g.ships[1].Score = 7

	ft.deliver(t, testAddr(1), protocol.JoinRequest())
	g.update()

	if g.ships[0].Score != 0 || g.ships[1].Score != 0 {
		t.Error("scores should reset when the first player joins an empty server")
	}
	if !g.round.Over() {
		t.Error("round should be over")
	}
}

func TestGameSendsSnapshotsToConnectedPlayers(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	a1 := testAddr(1)

	ft.deliver(t, a1, protocol.JoinRequest())
	g.update()

	snap, ok := ft.lastSnapshot(t, a1)
	if !ok {
		t.Fatal("connected player should get a snapshot every tick")
	}
	for i, p := range snap.Players {
		if int(p.Ship.PlayerN) != i {
			t.Errorf("player %d tagged %d", i, p.Ship.PlayerN)
		}
		if p.Ship.Active() {
			t.Errorf("ship %d should not be active before a round", i)
		}
	}
	if _, ok := ft.lastSnapshot(t, testAddr(2)); ok {
		t.Error("unconnected address got a snapshot")
	}
}

func TestGameMalformedDatagramDropped(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	ft.inbox = append(ft.inbox, Datagram{Addr: testAddr(1), Data: []byte{1, 2, 3}})
	g.update()

	if g.dropped != 1 {
		t.Errorf("expected 1 dropped datagram, got %d", g.dropped)
	}
	if len(ft.sent) != 0 {
		t.Error("malformed datagram should get no reply")
	}
}

func TestGameInputOnlyForConnectedSlot(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	a1 := testAddr(1)
	ft.deliver(t, a1, protocol.JoinRequest())
	g.update()

	// Ship not active yet: timeout resets but buttons are not stored
	g.slots.Sweep()
	ft.deliver(t, a1, protocol.ClientInput{Buttons: protocol.ButtonFire, PlayerN: 0})
	// Slot 1 is empty
	ft.deliver(t, testAddr(2), protocol.ClientInput{Buttons: protocol.ButtonFire, PlayerN: 1})
	g.update()

	if g.slots.Slot(0).Timeout != 0 {
		t.Error("input should reset the slot timeout")
	}
	if g.slots.Buttons(0) != 0 {
		t.Error("buttons should not be stored for an inactive ship")
	}
	if g.slots.Slot(1).Connected {
		t.Error("input must not connect an empty slot")
	}
}

func TestGameRoundLifecycle(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	players := map[int]*net.UDPAddr{0: testAddr(1), 1: testAddr(2)}
	ft.deliver(t, players[0], protocol.JoinRequest())
	ft.deliver(t, players[1], protocol.JoinRequest())
	g.update()

	if !g.round.RestartPending() {
		t.Fatal("two players should schedule a round")
	}

	runTicks(t, g, ft, int(RestartDelay*TickRate)+2, players, 0)
	if g.round.Phase != PhaseCountdown || g.round.Number != 1 {
		t.Fatalf("expected round 1 countdown, got %s round %d", g.round.Phase, g.round.Number)
	}
	snap, _ := ft.lastSnapshot(t, players[0])
	if !snap.GameState.RoundStart() {
		t.Error("round start bit should be set during the countdown")
	}
	if !snap.Sounds.Has(protocol.SoundCheer) {
		t.Error("cheer should toggle at round start")
	}
	ship0 := snap.Players[0].Ship
	if !ship0.Active() || ship0.Health != FullHealth || ship0.X != float32(g.planet.X-OrbitRadius) {
		t.Errorf("ship 0 not placed for the round: %+v", ship0)
	}
	if ship0.VY >= 0 || snap.Players[1].Ship.VY <= 0 {
		t.Error("ships should start in opposite orbits")
	}

	// Frozen during the countdown
	x := g.ships[0].X
	runTicks(t, g, ft, TickRate, players, protocol.ButtonForward)
	if g.ships[0].X != x {
		t.Error("ships should not move during the countdown")
	}

	runTicks(t, g, ft, int(CountdownTime*TickRate), players, 0)
	if g.round.Phase != PhasePlaying {
		t.Fatalf("expected playing, got %s", g.round.Phase)
	}
	snap, _ = ft.lastSnapshot(t, players[0])
	if snap.GameState.RoundStart() {
		t.Error("round start bit should clear when the countdown ends")
	}
	if g.ships[0].X == x {
		t.Error("ships should move once play starts")
	}
}

func TestGameEngineSoundIsLevel(t *testing.T) {
	g, _ := newTestGame(t)
	g.slots.Join(testAddr(1))
	g.roundStart()
	g.round.Phase = PhasePlaying

	g.slots.SetButtons(0, protocol.ButtonForward)
	g.simulate(g.dt)
	if !g.sounds.Has(protocol.SoundEngine1) || g.sounds.Has(protocol.SoundEngine2) {
		t.Errorf("expected only engine1 on, sounds %08b", g.sounds)
	}
	g.simulate(g.dt)
	if !g.sounds.Has(protocol.SoundEngine1) {
		t.Error("engine bit should stay set while thrusting")
	}
	g.slots.SetButtons(0, 0)
	g.simulate(g.dt)
	if g.sounds.Has(protocol.SoundEngine1) {
		t.Error("engine bit should clear when thrust stops")
	}
}

func TestGameTorpedoKillTogglesExplodeOnce(t *testing.T) {
	g, _ := newTestGame(t)
	g.roundStart()
	g.round.Phase = PhasePlaying
	before := g.sounds

	victim := g.ships[0]
	victim.Health = 30
	tp := g.torpedoes[1]
	tp.Active, tp.Visible = true, true
	tp.X, tp.Y = victim.X, victim.Y
	tp.VX, tp.VY = victim.VX, victim.VY
	tp.FireTimer = FireDelay

	g.simulate(g.dt)

	changed := g.sounds ^ before
	if !changed.Has(protocol.SoundExplode) || !changed.Has(protocol.SoundTorpedoHit) {
		t.Fatalf("expected explode and torpedo hit toggles, changed %08b", changed)
	}
	if victim.Active || !victim.ExplosionOn {
		t.Error("victim should be exploding")
	}
	if g.ships[1].Score != 1 {
		t.Errorf("shooter should score, got %d", g.ships[1].Score)
	}
	if tp.Active {
		t.Error("torpedo should be spent")
	}

	after := g.sounds
	g.simulate(g.dt)
	if (g.sounds ^ after).Has(protocol.SoundExplode) {
		t.Error("explode bit must not toggle again while the wreck burns")
	}
}

func TestGamePlanetCrashScoresOpponent(t *testing.T) {
	g, _ := newTestGame(t)
	g.roundStart()
	g.round.Phase = PhasePlaying

	s := g.ships[0]
	s.Place(g.planet.X-PlanetRadius-ShipRadius-0.5, g.planet.Y, 60, 0, 0)
	g.simulate(g.dt)

	if s.Active || !s.ExplosionOn {
		t.Error("planet crash should destroy the ship")
	}
	if g.ships[1].Score != 1 || s.Score != 0 {
		t.Errorf("expected opponent to score, scores %d/%d", s.Score, g.ships[1].Score)
	}
}

func TestGameShipCollision(t *testing.T) {
	g, _ := newTestGame(t)
	g.planet.SetGravity(false)
	g.roundStart()
	g.round.Phase = PhasePlaying

	a, b := g.ships[0], g.ships[1]
	a.Place(100, 100, 30, 0, 0)
	b.Place(100+2*ShipRadius-1, 100, -30, 0, math.Pi)
	before := g.sounds
	g.simulate(g.dt)

	if a.VX >= 0 || b.VX <= 0 {
		t.Errorf("ships should bounce apart, vx %v / %v", a.VX, b.VX)
	}
	if a.Health != FullHealth-10 || b.Health != FullHealth-10 {
		t.Errorf("both ships should take collision damage, health %v / %v", a.Health, b.Health)
	}
	if !(g.sounds ^ before).Has(protocol.SoundCollide) {
		t.Error("collide sound should toggle")
	}
}

func TestGameEvictsSilentPlayer(t *testing.T) {
	g, opened := newTestGame(t)
	ft := current(opened)
	rec := &eventRecorder{}
	g.SetEventSink(rec)
	ft.deliver(t, testAddr(1), protocol.JoinRequest())
	g.update()

	for i := 0; i < 150; i++ {
		g.update()
	}
	if !g.slots.Slot(0).Connected {
		t.Fatal("player evicted too early")
	}
	for i := 0; i < 60; i++ {
		g.update()
	}
	if g.slots.Slot(0).Connected {
		t.Fatal("silent player should be evicted after about three seconds")
	}
	if g.ships[0].Active || g.ships[0].Visible {
		t.Error("evicted player's ship should leave play")
	}

	var kinds []string
	for _, e := range rec.events {
		kinds = append(kinds, e.kind)
	}
	if len(kinds) != 2 || kinds[0] != EventPlayerJoin || kinds[1] != EventPlayerEvicted {
		t.Errorf("unexpected journal events %v", kinds)
	}
}

func TestGameSpectatorFrames(t *testing.T) {
	g, _ := newTestGame(t)
	rec := &frameRecorder{}
	g.SetFrameSink(rec)
	for i := 0; i < TickRate; i++ {
		g.update()
	}
	if len(rec.frames) != BroadcastRate {
		t.Fatalf("expected %d frames per second, got %d", BroadcastRate, len(rec.frames))
	}
	f := rec.frames[len(rec.frames)-1]
	if f.Tick != TickRate || len(f.Ships) != protocol.MaxPlayers || f.Phase != "waiting" || !f.Gravity {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestConsoleGravity(t *testing.T) {
	g, _ := newTestGame(t)
	g.command("gravity off")
	if g.planet.Mass != 0 {
		t.Error("gravity off should zero the planet mass")
	}
	g.command("GRAVITY ON")
	if g.planet.Mass != PlanetMass {
		t.Error("gravity on should restore the planet mass")
	}
}

func TestConsolePortChange(t *testing.T) {
	g, opened := newTestGame(t)
	old := current(opened)
	rec := &eventRecorder{}
	g.SetEventSink(rec)
	old.deliver(t, testAddr(1), protocol.JoinRequest())
	g.update()

	g.command("port 80")
	if len(*opened) != 1 || g.Port() != protocol.DefaultPort {
		t.Fatal("invalid port should be rejected")
	}

	g.command("port 48200")
	if len(*opened) != 2 || g.Port() != 48200 || current(opened).port != 48200 {
		t.Fatalf("expected rebind on 48200, port now %d", g.Port())
	}
	if !old.closed {
		t.Error("old socket should be closed")
	}
	if g.slots.Connected() != 0 || !g.round.Over() {
		t.Error("port change should drop every player and end the round")
	}
	last := rec.events[len(rec.events)-1]
	if last.kind != EventPortChange {
		t.Errorf("expected port change event, got %s", last.kind)
	}
}

func TestConsolePortChangeFailureKeepsSocket(t *testing.T) {
	ft := &fakeTransport{port: protocol.DefaultPort}
	calls := 0
	listen := func(port int) (Transport, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("address in use")
		}
		return ft, nil
	}
	g, err := NewGame(DefaultConfig(), listen)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	g.command("port 48300")
	if ft.closed || g.Port() != protocol.DefaultPort {
		t.Error("failed rebind should keep the old socket")
	}
}

func TestConsoleSamePortFailureReopens(t *testing.T) {
	var opened []*fakeTransport
	calls := 0
	listen := func(port int) (Transport, error) {
		calls++
		if calls == 2 || calls == 3 {
			return nil, errors.New("address in use")
		}
		ft := &fakeTransport{port: port}
		opened = append(opened, ft)
		return ft, nil
	}
	g, err := NewGame(DefaultConfig(), listen)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	first := opened[0]

	g.command("port 0") // the port already served
	if !first.closed || !g.deaf {
		t.Fatal("a failed same-port restart should leave the server marked deaf")
	}

	for i := 0; i < TickRate; i++ {
		g.update()
	}
	if calls != 3 || !g.deaf {
		t.Fatalf("expected one failed reopen after a second, calls %d", calls)
	}
	for i := 0; i < TickRate; i++ {
		g.update()
	}
	if g.deaf || len(opened) != 2 || g.Port() != protocol.DefaultPort {
		t.Fatalf("expected the port to be reopened, calls %d", calls)
	}

	ft := current(&opened)
	ft.deliver(t, testAddr(1), protocol.JoinRequest())
	g.update()
	if resp := ft.joinResponses(t, testAddr(1)); len(resp) != 1 || !resp[0].Accepted() {
		t.Errorf("reopened socket should serve joins, got %+v", resp)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestConsoleStatus(t *testing.T) {
	g, opened := newTestGame(t)
	j := NewJournal(openTestDB(t), "server-a")
	g.SetEventSink(j)
	current(opened).deliver(t, testAddr(1), protocol.JoinRequest())
	g.update()
	j.Stop() // flush the join so the counts see it
	g.slots.slots[0].JoinedAt = time.Now().Add(-90 * time.Second)

	out := captureLog(t)
	select {
	case <-g.logStatus():
	case <-time.After(2 * time.Second):
		t.Fatal("journal counts never printed")
	}

	text := out.String()
	if !strings.Contains(text, "player 0: 127.0.0.1:40001 connected 1m30s") {
		t.Errorf("status should show how long player 0 has been connected:\n%s", text)
	}
	if !strings.Contains(text, "player 1: empty") {
		t.Errorf("status should list the empty slot:\n%s", text)
	}
	if !strings.Contains(text, "may be unflushed") || !strings.Contains(text, EventPlayerJoin+":1") {
		t.Errorf("status should print journal counts with their staleness:\n%s", text)
	}
}
