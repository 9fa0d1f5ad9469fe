package main

// MatchPhase represents the lifecycle of a round
type MatchPhase int

const (
	PhaseWaiting   MatchPhase = 0 // no round running, waiting for players
	PhaseCountdown MatchPhase = 1
	PhasePlaying   MatchPhase = 2
)

const (
	CountdownTime = 5.0 // seconds the world is frozen at round start
	RestartDelay  = 5.0 // seconds between a round ending and the next one
	OrbitRadius   = 176.0
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	default:
		return "waiting"
	}
}

// Round holds the current round state
type Round struct {
	Phase      MatchPhase
	Number     int
	CountdownT float64
	RestartT   float64
	restarting bool
}

// Reset drops back to waiting with nothing scheduled
func (r *Round) Reset() {
	r.Phase = PhaseWaiting
	r.CountdownT = 0
	r.RestartT = 0
	r.restarting = false
}

// Over reports whether no round is in progress
func (r *Round) Over() bool {
	return r.Phase == PhaseWaiting
}

// ArmRestart schedules a new round after RestartDelay. Does nothing if one
// is already scheduled.
func (r *Round) ArmRestart() {
	if r.restarting {
		return
	}
	r.restarting = true
	r.RestartT = RestartDelay
}

// CancelRestart drops a scheduled restart
func (r *Round) CancelRestart() {
	r.restarting = false
	r.RestartT = 0
}

// RestartPending reports whether a restart is scheduled
func (r *Round) RestartPending() bool {
	return r.restarting
}

// TickRestart counts down a scheduled restart and returns true when it fires
func (r *Round) TickRestart(dt float64) bool {
	if !r.restarting {
		return false
	}
	r.RestartT -= dt
	if r.RestartT > 0 {
		return false
	}
	r.restarting = false
	r.RestartT = 0
	return true
}

// Begin starts a new round with its countdown running
func (r *Round) Begin() {
	r.Number++
	r.Phase = PhaseCountdown
	r.CountdownT = CountdownTime
}

// TickCountdown counts down the round start and returns true on the tick
// the countdown expires
func (r *Round) TickCountdown(dt float64) bool {
	if r.Phase != PhaseCountdown {
		return false
	}
	r.CountdownT -= dt
	if r.CountdownT > 0 {
		return false
	}
	r.CountdownT = 0
	r.Phase = PhasePlaying
	return true
}
