package main

import (
	"math"
	"time"

	"spacewar/protocol"
)

const CountdownTime = 5 * time.Second

// Audio is the sound effect collaborator
type Audio interface {
	PlayEffect(protocol.Sound)
	StopEffect(protocol.Sound)
}

// Reconciler mirrors the server's ships and torpedoes and turns changes in
// the snapshot sound byte into effect calls
type Reconciler struct {
	audio     Audio
	players   [protocol.MaxPlayers]protocol.PlayerState
	gameState protocol.GameState
	countdown time.Duration

	sounds   protocol.SoundBits
	baseline bool // sounds holds a received value
}

func NewReconciler(audio Audio) *Reconciler {
	return &Reconciler{audio: audio}
}

// Apply overwrites the mirrors with a snapshot. The first snapshot after a
// Reset only records the sound byte, since there is nothing to diff against.
func (r *Reconciler) Apply(s protocol.Snapshot) {
	r.players = s.Players
	r.gameState = s.GameState
	if s.GameState.RoundStart() && r.countdown <= 0 {
		r.countdown = CountdownTime
	}

	for snd := protocol.Sound(0); snd < protocol.NumSounds; snd++ {
		on := s.Sounds.Has(snd)
		if !snd.EdgeTriggered() {
			if on {
				r.audio.PlayEffect(snd)
			} else {
				r.audio.StopEffect(snd)
			}
			continue
		}
		if r.baseline && on != r.sounds.Has(snd) {
			r.audio.PlayEffect(snd)
		}
	}
	r.sounds = s.Sounds
	r.baseline = true
}

// Reset forgets the previous sound byte and silences the engines
func (r *Reconciler) Reset() {
	r.baseline = false
	r.sounds = 0
	r.countdown = 0
	r.audio.StopEffect(protocol.SoundEngine1)
	r.audio.StopEffect(protocol.SoundEngine2)
}

// Update runs the local countdown
func (r *Reconciler) Update(dt time.Duration) {
	if r.countdown > 0 {
		r.countdown -= dt
		if r.countdown < 0 {
			r.countdown = 0
		}
	}
}

func (r *Reconciler) CountdownOn() bool { return r.countdown > 0 }

// CountdownSeconds is the whole seconds left for display, 0 when off
func (r *Reconciler) CountdownSeconds() int {
	return int(math.Ceil(r.countdown.Seconds()))
}

func (r *Reconciler) Players() [protocol.MaxPlayers]protocol.PlayerState { return r.players }
