package main

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"spacewar/protocol"
)

const sampleRate = beep.SampleRate(44100)

type waveType int

const (
	waveSine waveType = iota
	waveSquare
	waveSaw
	waveNoise
)

// effect describes how a sound is synthesized. Zero length means it loops
// until stopped.
type effect struct {
	freq   float64
	wave   waveType
	length time.Duration
	decay  float64 // exponential fade rate, 1/s
	volume float64
}

var effectTable = [protocol.NumSounds]effect{
	protocol.SoundCheer:        {freq: 660, wave: waveSine, length: 700 * time.Millisecond, decay: 3, volume: 0.5},
	protocol.SoundCollide:      {freq: 110, wave: waveSquare, length: 200 * time.Millisecond, decay: 12, volume: 0.4},
	protocol.SoundExplode:      {wave: waveNoise, length: 900 * time.Millisecond, decay: 4, volume: 0.6},
	protocol.SoundEngine1:      {freq: 55, wave: waveSaw, volume: 0.15},
	protocol.SoundEngine2:      {freq: 62, wave: waveSaw, volume: 0.15},
	protocol.SoundTorpedoCrash: {wave: waveNoise, length: 250 * time.Millisecond, decay: 14, volume: 0.4},
	protocol.SoundTorpedoFire:  {freq: 1320, wave: waveSquare, length: 90 * time.Millisecond, decay: 20, volume: 0.25},
	protocol.SoundTorpedoHit:   {freq: 220, wave: waveSaw, length: 300 * time.Millisecond, decay: 8, volume: 0.5},
}

// tone is a decaying oscillator
type tone struct {
	effect
	rate  beep.SampleRate
	phase float64
	pos   int
}

func newTone(e effect, rate beep.SampleRate) *tone {
	return &tone{effect: e, rate: rate}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		var val float64
		switch t.wave {
		case waveSine:
			val = math.Sin(2 * math.Pi * t.phase)
		case waveSquare:
			if t.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case waveSaw:
			val = 2 * (t.phase - 0.5)
		case waveNoise:
			val = rand.Float64()*2 - 1
		}
		if t.decay > 0 {
			val *= math.Exp(-t.decay * float64(t.pos) / float64(t.rate))
		}
		samples[i][0] = val
		samples[i][1] = val

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// streamFor builds the streamer of one effect: a bounded one-shot, or an
// endless loop for the engines
func streamFor(s protocol.Sound, rate beep.SampleRate) beep.Streamer {
	e := effectTable[s]
	var src beep.Streamer = newTone(e, rate)
	if e.length > 0 {
		src = beep.Take(rate.N(e.length), src)
	}
	return withVolume(src, e.volume)
}

// SoundManager plays effects through the speaker
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	loops       [protocol.NumSounds]*beep.Ctrl
	initialized bool
}

func NewSoundManager() *SoundManager {
	return &SoundManager{mixer: &beep.Mixer{}}
}

// Initialize opens the audio device
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup silences everything and releases the device
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	sm.mixer.Clear()
	sm.loops = [protocol.NumSounds]*beep.Ctrl{}
	sm.initialized = false
}

// PlayEffect starts a sound. Looping sounds that are already on keep
// playing, so calling it every snapshot is fine.
func (sm *SoundManager) PlayEffect(s protocol.Sound) {
	if s >= protocol.NumSounds {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	if effectTable[s].length > 0 {
		sm.mixer.Add(streamFor(s, sampleRate))
		return
	}
	if ctrl := sm.loops[s]; ctrl != nil {
		ctrl.Paused = false
		return
	}
	ctrl := &beep.Ctrl{Streamer: streamFor(s, sampleRate)}
	sm.loops[s] = ctrl
	sm.mixer.Add(ctrl)
}

// StopEffect pauses a looping sound. One-shots run to their end.
func (sm *SoundManager) StopEffect(s protocol.Sound) {
	if s >= protocol.NumSounds {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized || sm.loops[s] == nil {
		return
	}
	speaker.Lock()
	sm.loops[s].Paused = true
	speaker.Unlock()
}

// mute satisfies Audio without a device
type mute struct{}

func (mute) PlayEffect(protocol.Sound) {}
func (mute) StopEffect(protocol.Sound) {}
