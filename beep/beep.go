// Package beep plays short audio cues when recording starts, stops or fails.
package beep

import (
	"math"
	"sync/atomic"
)

const sampleRate = 44100

type Cue int

const (
	Start Cue = iota
	Stop
	Error
)

func (c Cue) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Error:
		return "error"
	}
	return "unknown"
}

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	double   bool
}

var tones = map[Cue]tone{
	// high, short tick
	Start: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60},
	// slightly lower tick with a longer tail
	Stop: {freq: 900, duration: 0.2, volume: 0.5, decay: 40},
	// low double beep
	Error: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, double: true},
}

const doubleGap = 0.05

var disabled atomic.Bool

// Disable silences every later Play.
func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

// Play starts the cue in the background and returns immediately.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	go play(c)
}

// samples renders c as mono 16-bit PCM at sampleRate.
func samples(c Cue) []int16 {
	t, ok := tones[c]
	if !ok {
		return nil
	}
	s := tick(t)
	if !t.double {
		return s
	}
	gap := make([]int16, int(float64(sampleRate)*doubleGap))
	out := make([]int16, 0, 2*len(s)+len(gap))
	out = append(out, s...)
	out = append(out, gap...)
	return append(out, s...)
}

func tick(t tone) []int16 {
	n := int(float64(sampleRate) * t.duration)
	out := make([]int16, n)
	for i := range out {
		x := float64(i) / float64(sampleRate)
		envelope := math.Exp(-x * t.decay)
		out[i] = int16(math.Sin(2*math.Pi*t.freq*x) * 32767 * t.volume * envelope)
	}
	return out
}
