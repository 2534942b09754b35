package audio

import "time"

// SpeechLevel is the RMS level at or above which a frame counts as voice.
const SpeechLevel = 0.02

const (
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

type SilenceEvent int

const (
	SilenceNone  SilenceEvent = iota
	SilenceWarn               // no voice in the recent window
	SilenceClear              // speech resumed after a warning
)

// SilenceMonitor watches a sliding window of ticks and reports when too few
// of them carried voice.
type SilenceMonitor struct {
	window []bool
	ticks  int
	warned bool
}

func NewSilenceMonitor(tick, window time.Duration) *SilenceMonitor {
	n := 1
	if tick > 0 {
		n = max(int(window/tick), 1)
	}
	return &SilenceMonitor{window: make([]bool, n)}
}

func (m *SilenceMonitor) Warned() bool { return m.warned }

func (m *SilenceMonitor) ratio() float64 {
	n := min(m.ticks, len(m.window))
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i)%len(m.window)] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *SilenceMonitor) Tick(hasSpeech bool) SilenceEvent {
	m.window[m.ticks%len(m.window)] = hasSpeech
	m.ticks++

	r := m.ratio()
	if m.ticks >= len(m.window) && r < speechMinRatio && !m.warned {
		m.warned = true
		return SilenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceClear
	}
	return SilenceNone
}
