package audio

import (
	"encoding/binary"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	FFTSize   = 128
	Bins      = FFTSize / 2
	smoothing = 0.8
	minDB     = -100.0
	maxDB     = -30.0
)

// Analyzer turns the most recent PCM window into byte-scaled frequency
// magnitudes for display. It is fed from the capture callback and read from
// the render loop; it never owns the capture device.
type Analyzer struct {
	mu       sync.Mutex
	fft      *fourier.FFT
	ring     []float64
	pos      int
	smoothed []float64
	level    float64
	scratch  []float64
	coeffs   []complex128
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		fft:      fourier.NewFFT(FFTSize),
		ring:     make([]float64, FFTSize),
		smoothed: make([]float64, Bins),
		scratch:  make([]float64, FFTSize),
	}
}

// Feed appends little-endian 16-bit samples to the analysis window.
func (a *Analyzer) Feed(data []byte) {
	n := len(data) / 2
	if n == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var sumSq float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
		sumSq += v * v
		a.ring[a.pos] = v
		a.pos = (a.pos + 1) % FFTSize
	}
	a.level = math.Sqrt(sumSq / float64(n))
}

// Level is the RMS of the last fed chunk, in [0, 1].
func (a *Analyzer) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

// Frequencies returns Bins magnitudes scaled to 0..255 between minDB and
// maxDB, with exponential smoothing across calls.
func (a *Analyzer) Frequencies() []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.scratch {
		a.scratch[i] = a.ring[(a.pos+i)%FFTSize]
	}
	window.Blackman(a.scratch)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.scratch)

	out := make([]uint8, Bins)
	for i := 0; i < Bins; i++ {
		mag := cmplx.Abs(a.coeffs[i]) / FFTSize
		a.smoothed[i] = smoothing*a.smoothed[i] + (1-smoothing)*mag
		out[i] = toByte(a.smoothed[i])
	}
	return out
}

// Reset clears history between sessions.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.ring {
		a.ring[i] = 0
	}
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
	a.pos = 0
	a.level = 0
}

func toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDB) / (maxDB - minDB)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	}
	return uint8(scaled)
}
