package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func toneBytes(n int, bin int, amp float64) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amp * math.Sin(2*math.Pi*float64(bin)*float64(i)/FFTSize)
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(v*32767)))
	}
	return b
}

func TestAnalyzerSilence(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(make([]byte, FFTSize*2))
	for i, v := range a.Frequencies() {
		if v != 0 {
			t.Fatalf("bin %d = %d for silence", i, v)
		}
	}
	if a.Level() != 0 {
		t.Errorf("Level = %v for silence", a.Level())
	}
}

func TestAnalyzerPeaksAtToneBin(t *testing.T) {
	a := NewAnalyzer()
	const bin = 16
	var got []uint8
	for i := 0; i < 20; i++ {
		a.Feed(toneBytes(FFTSize, bin, 0.01))
		got = a.Frequencies()
	}
	if len(got) != Bins {
		t.Fatalf("len = %d, want %d", len(got), Bins)
	}
	peak := 0
	for i, v := range got {
		if v > got[peak] {
			peak = i
		}
	}
	if peak != bin {
		t.Errorf("peak at bin %d, want %d (%v)", peak, bin, got)
	}
	if got[bin] == 0 {
		t.Error("tone bin is zero")
	}
	if a.Level() < 0.006 || a.Level() > 0.008 {
		t.Errorf("Level = %v, want ~0.007", a.Level())
	}
}

func TestAnalyzerSmoothing(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(toneBytes(FFTSize, 8, 0.001))
	first := a.Frequencies()[8]
	var later uint8
	for i := 0; i < 10; i++ {
		later = a.Frequencies()[8]
	}
	if later <= first {
		t.Errorf("smoothed value should rise toward steady state: first=%d later=%d", first, later)
	}
	a.Reset()
	if v := a.Frequencies()[8]; v != 0 {
		t.Errorf("after Reset bin = %d", v)
	}
}

func TestToByte(t *testing.T) {
	if toByte(0) != 0 {
		t.Error("zero magnitude")
	}
	if toByte(1) != 255 {
		t.Error("full scale should clamp to 255")
	}
	if v := toByte(math.Pow(10, -65.0/20)); v < 126 || v > 128 {
		t.Errorf("-65dB = %d, want ~127", v)
	}
}
