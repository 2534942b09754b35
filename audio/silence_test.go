package audio

import (
	"testing"
	"time"
)

func newMonitor() *SilenceMonitor {
	return NewSilenceMonitor(100*time.Millisecond, 8*time.Second)
}

func feedN(m *SilenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfterWindow(t *testing.T) {
	m := newMonitor()
	// 79 ticks of silence, no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
	if !m.Warned() {
		t.Error("Warned() = false after warning")
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := newMonitor()
	feedN(m, false, 80)

	// sustained speech clears the warning once 25% of the window has voice
	for i := 0; i < 80; i++ {
		if m.Tick(true) == SilenceClear {
			if i != 19 {
				t.Errorf("cleared after %d speech ticks, want 20", i+1)
			}
			return
		}
	}
	t.Fatal("expected SilenceClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestWarnOnlyOnce(t *testing.T) {
	m := newMonitor()
	warns := 0
	for i := 0; i < 300; i++ {
		if m.Tick(false) == SilenceWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 SilenceWarn, got %d", warns)
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := newMonitor()
	feedN(m, false, 80)

	// occasional false positives (< 25% speech) must not clear
	for i := 0; i < 80; i++ {
		if m.Tick(i%10 == 0) == SilenceClear {
			t.Fatalf("cleared with 10%% speech at tick %d", i)
		}
	}
}

func TestSilenceMonitorDegenerateWindow(t *testing.T) {
	m := NewSilenceMonitor(0, 0)
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Errorf("single-tick window: got %d, want SilenceWarn", ev)
	}
	if ev := m.Tick(true); ev != SilenceClear {
		t.Errorf("single-tick window: got %d, want SilenceClear", ev)
	}
}
