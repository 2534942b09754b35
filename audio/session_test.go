package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"quicktranslator/encoder"
)

func pcmOf(vals ...int16) []byte {
	b := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func TestSessionFinalizeKeepsFragmentOrder(t *testing.T) {
	fctx := NewFakeContextPCM(nil, false)
	rec := NewRecorder(fctx, nil, encoder.FormatWAV)

	s, err := rec.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	capDev := fctx.Captures()[0]

	frags := [][]byte{pcmOf(1, 2, 3), pcmOf(4), pcmOf(5, 6, 7, 8, 9), pcmOf(10, 11)}
	var want []byte
	for _, f := range frags {
		capDev.Emit(f)
		want = append(want, f...)
	}

	clip, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if clip.Fragments != len(frags) {
		t.Errorf("Fragments = %d, want %d", clip.Fragments, len(frags))
	}
	if !bytes.Equal(clip.PCM, want) {
		t.Errorf("PCM = %v, want %v", clip.PCM, want)
	}
	if !bytes.Equal(clip.Data[WAVHeaderSize:], want) {
		t.Errorf("encoded payload differs from buffered fragments")
	}
	if clip.Format != encoder.FormatWAV || clip.SessionID != s.ID() {
		t.Errorf("unexpected clip metadata %+v", clip)
	}
}

func TestSessionDropsFragmentsAfterFinalize(t *testing.T) {
	fctx := NewFakeContextPCM(nil, false)
	s, err := NewRecorder(fctx, nil, encoder.FormatWAV).Start()
	if err != nil {
		t.Fatal(err)
	}
	capDev := fctx.Captures()[0]
	capDev.Emit(pcmOf(1))
	if _, err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	// the callback is cleared on release; call the session directly
	s.append(pcmOf(2), 1)
	if s.Fragments() != 0 {
		t.Errorf("late fragment buffered")
	}
	if _, err := s.Finalize(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second Finalize err = %v, want ErrSessionClosed", err)
	}
}

func TestSessionReleasesDeviceOnce(t *testing.T) {
	tests := []struct {
		name string
		end  func(s *Session)
	}{
		{"finalize", func(s *Session) { s.Finalize() }},
		{"release", func(s *Session) { s.Release() }},
		{"finalize then release", func(s *Session) { s.Finalize(); s.Release() }},
		{"release then finalize", func(s *Session) { s.Release(); s.Finalize() }},
		{"concurrent", func(s *Session) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%2 == 0 {
						s.Release()
					} else {
						s.Finalize()
					}
				}(i)
			}
			wg.Wait()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fctx := NewFakeContextPCM(pcmOf(1, 2, 3, 4), false)
			s, err := NewRecorder(fctx, nil, encoder.FormatFLAC).Start()
			if err != nil {
				t.Fatal(err)
			}
			tt.end(s)
			capDev := fctx.Captures()[0]
			if capDev.Closes() != 1 || capDev.Stops() != 1 {
				t.Errorf("stops=%d closes=%d, want 1/1", capDev.Stops(), capDev.Closes())
			}
		})
	}
}

func TestSessionReleaseDiscardsAudio(t *testing.T) {
	fctx := NewFakeContextPCM(pcmOf(1, 2, 3, 4), false)
	s, err := NewRecorder(fctx, nil, encoder.FormatFLAC).Start()
	if err != nil {
		t.Fatal(err)
	}
	if s.Fragments() == 0 {
		t.Fatal("burst fake delivered nothing")
	}
	s.Release()
	if s.Fragments() != 0 {
		t.Errorf("Release kept %d fragments", s.Fragments())
	}
}

func TestRecorderStartFailure(t *testing.T) {
	fctx := NewFakeContextPCM(nil, false)
	fctx.StartErr = errors.New("permission denied")

	s, err := NewRecorder(fctx, nil, "").Start()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
	if s != nil {
		t.Error("expected nil session")
	}
	capDev := fctx.Captures()[0]
	if capDev.Closes() != 1 {
		t.Errorf("device not released after failed start, closes=%d", capDev.Closes())
	}
}

func TestClipDuration(t *testing.T) {
	pcm := make([]byte, encoder.SampleRate*2) // one second
	fctx := NewFakeContextPCM(pcm, false)
	s, err := NewRecorder(fctx, nil, encoder.FormatFLAC).Start()
	if err != nil {
		t.Fatal(err)
	}
	clip, err := s.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if clip.Duration.Seconds() != 1 {
		t.Errorf("Duration = %v, want 1s", clip.Duration)
	}
	if string(clip.Data[:4]) != "fLaC" {
		t.Error("expected FLAC output")
	}
}
