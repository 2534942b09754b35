package doctor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"quicktranslator/audio"
	"quicktranslator/encoder"
	"quicktranslator/lang"
	"quicktranslator/settings"
	"quicktranslator/transcriber"
	"quicktranslator/translator"
)

func tone(seconds float64) []byte {
	n := int(seconds * encoder.SampleRate)
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/encoder.SampleRate)
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(v*32767)))
	}
	return b
}

type fixture struct {
	env   Env
	out   *bytes.Buffer
	stt   *transcriber.Fake
	mt    *translator.Fake
	board string
}

func newFixture(pcm []byte, input string) *fixture {
	f := &fixture{
		out: &bytes.Buffer{},
		stt: transcriber.NewFake("שלום עולם", nil),
		mt:  translator.NewFake("Hello world", nil),
	}
	s := settings.Defaults()
	s.APIKey = "sk-test"
	f.env = Env{
		Recorder:    audio.NewRecorder(audio.NewFakeContextPCM(pcm, false), nil, encoder.FormatFLAC),
		Transcriber: f.stt,
		Translator:  f.mt,
		Settings:    s,
		Pair:        lang.DefaultPair(),
		RecordFor:   60 * time.Millisecond,
		Copy:        func(s string) error { f.board = s; return nil },
		Read:        func() (string, error) { return f.board, nil },
		In:          strings.NewReader(input),
		Out:         f.out,
	}
	return f
}

func TestRunAllPass(t *testing.T) {
	f := newFixture(tone(0.5), "\ny\n")
	if code := Run(context.Background(), f.env); code != 0 {
		t.Fatalf("exit code = %d\n%s", code, f.out)
	}
	out := f.out.String()
	for _, want := range []string{"PASS: key found", "PASS: audio captured", "שלום עולם", "Hello world", "All checks passed!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "no voice detected") {
		t.Error("tone reported as silence")
	}

	calls := f.stt.Calls()
	if len(calls) != 1 || calls[0].Format != encoder.FormatFLAC || calls[0].Language != "he" {
		t.Errorf("transcribe calls = %+v", calls)
	}
	if mc := f.mt.Calls(); len(mc) != 1 || mc[0].Text != "שלום עולם" || mc[0].APIKey != "sk-test" {
		t.Errorf("translate calls = %+v", mc)
	}
	if f.board != clipboardProbe {
		t.Errorf("clipboard = %q", f.board)
	}
}

func TestRunPromptsForKey(t *testing.T) {
	f := newFixture(tone(0.5), "sk-typed\n\ny\n")
	f.env.Settings.APIKey = ""
	if code := Run(context.Background(), f.env); code != 0 {
		t.Fatalf("exit code = %d\n%s", code, f.out)
	}
	if calls := f.stt.Calls(); len(calls) != 1 || calls[0].APIKey != "sk-typed" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		setup func(f *fixture)
		want  string
	}{
		{"missing key", "\n", func(f *fixture) { f.env.Settings.APIKey = "" }, "FAIL: API key required"},
		{"no recorder", "\n", func(f *fixture) { f.env.Recorder = nil }, "FAIL: no audio input"},
		{"no audio", "\n", func(f *fixture) {
			f.env.Recorder = audio.NewRecorder(audio.NewFakeContextPCM(nil, false), nil, "")
		}, "FAIL: no audio captured"},
		{"transcription error", "\n", func(f *fixture) { f.stt.Set("", errors.New("boom")) }, "FAIL: transcription error"},
		{"blank transcript", "\n", func(f *fixture) { f.stt.Set("  ", nil) }, "FAIL: no speech detected"},
		{"not confirmed", "\nn\n", nil, "FAIL: transcription not confirmed"},
		{"translation error", "\ny\n", func(f *fixture) { f.mt.Set("", errors.New("quota")) }, "FAIL: translation error"},
		{"clipboard mismatch", "\ny\n", func(f *fixture) {
			f.env.Read = func() (string, error) { return "other", nil }
		}, "FAIL: clipboard round trip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tone(0.5), tt.input)
			if tt.setup != nil {
				tt.setup(f)
			}
			if code := Run(context.Background(), f.env); code != 1 {
				t.Fatalf("exit code = %d, want 1", code)
			}
			if !strings.Contains(f.out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, f.out)
			}
		})
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	f := newFixture(tone(0.5), "\n")
	f.env.Recorder = nil
	Run(context.Background(), f.env)
	if len(f.stt.Calls()) != 0 || len(f.mt.Calls()) != 0 {
		t.Error("later checks ran after a failure")
	}
}

func TestRunWarnsOnSilence(t *testing.T) {
	f := newFixture(make([]byte, 8000), "\ny\n")
	if code := Run(context.Background(), f.env); code != 0 {
		t.Fatalf("exit code = %d\n%s", code, f.out)
	}
	if !strings.Contains(f.out.String(), "no voice detected") {
		t.Error("silence warning missing")
	}
}

func TestRunSkipsClipboard(t *testing.T) {
	f := newFixture(tone(0.5), "\ny\n")
	f.env.Copy = nil
	if code := Run(context.Background(), f.env); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(f.out.String(), "SKIP: clipboard") {
		t.Error("clipboard skip not reported")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFixture(tone(0.5), "\ny\n")
	if code := Run(ctx, f.env); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(f.out.String(), "Interrupted") {
		t.Error("interrupt not reported")
	}
}
