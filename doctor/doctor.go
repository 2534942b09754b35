// Package doctor runs an interactive end-to-end check of the microphone, the
// two remote services and the clipboard.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"quicktranslator/audio"
	"quicktranslator/lang"
	"quicktranslator/settings"
	"quicktranslator/transcriber"
	"quicktranslator/translator"
)

const clipboardProbe = "quicktranslator-doctor-test"

// Env carries everything the checks touch. The clipboard check is skipped
// when Copy or Read is nil.
type Env struct {
	Recorder           *audio.Recorder
	Transcriber        transcriber.Transcriber
	Translator         translator.Translator
	Settings           settings.Settings
	Pair               lang.Pair
	TranscriptionModel string
	Temperature        float64
	Timeout            time.Duration
	RecordFor          time.Duration
	Copy               func(string) error
	Read               func() (string, error)
	In                 io.Reader
	Out                io.Writer
}

type runner struct {
	env    Env
	in     *bufio.Reader
	apiKey string
	clip   audio.Clip
	text   string
}

// Run executes the checks in order, stopping at the first failure, and returns
// an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, env Env) int {
	if env.RecordFor <= 0 {
		env.RecordFor = 3 * time.Second
	}
	if env.Timeout <= 0 {
		env.Timeout = 30 * time.Second
	}
	r := &runner{env: env, in: bufio.NewReader(env.In)}

	r.println("quicktranslator doctor - interactive system diagnostics")
	r.println("=======================================================")

	checks := []func(context.Context) bool{
		r.checkAPIKey,
		r.checkMicrophone,
		r.checkTranscription,
		r.checkTranslation,
		r.checkClipboard,
	}
	allPass := true
	for _, check := range checks {
		if ctx.Err() != nil {
			r.println("\nInterrupted")
			allPass = false
			break
		}
		if !check(ctx) {
			allPass = false
			break
		}
	}

	r.println()
	if allPass {
		r.println("All checks passed!")
		return 0
	}
	r.println("Some checks failed. See details above.")
	return 1
}

func (r *runner) printf(format string, args ...any) { fmt.Fprintf(r.env.Out, format, args...) }
func (r *runner) println(args ...any)               { fmt.Fprintln(r.env.Out, args...) }

func (r *runner) readLine() string {
	line, _ := r.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (r *runner) checkAPIKey(_ context.Context) bool {
	r.println()
	r.println("[1/5] OpenAI API key")
	if r.env.Settings.HasAPIKey() {
		r.apiKey = r.env.Settings.APIKey
		r.println("  PASS: key found in settings")
		return true
	}
	r.printf("Enter OpenAI API key: ")
	r.apiKey = r.readLine()
	if r.apiKey == "" {
		r.println("  FAIL: API key required")
		return false
	}
	r.println("  PASS: key entered (not saved)")
	return true
}

func (r *runner) checkMicrophone(ctx context.Context) bool {
	r.println()
	r.println("[2/5] Microphone")
	if r.env.Recorder == nil {
		r.println("  FAIL: no audio input available")
		return false
	}

	r.printf("Press Enter and speak for %d seconds...", int(r.env.RecordFor.Seconds()))
	r.readLine()

	sess, err := r.env.Recorder.Start()
	if err != nil {
		r.printf("  FAIL: %v\n", err)
		return false
	}

	an := r.env.Recorder.Analyzer()
	peak := an.Level()
	r.printf("  Recording")
	ticker := time.NewTicker(r.env.RecordFor / 6)
	deadline := time.After(r.env.RecordFor)
loop:
	for {
		select {
		case <-ctx.Done():
			sess.Release()
			r.println()
			return false
		case <-ticker.C:
			peak = max(peak, an.Level())
			r.printf(".")
		case <-deadline:
			break loop
		}
	}
	ticker.Stop()
	peak = max(peak, an.Level())
	r.println(" done")

	clip, err := sess.Finalize()
	if err != nil {
		r.printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if len(clip.PCM) == 0 {
		r.println("  FAIL: no audio captured")
		return false
	}
	r.printf("  Recorded %.1f KB of %s (%d fragments), peak level %.3f\n",
		float64(len(clip.Data))/1024, clip.Format, clip.Fragments, peak)
	if peak < audio.SpeechLevel {
		r.println("  Warning: no voice detected, check the input device and its volume")
	}
	r.clip = clip
	r.println("  PASS: audio captured")
	return true
}

func (r *runner) checkTranscription(ctx context.Context) bool {
	r.println()
	r.printf("[3/5] Transcription (%s)\n", r.env.Transcriber.Name())

	cctx, cancel := context.WithTimeout(ctx, r.env.Timeout)
	defer cancel()
	start := time.Now()
	res, err := r.env.Transcriber.Transcribe(cctx, transcriber.Request{
		Audio:    r.clip.Data,
		Format:   r.clip.Format,
		Language: r.env.Pair.Source.Code(),
		Model:    r.env.TranscriptionModel,
		APIKey:   r.apiKey,
	})
	if err != nil {
		r.printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	r.text = strings.TrimSpace(res.Text)
	if r.text == "" {
		r.println("  FAIL: no speech detected")
		return false
	}
	r.printf("\n  Transcribed text (%s): %s\n\n", time.Since(start).Round(time.Millisecond), r.text)

	r.printf("Is this correct? [y/n]: ")
	confirm := strings.ToLower(r.readLine())
	if confirm == "y" || confirm == "yes" {
		r.println("  PASS: transcription verified by user")
		return true
	}
	r.println("  FAIL: transcription not confirmed")
	return false
}

func (r *runner) checkTranslation(ctx context.Context) bool {
	r.println()
	r.printf("[4/5] Translation (%s, %s > %s)\n", r.env.Settings.Model, r.env.Pair.Source, r.env.Pair.Target)

	cctx, cancel := context.WithTimeout(ctx, r.env.Timeout)
	defer cancel()
	res, err := r.env.Translator.Translate(cctx, translator.Request{
		Text:        r.text,
		Source:      string(r.env.Pair.Source),
		Target:      string(r.env.Pair.Target),
		Model:       string(r.env.Settings.Model),
		APIKey:      r.apiKey,
		Temperature: r.env.Temperature,
	})
	if err != nil {
		r.printf("  FAIL: translation error: %v\n", err)
		return false
	}
	out := strings.TrimSpace(res.Text)
	if out == "" {
		r.println("  FAIL: empty translation")
		return false
	}
	r.printf("  Translated text: %s\n", out)
	r.println("  PASS: translation received")
	return true
}

func (r *runner) checkClipboard(_ context.Context) bool {
	r.println()
	r.println("[5/5] Clipboard")
	if r.env.Copy == nil || r.env.Read == nil {
		r.println("  SKIP: clipboard not available")
		return true
	}

	if err := r.env.Copy(clipboardProbe); err != nil {
		r.printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := r.env.Read()
	if err != nil {
		r.printf("  FAIL: could not read clipboard: %v\n", err)
		return false
	}
	if got != clipboardProbe {
		r.printf("  FAIL: clipboard round trip (got %q, want %q)\n", got, clipboardProbe)
		return false
	}
	r.println("  PASS: clipboard round trip verified")
	return true
}
