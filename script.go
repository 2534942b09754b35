package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"quicktranslator/audio"
	"quicktranslator/beep"
	"quicktranslator/config"
	"quicktranslator/lang"
	"quicktranslator/log"
	"quicktranslator/settings"
	"quicktranslator/transcriber"
	"quicktranslator/translator"
	"quicktranslator/workflow"
)

type scriptEnv struct {
	cfg      config.Config
	wav      string
	pair     lang.Pair
	settings settings.Settings
	stt      transcriber.Transcriber
	mt       translator.Translator
	in       io.Reader
	out      io.Writer
}

// scriptRunner drives a controller from line commands, replaying a WAV file
// as the microphone. Every published snapshot is printed as one line.
type scriptRunner struct {
	ctrl  *workflow.Controller
	store *settings.Store
	pair  lang.Pair

	outMu sync.Mutex
	out   io.Writer
}

func (s *scriptRunner) Publish(snap workflow.Snapshot) {
	s.printf("state=%s input=%q output=%q error=%q\n", snap.State, snap.Input, snap.Result.Text, snap.Message)
}

func (s *scriptRunner) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *scriptRunner) params(ctx context.Context) workflow.Params {
	return workflow.Params{Settings: s.store.Load(ctx), Pair: s.pair}
}

func runScript(ctx context.Context, env scriptEnv) int {
	beep.Disable()

	fctx, err := audio.NewFakeContext(env.wav, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}
	rec := audio.NewRecorder(fctx, nil, env.cfg.Audio.Format)

	store := settings.NewStore(settings.NewMemory())
	store.Save(ctx, env.settings)

	s := &scriptRunner{store: store, pair: env.pair, out: env.out}
	s.ctrl = workflow.New(workflow.Deps{
		Recorder:           workflow.FromAudio(rec),
		Transcriber:        env.stt,
		Translator:         env.mt,
		Sink:               s,
		TranscriptionModel: env.cfg.Transcription.Model,
		Temperature:        env.cfg.Translation.Temperature,
		CallTimeout:        callTimeout(env.cfg),
	})

	log.SessionStart(env.stt.Name(), rec.Format(), "fake:"+env.wav)
	err = s.run(ctx, env.in)
	s.ctrl.Wait()
	s.ctrl.Close()
	log.SessionEnd(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (s *scriptRunner) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if cmd == "QUIT" {
			return nil
		}
		if !s.exec(ctx, cmd, arg) {
			s.printf("refused %s\n", line)
		}
	}
	return scanner.Err()
}

// exec runs one command and reports whether it was accepted.
func (s *scriptRunner) exec(ctx context.Context, cmd, arg string) bool {
	switch cmd {
	case "START":
		return s.ctrl.Start(s.params(ctx))
	case "STOP":
		return s.ctrl.Stop(s.params(ctx))
	case "WAIT":
		s.ctrl.Wait()
	case "TRANSLATE":
		return s.ctrl.Translate(arg, s.params(ctx))
	case "SUBMIT":
		return s.ctrl.SubmitEdited(arg, s.params(ctx))
	case "DISCARD":
		return s.ctrl.Discard()
	case "RESET":
		s.ctrl.Reset()
	case "SOURCE", "TARGET":
		l, err := lang.Parse(arg)
		if err != nil {
			return false
		}
		if cmd == "SOURCE" {
			s.pair = s.pair.WithSource(l)
		} else {
			s.pair = s.pair.WithTarget(l)
		}
		s.printf("pair=%s\n", s.pair)
	case "SWAP":
		p, ok := s.pair.Swap()
		if !ok {
			return false
		}
		s.pair = p
		s.printf("pair=%s\n", s.pair)
		s.ctrl.Reset()
	case "SET":
		k, v, _ := strings.Cut(arg, " ")
		if !slices.Contains(settings.Keys, k) {
			return false
		}
		s.store.Set(ctx, k, strings.TrimSpace(v))
	case "SLEEP":
		ms, err := strconv.Atoi(arg)
		if err != nil {
			return false
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	default:
		return false
	}
	return true
}
