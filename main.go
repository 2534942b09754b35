package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"quicktranslator/audio"
	"quicktranslator/beep"
	"quicktranslator/clipboard"
	"quicktranslator/config"
	"quicktranslator/doctor"
	"quicktranslator/lang"
	"quicktranslator/log"
	"quicktranslator/settings"
	"quicktranslator/shutdown"
	"quicktranslator/transcriber"
	"quicktranslator/translator"
	"quicktranslator/workflow"
)

var version = "dev"

type options struct {
	configPath string
	logPath    string
	device     string
	format     string
	wav        string
	source     string
	target     string
	setup      bool
	script     bool
	doctor     bool
	version    bool
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("quicktranslator", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.StringVar(&o.device, "device", "", "Use named microphone device")
	fs.StringVar(&o.format, "format", "", "Audio upload format: flac or wav")
	fs.StringVar(&o.wav, "wav", "", "WAV file replayed as microphone input in -script mode")
	fs.StringVar(&o.source, "source", "", "Initial source language")
	fs.StringVar(&o.target, "target", "", "Initial target language")
	fs.BoolVar(&o.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.BoolVar(&o.script, "script", false, "Headless mode: read commands from stdin")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics (microphone, services, clipboard) and exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.script && o.wav == "" {
		return o, errors.New("-script requires -wav")
	}
	return o, nil
}

func applyFlags(cfg *config.Config, o options) {
	if o.device != "" {
		cfg.Audio.Device = o.device
	}
	if o.format != "" {
		cfg.Audio.Format = o.format
	}
	if o.logPath != "" {
		cfg.Log.Dir = o.logPath
	}
	if o.source != "" {
		cfg.UI.DefaultSource = o.source
	}
	if o.target != "" {
		cfg.UI.DefaultTarget = o.target
	}
}

func startPair(cfg config.Config) (lang.Pair, error) {
	src, err := lang.Parse(cfg.UI.DefaultSource)
	if err != nil {
		return lang.Pair{}, fmt.Errorf("source language: %w", err)
	}
	tgt, err := lang.Parse(cfg.UI.DefaultTarget)
	if err != nil {
		return lang.Pair{}, fmt.Errorf("target language: %w", err)
	}
	return lang.Pair{Source: src, Target: tgt}.Normalize(), nil
}

// loadSettings reads stored preferences. OPENAI_API_KEY fills in a missing
// key for this process without being written back.
func loadSettings(ctx context.Context, store *settings.Store) settings.Settings {
	s := store.Load(ctx)
	if !s.HasAPIKey() {
		s.APIKey = os.Getenv("OPENAI_API_KEY")
		s = s.Normalize()
	}
	return s
}

func chooseDevice(actx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		dev, err := audio.FindDevice(actx, name)
		if err != nil {
			log.Warnf("device %q not found, using system default: %v", name, err)
			return nil, nil
		}
		return dev, nil
	}
	if !setup {
		return nil, nil
	}
	dev, err := audio.SelectDevice(actx)
	if errors.Is(err, audio.ErrPickerCancelled) {
		return nil, err
	}
	if err != nil {
		log.Warnf("device selection failed: %v", err)
		fmt.Printf("Warning: device selection failed: %v\n", err)
		fmt.Println("Falling back to default device")
		return nil, nil
	}
	return dev, nil
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func callTimeout(cfg config.Config) time.Duration {
	return max(cfg.Transcription.Timeout(), cfg.Translation.Timeout())
}

func initCrashLog() {
	path := filepath.Join(log.Dir(), "crash_log.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

// resultCounter counts translations shown during the session.
type resultCounter struct {
	next workflow.Sink
	n    atomic.Int64
	last workflow.State
}

func (c *resultCounter) Publish(s workflow.Snapshot) {
	if s.State == workflow.ShowingResult && c.last != workflow.ShowingResult {
		c.n.Add(1)
	}
	c.last = s.State
	c.next.Publish(s)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts.version {
		fmt.Printf("quicktranslator %s\n", version)
		return 0
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(&cfg, opts)

	logPath, err := log.ResolveDir(cfg.Log.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	pair, err := startPair(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	stt, err := transcriber.New(cfg.Transcription.Provider, cfg.Transcription.URL, cfg.Transcription.Model, cfg.Transcription.Timeout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	mt := translator.NewOpenAI(cfg.Translation.URL, cfg.Translation.Timeout())

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	store := settings.Open(ctx, cfg.SettingsPath())
	defer store.Close()
	prefs := loadSettings(ctx, store)

	if !cfg.UI.Beep {
		beep.Disable()
	}

	if opts.script {
		return runScript(ctx, scriptEnv{
			cfg:      cfg,
			wav:      opts.wav,
			pair:     pair,
			settings: prefs,
			stt:      stt,
			mt:       mt,
			in:       os.Stdin,
			out:      os.Stdout,
		})
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		return 1
	}
	defer actx.Close()

	dev, err := chooseDevice(actx, cfg.Audio.Device, opts.setup)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	rec := audio.NewRecorder(actx, dev, cfg.Audio.Format)

	if opts.doctor {
		return doctor.Run(ctx, doctor.Env{
			Recorder:           rec,
			Transcriber:        stt,
			Translator:         mt,
			Settings:           prefs,
			Pair:               pair,
			TranscriptionModel: cfg.Transcription.Model,
			Temperature:        cfg.Translation.Temperature,
			Timeout:            callTimeout(cfg),
			Copy:               clipboard.Copy,
			Read:               clipboard.Read,
			In:                 os.Stdin,
			Out:                os.Stdout,
		})
	}

	go stt.Warm()

	sink := newProgramSink()
	defer sink.close()
	counter := &resultCounter{next: newCueSink(sink)}
	ctrl := workflow.New(workflow.Deps{
		Recorder:           workflow.FromAudio(rec),
		Transcriber:        stt,
		Translator:         mt,
		Sink:               counter,
		TranscriptionModel: cfg.Transcription.Model,
		Temperature:        cfg.Translation.Temperature,
		CallTimeout:        callTimeout(cfg),
	})
	defer ctrl.Close()

	log.SessionStart(stt.Name(), rec.Format(), deviceLineText(dev))
	defer func() { log.SessionEnd(int(counter.n.Load())) }()

	p := NewTUIProgram(tuiDeps{
		ctrl:     ctrl,
		store:    store,
		analyzer: rec.Analyzer(),
		settings: prefs,
		pair:     pair,
		frame:    cfg.UI.FrameInterval(),
		status:   fmt.Sprintf("[%s | %s] %s", rec.Format(), stt.Name(), deviceLineText(dev)),
	})
	sink.attach(p.Send)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
