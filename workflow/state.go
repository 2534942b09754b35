package workflow

import (
	"errors"
	"time"

	"quicktranslator/lang"
	"quicktranslator/settings"
)

type State int

const (
	Idle State = iota
	Recording
	AwaitingTranscription
	ReviewingTranscript
	AwaitingTranslation
	ShowingResult
	Error
)

var stateNames = [...]string{
	Idle:                  "Idle",
	Recording:             "Recording",
	AwaitingTranscription: "AwaitingTranscription",
	ReviewingTranscript:   "ReviewingTranscript",
	AwaitingTranslation:   "AwaitingTranslation",
	ShowingResult:         "ShowingResult",
	Error:                 "Error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Failure reasons carried by the Error state. Match with errors.Is.
var (
	ErrPermissionDenied    = errors.New("microphone permission denied")
	ErrDurationExceeded    = errors.New("recording duration exceeded")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrTranslationFailed   = errors.New("translation failed")
)

// Params carries the caller's current preferences into each operation. The
// controller never reads settings from anywhere else.
type Params struct {
	Settings settings.Settings
	Pair     lang.Pair
}

type Draft struct {
	Text     string
	Editable bool
}

type Result struct {
	Text           string
	NormalizedCase bool
}

// Snapshot is the controller state after one transition. Seq increases by
// one per published snapshot.
type Snapshot struct {
	Seq              uint64
	State            State
	Input            string
	Draft            Draft
	Result           Result
	Err              error
	Message          string
	Notice           string
	RecordingStarted time.Time
	TimeLimit        time.Duration
	Busy             bool
}

// Sink receives every snapshot in Seq order. Publish runs on the goroutine
// that caused the transition and must not call back into the Controller.
type Sink interface {
	Publish(Snapshot)
}

type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(s Snapshot) { f(s) }
