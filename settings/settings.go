// Package settings holds the user preferences and the store that persists
// them between runs.
package settings

import (
	"strconv"
	"strings"
	"time"
)

type Model string

const (
	GPT4o     Model = "gpt-4o"
	GPT4oMini Model = "gpt-4o-mini"
)

var Models = []Model{GPT4o, GPT4oMini}

func (m Model) Valid() bool {
	for _, v := range Models {
		if m == v {
			return true
		}
	}
	return false
}

// Next cycles through Models, used by the settings form.
func (m Model) Next(step int) Model {
	idx := 0
	for i, v := range Models {
		if v == m {
			idx = i
		}
	}
	n := len(Models)
	return Models[((idx+step)%n+n)%n]
}

const (
	MinTimeLimit     = 1
	MaxTimeLimit     = 30
	DefaultTimeLimit = 5
)

// Persisted keys.
const (
	KeyModel               = "model"
	KeyLowercaseOutput     = "lowercaseOutput"
	KeyAPIKey              = "apiKey"
	KeyEditBeforeTranslate = "editBeforeTranslate"
	KeyTimeLimit           = "recordingTimeLimitMinutes"
)

var Keys = []string{KeyModel, KeyLowercaseOutput, KeyAPIKey, KeyEditBeforeTranslate, KeyTimeLimit}

type Settings struct {
	Model                     Model
	LowercaseOutput           bool
	APIKey                    string
	EditBeforeTranslate       bool
	RecordingTimeLimitMinutes int
}

func Defaults() Settings {
	return Settings{
		Model:                     GPT4o,
		RecordingTimeLimitMinutes: DefaultTimeLimit,
	}
}

// Normalize clamps the time limit into [MinTimeLimit, MaxTimeLimit] and
// resets an unknown model to the default.
func (s Settings) Normalize() Settings {
	if !s.Model.Valid() {
		s.Model = GPT4o
	}
	s.RecordingTimeLimitMinutes = ClampTimeLimit(s.RecordingTimeLimitMinutes)
	s.APIKey = strings.TrimSpace(s.APIKey)
	return s
}

func ClampTimeLimit(n int) int {
	switch {
	case n < MinTimeLimit:
		return MinTimeLimit
	case n > MaxTimeLimit:
		return MaxTimeLimit
	}
	return n
}

// ParseTimeLimit turns user or stored text into a limit. Non-numeric input
// and zero yield DefaultTimeLimit; other numbers are clamped.
func ParseTimeLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return DefaultTimeLimit
	}
	return ClampTimeLimit(n)
}

func (s Settings) TimeLimit() time.Duration {
	return time.Duration(ClampTimeLimit(s.RecordingTimeLimitMinutes)) * time.Minute
}

func (s Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

func (s Settings) encode() map[string]string {
	return map[string]string{
		KeyModel:               string(s.Model),
		KeyLowercaseOutput:     strconv.FormatBool(s.LowercaseOutput),
		KeyAPIKey:              s.APIKey,
		KeyEditBeforeTranslate: strconv.FormatBool(s.EditBeforeTranslate),
		KeyTimeLimit:           strconv.Itoa(s.RecordingTimeLimitMinutes),
	}
}

func (s *Settings) apply(key, value string) {
	switch key {
	case KeyModel:
		s.Model = Model(value)
	case KeyLowercaseOutput:
		s.LowercaseOutput = value == "true"
	case KeyAPIKey:
		s.APIKey = value
	case KeyEditBeforeTranslate:
		s.EditBeforeTranslate = value == "true"
	case KeyTimeLimit:
		s.RecordingTimeLimitMinutes = ParseTimeLimit(value)
	}
}

func defaultValue(key string) string {
	return Defaults().encode()[key]
}
