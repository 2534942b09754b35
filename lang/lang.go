// Package lang holds the supported languages and the rules that keep a
// source/target pair valid.
package lang

import (
	"fmt"
	"strings"
)

type Language string

const (
	English Language = "English"
	Hebrew  Language = "Hebrew"
	Spanish Language = "Spanish"
	French  Language = "French"
	German  Language = "German"
	Italian Language = "Italian"
	Russian Language = "Russian"
	Arabic  Language = "Arabic"
)

// Distinguished is accepted as a source but never offered as a target.
const Distinguished = Hebrew

var All = []Language{English, Hebrew, Spanish, French, German, Italian, Russian, Arabic}

var codes = map[Language]string{
	English: "en",
	Hebrew:  "he",
	Spanish: "es",
	French:  "fr",
	German:  "de",
	Italian: "it",
	Russian: "ru",
	Arabic:  "ar",
}

// Code returns the ISO-639-1 code used as the transcription language hint.
func (l Language) Code() string { return codes[l] }

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool { return l == Hebrew || l == Arabic }

func (l Language) Valid() bool {
	_, ok := codes[l]
	return ok
}

func (l Language) String() string { return string(l) }

// Parse accepts a language name or its ISO code, case-insensitively.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for _, l := range All {
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, l.Code()) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

func Sources() []Language {
	out := make([]Language, len(All))
	copy(out, All)
	return out
}

// Targets lists the languages selectable as target for the given source.
func Targets(source Language) []Language {
	out := make([]Language, 0, len(All))
	for _, l := range All {
		if l == Distinguished || l == source {
			continue
		}
		out = append(out, l)
	}
	return out
}

type Pair struct {
	Source Language
	Target Language
}

func DefaultPair() Pair {
	return Pair{Source: Hebrew, Target: English}
}

func (p Pair) String() string { return string(p.Source) + ">" + string(p.Target) }

func (p Pair) Valid() bool {
	return p.Source.Valid() && p.Target.Valid() && p.Source != p.Target && p.Target != Distinguished
}

func fallbackTarget(source Language) Language {
	if source == English {
		return Spanish
	}
	return English
}

// Normalize reassigns the target when it collides with the source or is the
// distinguished language. An unknown source resets to the default pair.
func (p Pair) Normalize() Pair {
	if !p.Source.Valid() {
		return DefaultPair()
	}
	if !p.Target.Valid() || p.Target == p.Source || p.Target == Distinguished {
		p.Target = fallbackTarget(p.Source)
	}
	return p
}

func (p Pair) WithSource(l Language) Pair {
	p.Source = l
	return p.Normalize()
}

func (p Pair) WithTarget(l Language) Pair {
	p.Target = l
	return p.Normalize()
}

func (p Pair) CanSwap() bool {
	return p.Source != Distinguished && p.Target != Distinguished
}

// Swap exchanges source and target. The second return is false and the pair
// is unchanged when either side is the distinguished language.
func (p Pair) Swap() (Pair, bool) {
	if !p.CanSwap() {
		return p, false
	}
	return Pair{Source: p.Target, Target: p.Source}.Normalize(), true
}

// NextSource cycles the source forward through All.
func (p Pair) NextSource() Pair {
	return p.WithSource(next(All, p.Source))
}

// NextTarget cycles the target forward through the allowed targets.
func (p Pair) NextTarget() Pair {
	return p.WithTarget(next(Targets(p.Source), p.Target))
}

func next(list []Language, cur Language) Language {
	for i, l := range list {
		if l == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}
