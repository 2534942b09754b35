package lang

import "testing"

func TestTargetsExcludeSourceAndDistinguished(t *testing.T) {
	for _, src := range All {
		for _, tgt := range Targets(src) {
			if tgt == src {
				t.Errorf("Targets(%s) contains the source", src)
			}
			if tgt == Distinguished {
				t.Errorf("Targets(%s) contains %s", src, Distinguished)
			}
		}
	}
	if got := len(Targets(English)); got != len(All)-2 {
		t.Errorf("Targets(English) has %d entries, want %d", got, len(All)-2)
	}
	if got := len(Targets(Hebrew)); got != len(All)-1 {
		t.Errorf("Targets(Hebrew) has %d entries, want %d", got, len(All)-1)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pair
		want Pair
	}{
		{"valid", Pair{Hebrew, English}, Pair{Hebrew, English}},
		{"collision english", Pair{English, English}, Pair{English, Spanish}},
		{"collision french", Pair{French, French}, Pair{French, English}},
		{"hebrew target", Pair{Spanish, Hebrew}, Pair{Spanish, English}},
		{"hebrew target from english", Pair{English, Hebrew}, Pair{English, Spanish}},
		{"unknown target", Pair{German, "Klingon"}, Pair{German, English}},
		{"unknown source", Pair{"Klingon", German}, DefaultPair()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// Every reachable pair must stay valid whatever sequence of changes is applied.
func TestPairInvariantAcrossChanges(t *testing.T) {
	p := DefaultPair()
	check := func(op string) {
		t.Helper()
		if !p.Valid() {
			t.Fatalf("after %s: invalid pair %v", op, p)
		}
	}
	check("default")
	for _, src := range All {
		for _, tgt := range All {
			p = p.WithSource(src)
			check("WithSource " + string(src))
			p = p.WithTarget(tgt)
			check("WithTarget " + string(tgt))
			p, _ = p.Swap()
			check("Swap")
			p = p.NextTarget()
			check("NextTarget")
			p = p.NextSource()
			check("NextSource")
		}
	}
}

func TestSwap(t *testing.T) {
	p := Pair{English, French}
	got, ok := p.Swap()
	if !ok || got != (Pair{French, English}) {
		t.Errorf("Swap(%v) = %v, %v", p, got, ok)
	}

	for _, p := range []Pair{{Hebrew, English}, {Arabic, Russian}} {
		got, ok := p.Swap()
		if p.Source == Hebrew {
			if ok || got != p {
				t.Errorf("Swap(%v) should be refused, got %v, %v", p, got, ok)
			}
			continue
		}
		if !ok {
			t.Errorf("Swap(%v) refused", p)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		err  bool
	}{
		{"english", English, false},
		{"HE", Hebrew, false},
		{" Arabic ", Arabic, false},
		{"xx", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("Parse(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRTL(t *testing.T) {
	if !Hebrew.RTL() || !Arabic.RTL() || English.RTL() {
		t.Error("unexpected RTL classification")
	}
}
