package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Model != GPT4o || d.LowercaseOutput || d.APIKey != "" || d.EditBeforeTranslate || d.RecordingTimeLimitMinutes != 5 {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.TimeLimit() != 5*time.Minute {
		t.Errorf("TimeLimit() = %v", d.TimeLimit())
	}
}

func TestParseTimeLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"5", 5},
		{"1", 1},
		{"30", 30},
		{"0", 5},
		{"00", 5},
		{"-4", 1},
		{"31", 30},
		{"999", 30},
		{"abc", 5},
		{"", 5},
		{" 12 ", 12},
	}
	for _, tt := range tests {
		if got := ParseTimeLimit(tt.in); got != tt.want {
			t.Errorf("ParseTimeLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	s := Settings{Model: "gpt-99", RecordingTimeLimitMinutes: 45, APIKey: "  sk-x "}.Normalize()
	if s.Model != GPT4o {
		t.Errorf("model = %q, want %q", s.Model, GPT4o)
	}
	if s.RecordingTimeLimitMinutes != 30 {
		t.Errorf("limit = %d, want 30", s.RecordingTimeLimitMinutes)
	}
	if s.APIKey != "sk-x" {
		t.Errorf("apiKey = %q", s.APIKey)
	}
}

func TestModelNext(t *testing.T) {
	if GPT4o.Next(1) != GPT4oMini || GPT4oMini.Next(1) != GPT4o || GPT4o.Next(-1) != GPT4oMini {
		t.Error("model cycling broken")
	}
}

func TestStoreDefaultsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	st := NewStore(NewMemory())
	if got := st.Load(ctx); got != Defaults() {
		t.Errorf("Load() = %+v, want defaults", got)
	}
	if got := st.Get(ctx, KeyTimeLimit); got != "5" {
		t.Errorf("Get(limit) = %q", got)
	}
}

func TestSQLiteRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs", "settings.db")

	st := Open(ctx, path)
	if st.Degraded() {
		t.Fatal("store degraded on a writable path")
	}
	want := Settings{
		Model:                     GPT4oMini,
		LowercaseOutput:           true,
		APIKey:                    "sk-test",
		EditBeforeTranslate:       true,
		RecordingTimeLimitMinutes: 12,
	}
	if got := st.Save(ctx, want); got != want {
		t.Errorf("Save() = %+v", got)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st = Open(ctx, path)
	defer st.Close()
	if got := st.Load(ctx); got != want {
		t.Errorf("reloaded %+v, want %+v", got, want)
	}

	// overwrite an existing key
	st.Set(ctx, KeyModel, string(GPT4o))
	if got := st.Load(ctx).Model; got != GPT4o {
		t.Errorf("model after overwrite = %q", got)
	}
}

func TestStoreClampsStoredGarbage(t *testing.T) {
	ctx := context.Background()
	st := NewStore(NewMemory())
	st.Set(ctx, KeyTimeLimit, "120")
	st.Set(ctx, KeyModel, "unknown")
	got := st.Load(ctx)
	if got.RecordingTimeLimitMinutes != 30 || got.Model != GPT4o {
		t.Errorf("Load() = %+v", got)
	}
}

type failingBackend struct {
	sets int
}

func (f *failingBackend) Get(context.Context, string) (string, error) {
	return "", errors.New("disk gone")
}

func (f *failingBackend) Set(context.Context, string, string) error {
	f.sets++
	return errors.New("disk gone")
}

func (f *failingBackend) Close() error { return nil }

func TestStoreDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	fb := &failingBackend{}
	st := NewStore(fb)

	if got := st.Get(ctx, KeyAPIKey); got != "" {
		t.Errorf("Get on failing backend = %q, want default", got)
	}
	if !st.Degraded() {
		t.Fatal("expected degraded store after backend error")
	}

	saved := st.Save(ctx, Settings{Model: GPT4oMini, APIKey: "k", RecordingTimeLimitMinutes: 3})
	if fb.sets != 0 {
		t.Errorf("degraded store still wrote to backend %d times", fb.sets)
	}
	if got := st.Load(ctx); got != saved {
		t.Errorf("memory copy lost: %+v, want %+v", got, saved)
	}
}

func TestOpenUnwritablePathFallsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// a regular file where the parent directory should be
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := Open(ctx, filepath.Join(blocker, "settings.db"))
	if !st.Degraded() {
		t.Fatal("expected memory-only store")
	}
	st.Set(ctx, KeyLowercaseOutput, "true")
	if !st.Load(ctx).LowercaseOutput {
		t.Error("memory-only store did not keep the value")
	}
}
