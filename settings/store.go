package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quicktranslator/log"
)

// ErrNotFound is returned by a Backend for a key it has never stored.
var ErrNotFound = errors.New("setting not found")

type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Store reads and writes preferences through a Backend. If the backend
// fails, the store logs once and keeps serving from memory for the rest of
// the process; callers never see the failure.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	mem      map[string]string
	degraded bool
}

func NewStore(b Backend) *Store {
	s := &Store{backend: b, mem: make(map[string]string)}
	if b == nil {
		s.degraded = true
	}
	return s
}

// Open opens the SQLite store at path, falling back to a memory-only store
// when the file cannot be opened.
func Open(ctx context.Context, path string) *Store {
	b, err := OpenSQLite(ctx, path)
	if err != nil {
		log.Warnf("preference store unavailable, keeping settings in memory: %v", err)
		return NewStore(nil)
	}
	return NewStore(b)
}

// Degraded reports whether the store has fallen back to memory.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) degrade(err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	log.Warnf("preference store failed, keeping settings in memory: %v", err)
}

// Get returns the stored value for key, or its default.
func (s *Store) Get(ctx context.Context, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.mem[key]; ok {
		return v
	}
	if !s.degraded {
		v, err := s.backend.Get(ctx, key)
		switch {
		case err == nil:
			return v
		case errors.Is(err, ErrNotFound):
		default:
			s.degrade(err)
		}
	}
	return defaultValue(key)
}

func (s *Store) Set(ctx context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = value
	if s.degraded {
		return
	}
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.degrade(err)
	}
}

// Load reads every preference and returns normalized Settings.
func (s *Store) Load(ctx context.Context) Settings {
	out := Defaults()
	for _, k := range Keys {
		out.apply(k, s.Get(ctx, k))
	}
	return out.Normalize()
}

// Save normalizes and persists st wholesale, returning what was stored.
func (s *Store) Save(ctx context.Context, st Settings) Settings {
	st = st.Normalize()
	enc := st.encode()
	for _, k := range Keys {
		s.Set(ctx, k, enc[k])
	}
	return st
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	s.degraded = true
	if err != nil {
		return fmt.Errorf("close preference store: %w", err)
	}
	return nil
}
