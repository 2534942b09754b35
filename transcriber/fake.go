package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// Fake returns a fixed text or error and records every request.
type Fake struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []Request
	block chan struct{}
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }
func (f *Fake) Warm()        {}

// Block makes Transcribe wait until the returned func is called.
func (f *Fake) Block() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.block = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *Fake) Set(text string, err error) {
	f.mu.Lock()
	f.text, f.err = text, err
	f.mu.Unlock()
}

func (f *Fake) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	text, err := f.text, f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fake transcriber error: %w", err)
	}
	return &Result{Text: text, Metrics: &NetworkMetrics{}}, nil
}
