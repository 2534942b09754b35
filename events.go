package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"quicktranslator/beep"
	"quicktranslator/workflow"
)

// snapshotMsg carries a controller snapshot into the Bubble Tea loop.
type snapshotMsg workflow.Snapshot

// programSink forwards snapshots to a running program in publication order.
// Publish only queues, since it may run on the program loop itself; one
// goroutine drains the queue into send. Snapshots published before attach
// wait in the queue.
type programSink struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []workflow.Snapshot
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newProgramSink() *programSink {
	return &programSink{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// attach starts delivery. It must be called at most once.
func (s *programSink) attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
	go s.run()
	s.signal()
}

func (s *programSink) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *programSink) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *programSink) Publish(snap workflow.Snapshot) {
	s.mu.Lock()
	s.pending = append(s.pending, snap)
	s.mu.Unlock()
	s.signal()
}

func (s *programSink) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			select {
			case <-s.done:
				return
			default:
			}
			s.mu.Lock()
			if len(s.pending) == 0 || s.send == nil {
				s.mu.Unlock()
				break
			}
			snap := s.pending[0]
			s.pending = s.pending[1:]
			send := s.send
			s.mu.Unlock()
			send(snapshotMsg(snap))
		}
	}
}

// cueSink plays an audio cue on the transitions a user should hear and passes
// every snapshot on. Publish calls are serialized by the controller.
type cueSink struct {
	next workflow.Sink
	play func(beep.Cue)
	last workflow.State
}

func newCueSink(next workflow.Sink) *cueSink {
	return &cueSink{next: next, play: beep.Play}
}

func (s *cueSink) Publish(snap workflow.Snapshot) {
	if snap.State != s.last {
		switch {
		case snap.State == workflow.Recording:
			s.play(beep.Start)
		case s.last == workflow.Recording && snap.State == workflow.AwaitingTranscription:
			s.play(beep.Stop)
		case snap.State == workflow.Error:
			s.play(beep.Error)
		}
		s.last = snap.State
	}
	s.next.Publish(snap)
}
