package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quicktranslator/encoder"
	"quicktranslator/log"
)

// ErrSessionClosed is returned by Finalize once the session has already been
// finalized or released.
var ErrSessionClosed = errors.New("recording session closed")

// Clip is the finalized audio of one session.
type Clip struct {
	SessionID  string
	Data       []byte
	Format     string
	PCM        []byte
	Duration   time.Duration
	Fragments  int
	EncodeTime time.Duration
}

// Recorder opens one capture Session at a time on a fixed device.
type Recorder struct {
	ctx      Context
	device   *DeviceInfo
	format   string
	gain     int
	analyzer *Analyzer
}

func NewRecorder(ctx Context, device *DeviceInfo, format string) *Recorder {
	if format == "" {
		format = encoder.FormatFLAC
	}
	return &Recorder{
		ctx:      ctx,
		device:   device,
		format:   format,
		gain:     1,
		analyzer: NewAnalyzer(),
	}
}

// SetGain multiplies captured samples, saturating at full scale.
func (r *Recorder) SetGain(g int) { r.gain = g }

func (r *Recorder) Analyzer() *Analyzer { return r.analyzer }

func (r *Recorder) Format() string { return r.format }

// Start acquires the device and begins buffering. Any failure is reported
// wrapped in ErrDeviceUnavailable and leaves nothing open.
func (r *Recorder) Start() (*Session, error) {
	capDev, err := r.ctx.NewCapture(r.device, CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
		Gain:       r.gain,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	r.analyzer.Reset()
	s := &Session{
		id:       uuid.NewString(),
		started:  time.Now(),
		format:   r.format,
		capture:  capDev,
		analyzer: r.analyzer,
	}
	capDev.SetCallback(s.append)
	if err := capDev.Start(); err != nil {
		s.Release()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	log.Infof("capture started on %s (session %s)", capDev.DeviceName(), s.id)
	return s, nil
}

// Session buffers device fragments in arrival order until it is finalized or
// released. The device is released exactly once, on whichever path ends the
// session first.
type Session struct {
	id       string
	started  time.Time
	format   string
	capture  CaptureDevice
	analyzer *Analyzer

	mu        sync.Mutex
	fragments [][]byte
	closed    bool

	releaseOnce sync.Once
}

func (s *Session) ID() string { return s.id }

func (s *Session) StartedAt() time.Time { return s.started }

func (s *Session) append(data []byte, _ uint32) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	frag := make([]byte, len(data))
	copy(frag, data)
	s.fragments = append(s.fragments, frag)
	s.mu.Unlock()

	if s.analyzer != nil {
		s.analyzer.Feed(frag)
	}
}

// Fragments reports how many fragments are buffered.
func (s *Session) Fragments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fragments)
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.capture.ClearCallback()
		s.capture.Stop()
		s.capture.Close()
	})
}

// Finalize stops capture and encodes every buffered fragment, in order, into
// a single Clip.
func (s *Session) Finalize() (Clip, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Clip{}, ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.release()

	s.mu.Lock()
	frags := s.fragments
	s.fragments = nil
	s.mu.Unlock()

	total := 0
	for _, f := range frags {
		total += len(f)
	}
	pcm := make([]byte, 0, total)
	for _, f := range frags {
		pcm = append(pcm, f...)
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	data, encTime, err := encoder.Encode(s.format, samples)
	if err != nil {
		return Clip{}, fmt.Errorf("encode recording: %w", err)
	}

	return Clip{
		SessionID:  s.id,
		Data:       data,
		Format:     s.format,
		PCM:        pcm,
		Duration:   encoder.Duration(uint64(len(samples))),
		Fragments:  len(frags),
		EncodeTime: encTime,
	}, nil
}

// Release stops capture and discards the buffered audio.
func (s *Session) Release() {
	s.mu.Lock()
	s.closed = true
	s.fragments = nil
	s.mu.Unlock()
	s.release()
}
