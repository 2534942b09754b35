// Package workflow drives one record, transcribe, review and translate cycle
// at a time.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quicktranslator/audio"
	"quicktranslator/log"
	"quicktranslator/transcriber"
	"quicktranslator/translator"
)

const (
	msgPermission      = "Error accessing microphone. Please check permissions."
	msgTooLong         = "Recording too long. Please limit to %d minutes."
	msgLimitReached    = "Recording time limit reached (%d minutes)"
	msgTranscription   = "Transcription failed. Please try again."
	msgTranslation     = "Translation failed. Please try again."
	noticeNoSpeech     = "No speech detected."
	defaultCallTimeout = 2 * time.Minute
)

type Deps struct {
	Recorder    Recorder
	Transcriber transcriber.Transcriber
	Translator  translator.Translator
	Sink        Sink
	Clock       Clock

	TranscriptionModel string
	Temperature        float64
	// CallTimeout bounds each network call; zero means two minutes.
	CallTimeout time.Duration
}

// Controller owns the workflow state machine. All methods are safe for
// concurrent use; results arriving from network calls and timers are applied
// under the same lock as user actions.
type Controller struct {
	deps Deps
	id   string

	mu      sync.Mutex
	notify  sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	state   State
	input   string
	draft   Draft
	result  Result
	err     error
	message string
	notice  string
	seq     uint64

	// epoch changes on Reset and Close; results from an older epoch are
	// dropped.
	epoch    uint64
	inflight bool

	session   Capture
	recID     uint64
	startedAt time.Time
	limit     time.Duration
	timer     Timer
}

func New(deps Deps) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Sink == nil {
		deps.Sink = SinkFunc(func(Snapshot) {})
	}
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = defaultCallTimeout
	}
	return &Controller{deps: deps, id: uuid.NewString()}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Seq:     c.seq,
		State:   c.state,
		Input:   c.input,
		Draft:   c.draft,
		Result:  c.result,
		Err:     c.err,
		Message: c.message,
		Notice:  c.notice,
		Busy:    c.inflight,
	}
	if c.state == Recording {
		s.RecordingStarted = c.startedAt
		s.TimeLimit = c.limit
	}
	return s
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// publishAndUnlock hands the current snapshot to the sink after releasing
// c.mu. The notify lock keeps deliveries in Seq order.
func (c *Controller) publishAndUnlock() {
	c.seq++
	snap := c.snapshotLocked()
	c.notify.Lock()
	c.mu.Unlock()
	defer c.notify.Unlock()
	c.deps.Sink.Publish(snap)
}

func (c *Controller) setState(to State, reason string) {
	if c.state != to {
		log.Transition(c.id, c.state.String(), to.String(), reason)
	}
	c.state = to
}

func (c *Controller) fail(reason error, msg string) {
	c.err = reason
	c.message = msg
	c.setState(Error, reason.Error())
}

// clearError resolves a pending Error to Idle ahead of a new action.
func (c *Controller) clearError() {
	if c.state == Error {
		c.setState(Idle, "acknowledged")
	}
	c.err = nil
	c.message = ""
	c.notice = ""
}

func (c *Controller) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.deps.CallTimeout)
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

// Start opens a recording session. It is refused without an API key, while a
// network call is outstanding, or from any state other than Idle, Error or
// ShowingResult.
func (c *Controller) Start(p Params) bool {
	c.mu.Lock()
	if c.closed || c.inflight || !p.Settings.HasAPIKey() {
		c.mu.Unlock()
		return false
	}
	switch c.state {
	case Idle, Error, ShowingResult:
	default:
		c.mu.Unlock()
		return false
	}
	c.clearError()

	rec, err := c.deps.Recorder.Start()
	if err != nil {
		log.Warnf("recording start failed: %v", err)
		c.fail(fmt.Errorf("%w: %v", ErrPermissionDenied, err), msgPermission)
		c.publishAndUnlock()
		return true
	}

	c.recID++
	id := c.recID
	c.session = rec
	c.startedAt = c.deps.Clock.Now()
	c.limit = p.Settings.TimeLimit()
	c.timer = c.deps.Clock.AfterFunc(c.limit, func() { c.timeLimitElapsed(id) })
	c.input = ""
	c.draft = Draft{}
	c.result = Result{}
	c.setState(Recording, "start")
	c.publishAndUnlock()
	return true
}

func (c *Controller) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) timeLimitElapsed(id uint64) {
	c.mu.Lock()
	if c.closed || c.state != Recording || c.recID != id {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	sess := c.session
	c.session = nil
	sess.Release()
	c.fail(ErrDurationExceeded, fmt.Sprintf(msgLimitReached, minutes(c.limit)))
	c.publishAndUnlock()
}

// Stop ends the recording. Audio longer than the limit armed at Start is
// discarded; otherwise it is finalized and sent for transcription.
func (c *Controller) Stop(p Params) bool {
	c.mu.Lock()
	if c.closed || c.state != Recording || c.session == nil {
		c.mu.Unlock()
		return false
	}
	c.disarmLocked()
	sess := c.session
	c.session = nil
	elapsed := c.deps.Clock.Now().Sub(c.startedAt)

	if elapsed > c.limit {
		sess.Release()
		c.fail(ErrDurationExceeded, fmt.Sprintf(msgTooLong, minutes(c.limit)))
		c.publishAndUnlock()
		return true
	}

	c.inflight = true
	epoch := c.epoch
	c.setState(AwaitingTranscription, "stop")
	c.wg.Add(1)
	c.publishAndUnlock()

	go c.transcribe(epoch, sess, p)
	return true
}

// settle clears the in-flight flag and reports whether the result of the call
// started in epoch still applies. It is called with c.mu held.
func (c *Controller) settle(epoch uint64) bool {
	c.inflight = false
	return !c.closed && c.epoch == epoch
}

func (c *Controller) transcribe(epoch uint64, sess Capture, p Params) {
	defer c.wg.Done()

	var text string
	clip, err := sess.Finalize()
	if err == nil {
		text, err = c.callTranscriber(clip, p)
	}

	c.mu.Lock()
	if !c.settle(epoch) {
		c.publishStale()
		return
	}
	if err != nil {
		log.Errorf("transcription: %v", err)
		c.fail(fmt.Errorf("%w: %v", ErrTranscriptionFailed, err), msgTranscription)
		c.publishAndUnlock()
		return
	}

	text = strings.TrimSpace(text)
	c.input = text
	switch {
	case p.Settings.EditBeforeTranslate:
		c.draft = Draft{Text: text, Editable: true}
		c.setState(ReviewingTranscript, "transcribed")
		c.publishAndUnlock()
	case text == "":
		c.notice = noticeNoSpeech
		c.setState(Idle, "empty transcription")
		c.publishAndUnlock()
	default:
		c.inflight = true
		c.setState(AwaitingTranslation, "transcribed")
		c.wg.Add(1)
		c.publishAndUnlock()
		c.translate(epoch, text, p)
	}
}

// publishStale tells the sink the controller is no longer busy after a result
// was dropped. Called with c.mu held.
func (c *Controller) publishStale() {
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.publishAndUnlock()
}

func (c *Controller) callTranscriber(clip audio.Clip, p Params) (string, error) {
	ctx, cancel := c.callContext()
	defer cancel()
	res, err := c.deps.Transcriber.Transcribe(ctx, transcriber.Request{
		Audio:    clip.Data,
		Format:   clip.Format,
		Language: p.Pair.Source.Code(),
		Model:    c.deps.TranscriptionModel,
		APIKey:   p.Settings.APIKey,
	})
	if err != nil {
		return "", err
	}
	logTranscription(clip, res, c.deps.Transcriber.Name())
	return res.Text, nil
}

// Translate sends text for translation from Idle, Error or ShowingResult. It
// is a no-op without an API key, for blank text, or while a call is in
// flight.
func (c *Controller) Translate(text string, p Params) bool {
	c.mu.Lock()
	if !c.canCallLocked(text, p) {
		c.mu.Unlock()
		return false
	}
	switch c.state {
	case Idle, Error, ShowingResult:
	default:
		c.mu.Unlock()
		return false
	}
	c.beginTranslationLocked(text, p, "translate")
	return true
}

// SubmitEdited translates the reviewed draft.
func (c *Controller) SubmitEdited(text string, p Params) bool {
	c.mu.Lock()
	if c.state != ReviewingTranscript || !c.canCallLocked(text, p) {
		c.mu.Unlock()
		return false
	}
	c.beginTranslationLocked(text, p, "submit edited")
	return true
}

func (c *Controller) canCallLocked(text string, p Params) bool {
	return !c.closed && !c.inflight && p.Settings.HasAPIKey() && strings.TrimSpace(text) != ""
}

// beginTranslationLocked is entered with c.mu held and returns with it
// released.
func (c *Controller) beginTranslationLocked(text string, p Params, reason string) {
	c.clearError()
	c.input = text
	c.draft = Draft{}
	c.result = Result{}
	c.inflight = true
	epoch := c.epoch
	c.setState(AwaitingTranslation, reason)
	c.wg.Add(1)
	c.publishAndUnlock()

	go c.translate(epoch, text, p)
}

func (c *Controller) translate(epoch uint64, text string, p Params) {
	defer c.wg.Done()

	start := time.Now()
	ctx, cancel := c.callContext()
	res, err := c.deps.Translator.Translate(ctx, translator.Request{
		Text:        text,
		Source:      string(p.Pair.Source),
		Target:      string(p.Pair.Target),
		Model:       string(p.Settings.Model),
		APIKey:      p.Settings.APIKey,
		Temperature: c.deps.Temperature,
	})
	cancel()

	c.mu.Lock()
	if !c.settle(epoch) {
		c.publishStale()
		return
	}
	if err != nil {
		log.Errorf("translation: %v", err)
		c.fail(fmt.Errorf("%w: %v", ErrTranslationFailed, err), msgTranslation)
		c.publishAndUnlock()
		return
	}

	out := res.Text
	if p.Settings.LowercaseOutput {
		out = strings.ToLower(out)
	}
	c.result = Result{Text: out, NormalizedCase: p.Settings.LowercaseOutput}
	c.setState(ShowingResult, "translated")
	log.Translation(string(p.Settings.Model), string(p.Pair.Source), string(p.Pair.Target), time.Since(start))
	log.TranslationText(string(p.Pair.Source), string(p.Pair.Target), text, out)
	c.publishAndUnlock()
}

// Discard drops the draft under review and returns to Idle.
func (c *Controller) Discard() bool {
	c.mu.Lock()
	if c.closed || c.state != ReviewingTranscript {
		c.mu.Unlock()
		return false
	}
	c.draft = Draft{}
	c.input = ""
	c.setState(Idle, "discard")
	c.publishAndUnlock()
	return true
}

// Reset returns to Idle from any state, releasing an open recording and
// orphaning any outstanding call. Settings are not touched.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.releaseLocked()
	c.epoch++
	c.input = ""
	c.draft = Draft{}
	c.result = Result{}
	c.err = nil
	c.message = ""
	c.notice = ""
	c.setState(Idle, "reset")
	c.publishAndUnlock()
}

func (c *Controller) releaseLocked() {
	c.disarmLocked()
	if c.session != nil {
		c.session.Release()
		c.session = nil
	}
}

// Close releases the microphone and timer. Calls still in flight finish in
// the background and their results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.releaseLocked()
}

// Wait blocks until no network call started by this controller is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func logTranscription(clip audio.Clip, res *transcriber.Result, provider string) {
	m := log.Metrics{
		AudioLengthS:     clip.Duration.Seconds(),
		RawSizeKB:        float64(len(clip.PCM)) / 1024,
		CompressedSizeKB: float64(len(clip.Data)) / 1024,
		EncodeTimeMs:     float64(clip.EncodeTime.Microseconds()) / 1000,
	}
	if len(clip.PCM) > 0 {
		m.CompressionPct = (1 - float64(len(clip.Data))/float64(len(clip.PCM))) * 100
	}
	var reused bool
	var proto string
	if nm := res.Metrics; nm != nil {
		m.DNSTimeMs = float64(nm.DNS.Microseconds()) / 1000
		m.TLSTimeMs = float64(nm.TLS.Microseconds()) / 1000
		m.TTFBMs = float64(nm.TTFB.Microseconds()) / 1000
		m.TotalTimeMs = float64(nm.Total.Microseconds()) / 1000
		reused = nm.ConnReused
		proto = nm.TLSProtocol
	}
	log.TranscriptionMetrics(m, clip.Format, provider, reused, proto)
}
