package transcriber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	NoSpeechProb float64
	AvgLogProb   float64
	Duration     float64
	Segments     []Segment
}

// Request is one encoded clip plus the per-call credentials and hints.
type Request struct {
	Audio    []byte
	Format   string
	Language string // ISO-639-1 hint, optional
	Model    string // overrides the provider default when set
	APIKey   string
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Result, error)
	// Warm opens a connection ahead of the first request.
	Warm()
}

// APIError is a non-2xx reply from the transcription endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

var ErrNoAudio = errors.New("no audio to transcribe")

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	model  string
}

func (b *baseTranscriber) Warm() { b.client.Warm() }

func (b *baseTranscriber) modelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return b.model
}

// post sends the clip as multipart/form-data and returns the raw response.
func (b *baseTranscriber) post(ctx context.Context, provider string, req Request, responseFormat string) (*TracedResponse, error) {
	if len(req.Audio) == 0 {
		return nil, ErrNoAudio
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+req.Format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, err
	}

	writer.WriteField("model", b.modelFor(req))
	writer.WriteField("response_format", responseFormat)
	if req.Language != "" {
		writer.WriteField("language", req.Language)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return resp, nil
}

// New builds the named provider. An empty url selects the provider's public
// endpoint.
func New(provider, url, model string, timeout time.Duration) (Transcriber, error) {
	switch provider {
	case "openai", "":
		return NewOpenAI(url, model, timeout), nil
	case "groq":
		return NewGroq(url, model, timeout), nil
	}
	return nil, fmt.Errorf("unknown transcription provider %q", provider)
}
