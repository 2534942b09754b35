package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpenAIURL   = "https://api.openai.com/v1/audio/transcriptions"
	OpenAIModel = "whisper-1"
)

type OpenAI struct {
	baseTranscriber
}

func NewOpenAI(apiURL, model string, timeout time.Duration) *OpenAI {
	if apiURL == "" {
		apiURL = OpenAIURL
	}
	if model == "" {
		model = OpenAIModel
	}
	return &OpenAI{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(apiURL, timeout),
			apiURL: apiURL,
			model:  model,
		},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Transcribe(ctx context.Context, req Request) (*Result, error) {
	resp, err := o.post(ctx, "openai", req, "json")
	if err != nil {
		return nil, err
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
	}, nil
}
