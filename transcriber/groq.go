package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	GroqURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	GroqModel = "whisper-large-v3-turbo"
)

type Groq struct {
	baseTranscriber
}

func NewGroq(apiURL, model string, timeout time.Duration) *Groq {
	if apiURL == "" {
		apiURL = GroqURL
	}
	if model == "" || model == OpenAIModel {
		model = GroqModel
	}
	return &Groq{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(apiURL, timeout),
			apiURL: apiURL,
			model:  model,
		},
	}
}

func (g *Groq) Name() string { return "groq" }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if req.Model == OpenAIModel {
		req.Model = ""
	}
	resp, err := g.post(ctx, "groq", req, "verbose_json")
	if err != nil {
		return nil, err
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	var noSpeechProb, avgLogProb float64
	var segments []Segment
	if len(gResp.Segments) > 0 {
		var logProbSum float64
		for _, seg := range gResp.Segments {
			if seg.NoSpeechProb > noSpeechProb {
				noSpeechProb = seg.NoSpeechProb
			}
			logProbSum += seg.AvgLogProb
			segments = append(segments, Segment{
				Text:         seg.Text,
				NoSpeechProb: seg.NoSpeechProb,
				AvgLogProb:   seg.AvgLogProb,
				Start:        seg.Start,
				End:          seg.End,
			})
		}
		avgLogProb = logProbSum / float64(len(gResp.Segments))
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:         gResp.Text,
		Metrics:      resp.Metrics,
		RateLimit:    remaining + "/" + limit,
		NoSpeechProb: noSpeechProb,
		AvgLogProb:   avgLogProb,
		Duration:     gResp.Duration,
		Segments:     segments,
	}, nil
}
