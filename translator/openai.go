package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAI calls a chat completions endpoint.
type OpenAI struct {
	url  string
	http *resty.Client
}

func NewOpenAI(url string, timeout time.Duration) *OpenAI {
	if url == "" {
		url = ChatCompletionsURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{url: url, http: resty.New().SetTimeout(timeout)}
}

func (o *OpenAI) Name() string { return "openai" }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenAI) Translate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	if req.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	msgs, err := buildMessages(req)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	var resp chatResponse
	rr, err := o.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+req.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		Post(o.url)
	if err != nil {
		return nil, fmt.Errorf("translation request: %w", err)
	}
	if rr.IsError() {
		return nil, &APIError{StatusCode: rr.StatusCode(), Body: rr.String()}
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return &Result{
		Text:   strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:  resp.Model,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}
