package translator

import (
	"context"
	"errors"
	"fmt"
)

const (
	ChatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	DefaultTemperature = 0.3
)

var (
	ErrEmptyText = errors.New("nothing to translate")
	ErrNoChoices = errors.New("translation response has no choices")
	ErrNoAPIKey  = errors.New("missing api key")
)

type Request struct {
	Text        string
	Source      string
	Target      string
	Model       string
	APIKey      string
	Temperature float64
}

type Result struct {
	Text  string
	Model string
	// Tokens is the total reported by the service, zero when absent.
	Tokens int
}

type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}

// APIError is a non-2xx reply from the chat completions endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("translation API error %d: %s", e.StatusCode, e.Body)
}
