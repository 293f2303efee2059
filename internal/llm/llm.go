package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answered with no text
var ErrEmptyResponse = errors.New("empty response from language model")

// Generator produces a completion for a single prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
