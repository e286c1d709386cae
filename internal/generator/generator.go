package generator

import (
	"context"
	"errors"
)

// Generation failure classes the pipeline distinguishes. Anything else
// coming out of Generate is treated as transient.
var (
	// ErrBlocked means the prompt or the answer was rejected on
	// content-policy grounds.
	ErrBlocked = errors.New("generation blocked by content policy")

	// ErrEmpty means the model returned no usable text.
	ErrEmpty = errors.New("generation returned no text")
)

// Generator is the consumed answer-generation capability: prompt text in,
// answer text out, or a classified failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
