// Package tokens counts prompt tokens for pre-flight cost estimation.
package tokens

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/rshade/promptbatch/internal/gateway"
	"github.com/rshade/promptbatch/internal/logging"
)

// CharsPerToken is the ratio used when no native counter is available.
const CharsPerToken = 4

// Heuristic returns ceil(characters / CharsPerToken).
func Heuristic(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Counter counts tokens natively through the gateway when it can, and
// falls back to Heuristic otherwise.
type Counter struct {
	native gateway.TokenCounter
}

// NewCounter returns a Counter. native may be nil.
func NewCounter(native gateway.TokenCounter) *Counter {
	return &Counter{native: native}
}

// Count returns the token count of text for modelID ("provider/model").
// Native counting failures degrade to the heuristic; only context
// cancellation is reported as an error.
func (c *Counter) Count(ctx context.Context, modelID, text string) (int, error) {
	provider, model := gateway.SplitModelID(modelID)
	if c == nil || c.native == nil || provider == "" {
		return Heuristic(text), nil
	}

	n, err := c.native.CountTokens(ctx, provider, model, text)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}
	if !errors.Is(err, gateway.ErrTokenCountUnsupported) {
		logging.FromContext(ctx).Debug().
			Ctx(ctx).
			Str("component", "tokens").
			Str("model", modelID).
			Err(err).
			Msg("native token count failed, using heuristic")
	}
	return Heuristic(text), nil
}
