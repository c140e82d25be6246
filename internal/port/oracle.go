package port

import "context"

// Oracle abstracts the LLM text-completion capability. Implementations apply
// their own request timeout; a timed-out call surfaces as an error.
type Oracle interface {
	// Complete sends a text prompt and returns the generated text plus the
	// output token count reported by the provider.
	Complete(ctx context.Context, prompt string) (text string, outputTokens int, err error)
}
