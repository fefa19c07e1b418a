// Package llm provides a narrow text-generation interface used for
// summarization, noise classification, and briefing prose, with an
// HTTP-backed implementation and a deterministic rule-based fallback that
// needs no model at all.
package llm

import "context"

// Client generates text completions. Implementations must not call one
// another — a caller picks exactly one. On error, callers such as
// engine/brief fall back to their own templated text.
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Classification is the outcome of classifying a piece of inbound content
// (an email, a notification) as noise or worth surfacing.
type Classification struct {
	IsNoise    bool
	Confidence float64
	Reason     string
}

// Classifier labels content as noise or signal.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// Summarizer condenses text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}
