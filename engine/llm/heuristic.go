package llm

import (
	"context"
	"regexp"
	"strings"
)

var (
	questionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\?`),
		regexp.MustCompile(`(?i)\bcan you\b`),
		regexp.MustCompile(`(?i)\bcould you\b`),
		regexp.MustCompile(`(?i)\bwill you\b`),
	}
	actionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bplease\b`),
		regexp.MustCompile(`(?i)\bneed you to\b`),
		regexp.MustCompile(`(?i)\baction item\b`),
	}
	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\basap\b`),
		regexp.MustCompile(`(?i)\burgent\b`),
		regexp.MustCompile(`(?i)\bby tomorrow\b`),
		regexp.MustCompile(`(?i)\bby end of day\b`),
		regexp.MustCompile(`(?i)\beod\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}
)

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// HeuristicClassifier is a deterministic, no-model Classifier: it flags
// content as signal (not noise) when it contains a question, an action
// request, or a deadline mention.
type HeuristicClassifier struct{}

// Classify never errors; it always returns a deterministic verdict.
func (HeuristicClassifier) Classify(_ context.Context, text string) (Classification, error) {
	var reasons []string
	if matchesAny(questionPatterns, text) {
		reasons = append(reasons, "contains a question")
	}
	if matchesAny(actionPatterns, text) {
		reasons = append(reasons, "requests an action")
	}
	if matchesAny(deadlinePatterns, text) {
		reasons = append(reasons, "mentions a deadline")
	}

	if len(reasons) == 0 {
		return Classification{IsNoise: true, Confidence: 0.6, Reason: "no question, action, or deadline signal"}, nil
	}
	confidence := 0.35 + 0.2*float64(len(reasons))
	if confidence > 0.9 {
		confidence = 0.9
	}
	return Classification{IsNoise: false, Confidence: confidence, Reason: strings.Join(reasons, "; ")}, nil
}

// HeuristicSummarizer is a deterministic, no-model Summarizer: it takes the
// leading maxSentences sentences of the text as an extractive summary.
type HeuristicSummarizer struct{}

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// Summarize never errors.
func (HeuristicSummarizer) Summarize(_ context.Context, text string, maxSentences int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := sentenceEnd.Split(text, -1)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return strings.Join(sentences, ". ") + ".", nil
}
