package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/llm"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

const (
	unfinishedBusinessMinMentions = 10
	unfinishedBusinessStaleDays   = 30
	brokenPromiseStaleDays        = 7
	llmPatternMinConfidence       = 0.4
)

// PatternStore persists the outcome of a detection run. ReplaceActive must
// flip every currently-active row for detectorKey to dismissed and insert
// patterns in the same transaction, so that exactly one cohort is active
// per detector key at a time.
type PatternStore interface {
	ReplaceActive(ctx context.Context, detectorKey string, patterns []domain.DetectedPattern) error
}

type topicStats struct {
	count           int
	lastSeen        time.Time
	conversationIDs map[string]bool
}

type promiseCandidate struct {
	text            string
	firstSeen       time.Time
	lastSeen        time.Time
	conversationIDs map[string]bool
}

// DetectHeuristic scans collection and derives patterns from fixed
// thresholds on topic recency and commitment-phrase age: a topic mentioned
// unfinishedBusinessMinMentions+ times overall but not in the last
// unfinishedBusinessStaleDays becomes unfinished_business; an action item
// older than brokenPromiseStaleDays becomes broken_promise.
func DetectHeuristic(ctx context.Context, store Scroller, collection string, now time.Time) ([]domain.DetectedPattern, error) {
	topics := map[string]*topicStats{}
	promises := map[string]*promiseCandidate{}

	err := Scan(ctx, store, collection, func(hits []vector.Hit) error {
		for _, h := range hits {
			accumulateTopics(topics, h.Payload)
			accumulatePromises(promises, h.Payload)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enrich: pattern detection scan: %w", err)
	}

	staleCutoff := now.AddDate(0, 0, -unfinishedBusinessStaleDays)
	promiseCutoff := now.AddDate(0, 0, -brokenPromiseStaleDays)

	var patterns []domain.DetectedPattern

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := topics[name]
		if st.count < unfinishedBusinessMinMentions || !st.lastSeen.Before(staleCutoff) {
			continue
		}
		action := fmt.Sprintf("You've mentioned %q %d times but haven't brought it up in over %d days.", name, st.count, unfinishedBusinessStaleDays)
		patterns = append(patterns, domain.DetectedPattern{
			PatternType:     domain.PatternUnfinishedBusiness,
			PatternKey:      "unfinished_business:" + name,
			Description:     fmt.Sprintf("%q came up %d times but has gone quiet.", name, st.count),
			Frequency:       st.count,
			FirstSeen:       st.lastSeen,
			LastSeen:        st.lastSeen,
			SuggestedAction: &action,
			ConversationIDs: sortedKeys(st.conversationIDs),
			DetectedAt:      now,
			Status:          domain.PatternStatusActive,
		})
	}

	keys := make([]string, 0, len(promises))
	for key := range promises {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pc := promises[key]
		if !pc.lastSeen.Before(promiseCutoff) {
			continue
		}
		action := fmt.Sprintf("You said %q and it's been %d+ days — worth following up?", pc.text, brokenPromiseStaleDays)
		patterns = append(patterns, domain.DetectedPattern{
			PatternType:     domain.PatternBrokenPromise,
			PatternKey:      "broken_promise:" + key,
			Description:     fmt.Sprintf("Unfulfilled commitment: %q", pc.text),
			Frequency:       1,
			FirstSeen:       pc.firstSeen,
			LastSeen:        pc.lastSeen,
			SuggestedAction: &action,
			ConversationIDs: sortedKeys(pc.conversationIDs),
			DetectedAt:      now,
			Status:          domain.PatternStatusActive,
		})
	}

	return patterns, nil
}

func accumulateTopics(stats map[string]*topicStats, payload map[string]string) {
	topics := splitNonEmpty(payload["topics"])
	if len(topics) == 0 {
		return
	}
	at := parseTimestamp(payload)
	convID := payload["conversation_id"]

	for _, topic := range topics {
		st, ok := stats[topic]
		if !ok {
			st = &topicStats{conversationIDs: map[string]bool{}}
			stats[topic] = st
		}
		st.count++
		if at.After(st.lastSeen) {
			st.lastSeen = at
		}
		if convID != "" {
			st.conversationIDs[convID] = true
		}
	}
}

func accumulatePromises(promises map[string]*promiseCandidate, payload map[string]string) {
	raw := payload["action_items"]
	if raw == "" {
		return
	}
	at := parseTimestamp(payload)
	convID := payload["conversation_id"]

	for _, item := range strings.Split(raw, domain.PayloadActionItemSeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		pc, ok := promises[item]
		if !ok {
			pc = &promiseCandidate{text: item, firstSeen: at, conversationIDs: map[string]bool{}}
			promises[item] = pc
		}
		if at.Before(pc.firstSeen) || pc.firstSeen.IsZero() {
			pc.firstSeen = at
		}
		if at.After(pc.lastSeen) {
			pc.lastSeen = at
		}
		if convID != "" {
			pc.conversationIDs[convID] = true
		}
	}
}

func parseTimestamp(payload map[string]string) time.Time {
	if ts, ok := payload["conversation_date"]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	}
	if ts, ok := payload["timestamp"]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// llmPatternCandidate is one entry of the JSON array the LLM adapter is
// prompted to return.
type llmPatternCandidate struct {
	PatternType     string   `json:"pattern_type"`
	PatternKey      string   `json:"pattern_key"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence"`
	ConversationIDs []string `json:"conversation_ids"`
}

// LLMInput bundles the material the LLM pattern-detection prompt is built
// from: recent conversation samples, the capture OCR timeline, and an
// hour-of-day activity histogram.
type LLMInput struct {
	ConversationSamples []string
	CaptureTimeline     []string
	HourlyActivity      map[int]int
}

// DetectLLM gathers LLMInput into a fixed JSON-schema prompt, asks client to
// complete it, and parses the response into patterns. On any parse failure
// it returns an empty list rather than an error, per the adapter's
// safe-default contract. Entries below llmPatternMinConfidence are dropped;
// surviving confidence maps to frequency as max(1, round(confidence*10)).
func DetectLLM(ctx context.Context, client llm.Client, input LLMInput, now time.Time) ([]domain.DetectedPattern, error) {
	if client == nil {
		return nil, nil
	}
	prompt := buildPatternPrompt(input)
	raw, err := client.Complete(ctx, prompt, 1024)
	if err != nil {
		return nil, fmt.Errorf("enrich: llm pattern detection: %w", err)
	}

	var candidates []llmPatternCandidate
	if err := json.Unmarshal([]byte(llm.StripJSONFence(raw)), &candidates); err != nil {
		return nil, nil
	}

	var patterns []domain.DetectedPattern
	for _, c := range candidates {
		if c.Confidence < llmPatternMinConfidence {
			continue
		}
		freq := int(math.Max(1, math.Round(c.Confidence*10)))
		patterns = append(patterns, domain.DetectedPattern{
			PatternType:     domain.PatternType(c.PatternType),
			PatternKey:      c.PatternKey,
			Description:     c.Description,
			Frequency:       freq,
			FirstSeen:       now,
			LastSeen:        now,
			ConversationIDs: c.ConversationIDs,
			DetectedAt:      now,
			Status:          domain.PatternStatusActive,
		})
	}
	return patterns, nil
}

func buildPatternPrompt(input LLMInput) string {
	var b strings.Builder
	b.WriteString("Identify behavioral patterns from the activity below. Respond with a strict JSON array, no markdown fences, where each entry has exactly these fields: pattern_type, pattern_key, description, confidence (0-1), conversation_ids (array of strings).\n\n")
	b.WriteString("Recent conversations:\n")
	for _, s := range input.ConversationSamples {
		b.WriteString("- " + s + "\n")
	}
	b.WriteString("\nCapture timeline:\n")
	for _, s := range input.CaptureTimeline {
		b.WriteString("- " + s + "\n")
	}
	b.WriteString("\nHourly activity histogram:\n")
	hours := make([]int, 0, len(input.HourlyActivity))
	for h := range input.HourlyActivity {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		b.WriteString(fmt.Sprintf("- %02d:00 -> %d events\n", h, input.HourlyActivity[h]))
	}
	return b.String()
}

// DetectAndReplace runs detect, then atomically replaces the active cohort
// for detectorKey via store.
func DetectAndReplace(ctx context.Context, store PatternStore, detectorKey string, detect func(context.Context) ([]domain.DetectedPattern, error)) ([]domain.DetectedPattern, error) {
	patterns, err := detect(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.ReplaceActive(ctx, detectorKey, patterns); err != nil {
		return nil, fmt.Errorf("enrich: replace active patterns for %s: %w", detectorKey, err)
	}
	return patterns, nil
}
