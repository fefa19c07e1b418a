// Package why builds transparent, source-linked explanations for anything
// Jarvis suggests: a source type, a confidence score, and the reasons behind
// it, so a user can always ask "why is it telling me this?"
package why

import (
	"fmt"
	"time"
)

// Source is one piece of evidence backing a suggestion.
type Source struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Snippet   string    `json:"snippet"`
	URL       string    `json:"url"`
}

// Payload is the full explanation attached to a suggestion.
type Payload struct {
	Reasons    []string `json:"reasons"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
}

const snippetLimit = 200
const maxPatternSources = 5

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FromEmail builds a Payload with an email as the primary source.
func FromEmail(emailID, snippet string, timestamp time.Time, reasons []string, confidence float64, additional ...Source) Payload {
	sources := append([]Source{{
		Type:      "email",
		ID:        emailID,
		Timestamp: timestamp,
		Snippet:   truncate(snippet, snippetLimit),
		URL:       fmt.Sprintf("/email/%s", emailID),
	}}, additional...)
	return Payload{Reasons: reasons, Confidence: confidence, Sources: sources}
}

// FromCapture builds a Payload with a screen capture as the primary source.
func FromCapture(captureID, ocrText string, timestamp time.Time, reasons []string, confidence float64, additional ...Source) Payload {
	snippet := "[No text extracted]"
	if ocrText != "" {
		snippet = truncate(ocrText, snippetLimit)
	}
	sources := append([]Source{{
		Type:      "capture",
		ID:        captureID,
		Timestamp: timestamp,
		Snippet:   snippet,
		URL:       fmt.Sprintf("/timeline?capture=%s", captureID),
	}}, additional...)
	return Payload{Reasons: reasons, Confidence: confidence, Sources: sources}
}

// FromCalendar builds a Payload with a calendar event as the primary source.
func FromCalendar(eventID, title string, start time.Time, reasons []string, confidence float64, additional ...Source) Payload {
	sources := append([]Source{{
		Type:      "calendar",
		ID:        eventID,
		Timestamp: start,
		Snippet:   truncate(title, snippetLimit),
		URL:       fmt.Sprintf("/calendar?event=%s", eventID),
	}}, additional...)
	return Payload{Reasons: reasons, Confidence: confidence, Sources: sources}
}

// FromConversation builds a Payload with an imported AI conversation as the
// primary source.
func FromConversation(conversationID, title string, date time.Time, reasons []string, confidence float64, additional ...Source) Payload {
	sources := append([]Source{{
		Type:      "conversation",
		ID:        conversationID,
		Timestamp: date,
		Snippet:   truncate(title, snippetLimit),
		URL:       fmt.Sprintf("/search?conversation=%s", conversationID),
	}}, additional...)
	return Payload{Reasons: reasons, Confidence: confidence, Sources: sources}
}

// FromPattern builds a Payload for a detected behavioral pattern, linking up
// to maxPatternSources contributing conversations.
func FromPattern(patternID, description string, lastSeen time.Time, reasons []string, confidence float64, sourceConversationIDs []string) Payload {
	sources := []Source{{
		Type:      "conversation",
		ID:        patternID,
		Timestamp: lastSeen,
		Snippet:   truncate(description, snippetLimit),
		URL:       fmt.Sprintf("/workflows?pattern=%s", patternID),
	}}
	for i, convID := range sourceConversationIDs {
		if i >= maxPatternSources {
			break
		}
		sources = append(sources, Source{
			Type:      "conversation",
			ID:        convID,
			Timestamp: lastSeen,
			Snippet:   "Related conversation",
			URL:       fmt.Sprintf("/search?conversation=%s", convID),
		})
	}
	return Payload{Reasons: reasons, Confidence: confidence, Sources: sources}
}

// PatternConfidence derives a pattern suggestion's confidence from how many
// times it was observed: min(0.5 + 0.05*frequency, 0.95).
func PatternConfidence(frequency int) float64 {
	c := 0.5 + 0.05*float64(frequency)
	if c > 0.95 {
		return 0.95
	}
	return c
}

// MeetingConfidence is 0.9 when the suggestion is linked to a calendar
// event, 0.7 otherwise.
func MeetingConfidence(linkedToCalendarEvent bool) float64 {
	if linkedToCalendarEvent {
		return 0.9
	}
	return 0.7
}

// CaptureConfidence is 0.6 when OCR extracted text, 0.4 otherwise.
func CaptureConfidence(hasExtractedText bool) float64 {
	if hasExtractedText {
		return 0.6
	}
	return 0.4
}

// CalendarConfidence scales with how soon start falls relative to now: 0.95
// within 1h, 0.85 within 24h, 0.7 within 7d, else 0.5.
func CalendarConfidence(start, now time.Time) float64 {
	until := start.Sub(now)
	switch {
	case until <= time.Hour:
		return 0.95
	case until <= 24*time.Hour:
		return 0.85
	case until <= 7*24*time.Hour:
		return 0.7
	default:
		return 0.5
	}
}

// ConversationConfidence is 0.8 when conversationDate falls within the last
// 7 days, 0.6 otherwise. A nil conversationDate (conversation_date unset)
// defaults to 0.6, the documented fallback for that unbound case.
func ConversationConfidence(conversationDate *time.Time, now time.Time) float64 {
	if conversationDate == nil {
		return 0.6
	}
	if now.Sub(*conversationDate) <= 7*24*time.Hour {
		return 0.8
	}
	return 0.6
}

// Merge combines several Payloads into one: reasons are concatenated and
// deduplicated in order, sources are concatenated, and confidence is the
// minimum across all inputs — a suggestion is only as confident as its
// weakest contributing signal.
func Merge(payloads []Payload) (Payload, error) {
	if len(payloads) == 0 {
		return Payload{}, fmt.Errorf("why: cannot merge empty payload list")
	}
	if len(payloads) == 1 {
		return payloads[0], nil
	}

	var allReasons []string
	var allSources []Source
	minConfidence := 1.0

	for _, p := range payloads {
		allReasons = append(allReasons, p.Reasons...)
		allSources = append(allSources, p.Sources...)
		if p.Confidence < minConfidence {
			minConfidence = p.Confidence
		}
	}

	seen := make(map[string]bool, len(allReasons))
	uniqueReasons := make([]string, 0, len(allReasons))
	for _, r := range allReasons {
		if seen[r] {
			continue
		}
		seen[r] = true
		uniqueReasons = append(uniqueReasons, r)
	}

	return Payload{Reasons: uniqueReasons, Confidence: minConfidence, Sources: allSources}, nil
}
