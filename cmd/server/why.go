package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jarvis-ai/jarvis/engine/why"
	"github.com/jarvis-ai/jarvis/store/pg"
)

// handleWhy implements GET why(suggestion_type, id): resolves the
// underlying entity for suggestion_type in
// {pattern, capture, conversation, calendar, meeting} and derives its
// confidence via the fixed per-type rule rather than any caller-supplied
// value. Calendar and meeting have no persisted store yet (there is no
// concrete CalendarStore), so their event data is supplied inline via
// query parameters rather than looked up by id.
func handleWhy(patterns *pg.PatternStore, captures *pg.CaptureStore, conversations *pg.ConversationStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestionType := r.URL.Query().Get("suggestion_type")
		id := r.URL.Query().Get("id")
		if suggestionType == "" || id == "" {
			http.Error(w, `{"error":"suggestion_type and id are required"}`, http.StatusBadRequest)
			return
		}

		now := time.Now()
		var payload why.Payload
		var err error

		switch suggestionType {
		case "pattern":
			payload, err = whyPattern(r.Context(), patterns, id)
		case "capture":
			payload, err = whyCapture(r.Context(), captures, id)
		case "conversation":
			payload, err = whyConversation(r.Context(), conversations, id, now)
		case "calendar":
			payload, err = whyCalendar(r, id, now)
		case "meeting":
			payload, err = whyMeeting(r, id)
		default:
			http.Error(w, `{"error":"unknown suggestion_type"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Error("why lookup failed", "suggestion_type", suggestionType, "id", id, "err", err)
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

func whyPattern(ctx context.Context, store *pg.PatternStore, id string) (why.Payload, error) {
	p, err := store.Get(ctx, id)
	if err != nil {
		return why.Payload{}, err
	}
	confidence := why.PatternConfidence(p.Frequency)
	return why.FromPattern(p.ID, p.Description, p.LastSeen, []string{p.Description}, confidence, p.ConversationIDs), nil
}

func whyCapture(ctx context.Context, store *pg.CaptureStore, id string) (why.Payload, error) {
	c, err := store.Get(ctx, id)
	if err != nil {
		return why.Payload{}, err
	}
	var ocrText string
	if c.OCRText != nil {
		ocrText = *c.OCRText
	}
	confidence := why.CaptureConfidence(ocrText != "")
	return why.FromCapture(c.ID, ocrText, c.Timestamp, []string{"matched a captured screen"}, confidence), nil
}

func whyConversation(ctx context.Context, store *pg.ConversationStore, id string, now time.Time) (why.Payload, error) {
	c, err := store.Get(ctx, id)
	if err != nil {
		return why.Payload{}, err
	}
	confidence := why.ConversationConfidence(c.ConversationDate, now)
	date := now
	if c.ConversationDate != nil {
		date = *c.ConversationDate
	}
	return why.FromConversation(c.ID, c.Title, date, []string{"matched an imported conversation"}, confidence), nil
}

func whyCalendar(r *http.Request, id string, now time.Time) (why.Payload, error) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		return why.Payload{}, fmt.Errorf("why: parse start: %w", err)
	}
	title := r.URL.Query().Get("title")
	confidence := why.CalendarConfidence(start, now)
	return why.FromCalendar(id, title, start, []string{"upcoming calendar event"}, confidence), nil
}

func whyMeeting(r *http.Request, id string) (why.Payload, error) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		return why.Payload{}, fmt.Errorf("why: parse start: %w", err)
	}
	title := r.URL.Query().Get("title")
	linked := r.URL.Query().Get("linked") != "false"
	confidence := why.MeetingConfidence(linked)
	return why.FromCalendar(id, title, start, []string{"scheduled meeting"}, confidence), nil
}
