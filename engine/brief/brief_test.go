package brief

import (
	"context"
	"testing"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/search"
)

type fakeCalendar struct {
	events []CalendarEvent
}

func (f fakeCalendar) EventsBetween(_ context.Context, _, _ time.Time) ([]CalendarEvent, error) {
	return f.events, nil
}

type fakeEmail struct {
	unread      []Email
	touchpoints map[string][]Email
}

func (f fakeEmail) PriorityUnread(_ context.Context, _ time.Time) ([]Email, error) {
	return f.unread, nil
}

func (f fakeEmail) TouchpointsWith(_ context.Context, attendee string, _ time.Time) ([]Email, error) {
	return f.touchpoints[attendee], nil
}

type fakePatterns struct {
	byType map[domain.PatternType][]domain.DetectedPattern
}

func (f fakePatterns) ActiveByType(_ context.Context, types ...domain.PatternType) ([]domain.DetectedPattern, error) {
	var out []domain.DetectedPattern
	for _, t := range types {
		out = append(out, f.byType[t]...)
	}
	return out, nil
}

type fakeCaptures struct {
	summaries []CaptureSummary
}

func (f fakeCaptures) CapturesBetween(_ context.Context, _, _ time.Time) ([]CaptureSummary, error) {
	return f.summaries, nil
}

type fakeSearcher struct {
	results []search.Result
}

func (f fakeSearcher) Search(_ context.Context, _ string, _ int, _ search.Filter) ([]search.Result, error) {
	return f.results, nil
}

func TestBuildMorningBriefing_AssemblesAllSections(t *testing.T) {
	now := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	svc := New(
		fakeCalendar{events: []CalendarEvent{{ID: "e1", Title: "standup"}}},
		fakeEmail{unread: []Email{{ID: "m1", Subject: "urgent"}}},
		fakePatterns{byType: map[domain.PatternType][]domain.DetectedPattern{
			domain.PatternUnfinishedBusiness: {{PatternKey: "k1"}},
			domain.PatternBrokenPromise:      {{PatternKey: "k2"}},
		}},
		fakeCaptures{summaries: []CaptureSummary{{ID: "c1", Timestamp: now.Add(-2 * time.Hour), Summary: "reading docs"}}},
		nil,
		nil,
		nil,
		DefaultOptions(),
		nil,
	)

	result, err := svc.BuildMorningBriefing(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.CalendarEvents) != 1 || len(result.PriorityEmails) != 1 {
		t.Fatalf("expected calendar and email sections populated, got %+v", result)
	}
	if len(result.UnfinishedBusiness) != 1 || len(result.PendingPromises) != 1 {
		t.Fatalf("expected pattern sections populated, got %+v", result)
	}
	if result.Narrative == "" {
		t.Errorf("expected a non-empty narrative")
	}
}

func TestBuildMorningBriefing_NilCollaboratorsSkipSections(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, nil, nil, DefaultOptions(), nil)
	result, err := svc.BuildMorningBriefing(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.CalendarEvents) != 0 || len(result.PriorityEmails) != 0 {
		t.Fatalf("expected empty sections with nil collaborators, got %+v", result)
	}
}

func TestBuildMeetingBrief_SynthesizesTalkingPoints(t *testing.T) {
	now := time.Date(2026, 7, 31, 8, 0, 0, 0, time.UTC)
	svc := New(nil,
		fakeEmail{touchpoints: map[string][]Email{
			"alice@example.com": {{Subject: "re: budget", ReceivedAt: now.Add(-24 * time.Hour)}},
		}},
		fakePatterns{byType: map[domain.PatternType][]domain.DetectedPattern{
			domain.PatternBrokenPromise: {{PatternKey: "alice@example.com", Description: "send the report"}},
		}},
		nil, nil, nil, nil, DefaultOptions(), nil)

	event := CalendarEvent{ID: "e1", Title: "1:1", Attendees: []string{"alice@example.com"}}
	result, err := svc.BuildMeetingBrief(context.Background(), event, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.TalkingPoints) == 0 {
		t.Fatalf("expected talking points, got none")
	}
}

func TestBuildContextHandoff_UsesSearchAndTemplatedFallback(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil,
		fakeSearcher{results: []search.Result{{Source: "conversation", TextPreview: "shipped the migration"}}},
		nil, DefaultOptions(), nil)

	result, err := svc.BuildContextHandoff(context.Background(), "wessley")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Project != "wessley" || result.Narrative == "" {
		t.Fatalf("expected populated handoff brief, got %+v", result)
	}
}

func TestBuildContextHandoff_NoSearcherErrors(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, nil, nil, DefaultOptions(), nil)
	_, err := svc.BuildContextHandoff(context.Background(), "wessley")
	if err == nil {
		t.Fatalf("expected error with no searcher configured")
	}
}

func TestExtractActionItems_ParsesBulletedLines(t *testing.T) {
	narrative := "Last: did things.\nNext:\n- send the report\n- follow up with bob\nsome other text"
	items := extractActionItems(narrative, 5)
	if len(items) != 2 {
		t.Fatalf("expected 2 action items, got %d: %+v", len(items), items)
	}
}
