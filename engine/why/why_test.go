package why

import (
	"testing"
	"time"
)

func TestFromCapture_FallsBackWhenNoOCRText(t *testing.T) {
	p := FromCapture("cap-1", "", time.Now(), []string{"matched a deadline"}, 0.8)
	if p.Sources[0].Snippet != "[No text extracted]" {
		t.Errorf("expected fallback snippet, got %q", p.Sources[0].Snippet)
	}
}

func TestFromEmail_TruncatesSnippet(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	p := FromEmail("msg-1", string(long), time.Now(), []string{"vip sender"}, 0.9)
	if len(p.Sources[0].Snippet) != snippetLimit {
		t.Errorf("expected snippet truncated to %d, got %d", snippetLimit, len(p.Sources[0].Snippet))
	}
}

func TestFromPattern_CapsSourceConversations(t *testing.T) {
	ids := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	p := FromPattern("pat-1", "recurring standup friction", time.Now(), []string{"seen 6 times"}, 0.7, ids)
	if len(p.Sources) != 1+maxPatternSources {
		t.Fatalf("expected %d sources (1 primary + %d capped), got %d", 1+maxPatternSources, maxPatternSources, len(p.Sources))
	}
}

func TestMerge_EmptyReturnsError(t *testing.T) {
	if _, err := Merge(nil); err == nil {
		t.Fatal("expected error merging empty payload list")
	}
}

func TestMerge_SingleReturnsUnchanged(t *testing.T) {
	p := Payload{Reasons: []string{"a"}, Confidence: 0.5}
	got, err := Merge([]Payload{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Confidence != 0.5 || len(got.Reasons) != 1 {
		t.Errorf("expected single payload unchanged, got %+v", got)
	}
}

func TestMerge_TakesMinConfidenceAndDedupesReasons(t *testing.T) {
	a := Payload{Reasons: []string{"vip sender", "urgent"}, Confidence: 0.9, Sources: []Source{{ID: "s1"}}}
	b := Payload{Reasons: []string{"urgent", "deadline mentioned"}, Confidence: 0.4, Sources: []Source{{ID: "s2"}}}

	merged, err := Merge([]Payload{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Confidence != 0.4 {
		t.Errorf("expected min confidence 0.4, got %v", merged.Confidence)
	}
	if len(merged.Reasons) != 3 {
		t.Errorf("expected 3 deduplicated reasons, got %v", merged.Reasons)
	}
	if len(merged.Sources) != 2 {
		t.Errorf("expected 2 combined sources, got %d", len(merged.Sources))
	}
}

func TestPatternConfidence_ScalesWithFrequencyAndCaps(t *testing.T) {
	cases := []struct {
		frequency int
		want      float64
	}{
		{0, 0.5},
		{4, 0.7},
		{9, 0.95},
		{100, 0.95},
	}
	for _, c := range cases {
		if got := PatternConfidence(c.frequency); got != c.want {
			t.Errorf("PatternConfidence(%d) = %v, want %v", c.frequency, got, c.want)
		}
	}
}

func TestMeetingConfidence_LinkedVsUnlinked(t *testing.T) {
	if got := MeetingConfidence(true); got != 0.9 {
		t.Errorf("linked: got %v, want 0.9", got)
	}
	if got := MeetingConfidence(false); got != 0.7 {
		t.Errorf("unlinked: got %v, want 0.7", got)
	}
}

func TestCaptureConfidence_WithAndWithoutText(t *testing.T) {
	if got := CaptureConfidence(true); got != 0.6 {
		t.Errorf("with text: got %v, want 0.6", got)
	}
	if got := CaptureConfidence(false); got != 0.4 {
		t.Errorf("without text: got %v, want 0.4", got)
	}
}

func TestCalendarConfidence_ByTimeToStart(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Time
		want  float64
	}{
		{"in 30 minutes", now.Add(30 * time.Minute), 0.95},
		{"in 20 hours", now.Add(20 * time.Hour), 0.85},
		{"in 5 days", now.Add(5 * 24 * time.Hour), 0.7},
		{"in 30 days", now.Add(30 * 24 * time.Hour), 0.5},
	}
	for _, c := range cases {
		if got := CalendarConfidence(c.start, now); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestConversationConfidence_RecentVsStaleVsUnbound(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	recent := now.Add(-3 * 24 * time.Hour)
	stale := now.Add(-30 * 24 * time.Hour)

	if got := ConversationConfidence(&recent, now); got != 0.8 {
		t.Errorf("recent: got %v, want 0.8", got)
	}
	if got := ConversationConfidence(&stale, now); got != 0.6 {
		t.Errorf("stale: got %v, want 0.6", got)
	}
	if got := ConversationConfidence(nil, now); got != 0.6 {
		t.Errorf("unbound date: got %v, want 0.6", got)
	}
}
