// Package brief composes the C7 search engine and C8 enrichment services
// with external calendar/email/task adapters into the human-readable
// outputs a user actually reads: the morning briefing, a pre-meeting brief,
// and a context handoff when resuming a project. Composers here own no
// storage of their own; every call is stateless beyond its collaborators'
// caches.
package brief

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/llm"
	"github.com/jarvis-ai/jarvis/engine/search"
)

// CalendarEvent is the slice of a calendar entry a briefing needs.
type CalendarEvent struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
}

// Email is the slice of an inbox message a briefing needs.
type Email struct {
	ID         string
	From       string
	Subject    string
	Snippet    string
	ReceivedAt time.Time
}

// TaskItem is an item pulled from an optional external task tracker.
type TaskItem struct {
	ID    string
	Title string
	Due   *time.Time
}

// CalendarStore abstracts the external calendar adapter.
type CalendarStore interface {
	EventsBetween(ctx context.Context, start, end time.Time) ([]CalendarEvent, error)
}

// EmailStore abstracts the external email adapter.
type EmailStore interface {
	PriorityUnread(ctx context.Context, since time.Time) ([]Email, error)
	TouchpointsWith(ctx context.Context, attendee string, since time.Time) ([]Email, error)
}

// PatternReader abstracts read access to the DetectedPattern cohort
// maintained by C8's pattern detector.
type PatternReader interface {
	ActiveByType(ctx context.Context, types ...domain.PatternType) ([]domain.DetectedPattern, error)
}

// CaptureReader abstracts read access to overnight capture summaries.
type CaptureReader interface {
	CapturesBetween(ctx context.Context, start, end time.Time) ([]CaptureSummary, error)
}

// CaptureSummary is one capture's worth of material for a briefing.
type CaptureSummary struct {
	ID        string
	Timestamp time.Time
	Summary   string
}

// TaskTracker abstracts an optional external task tracker. A nil
// TaskTracker is treated as "no tracker configured", not an error.
type TaskTracker interface {
	PendingItems(ctx context.Context) ([]TaskItem, error)
}

// Searcher is the subset of search.Engine Context Handoff needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, filter search.Filter) ([]search.Result, error)
}

var alertPatternTypes = []domain.PatternType{
	domain.PatternStalePerson,
	domain.PatternBrokenPromise,
	domain.PatternStaleProject,
}

// Service composes the morning briefing, meeting brief, and context
// handoff outputs.
type Service struct {
	calendar  CalendarStore
	email     EmailStore
	patterns  PatternReader
	captures  CaptureReader
	tasks     TaskTracker
	search    Searcher
	client    llm.Client
	logger    *slog.Logger
	lookback  time.Duration
}

// Options configures a Service.
type Options struct {
	// MeetingLookback bounds how far back Meeting Brief looks for
	// attendee touchpoints.
	MeetingLookback time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{MeetingLookback: 14 * 24 * time.Hour}
}

// New creates a Service. tasks and client may be nil: a nil TaskTracker
// skips section (g) of the morning briefing, and a nil llm.Client falls
// back to a templated, non-LLM narrative.
func New(calendar CalendarStore, email EmailStore, patterns PatternReader, captures CaptureReader, tasks TaskTracker, searcher Searcher, client llm.Client, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MeetingLookback <= 0 {
		opts = DefaultOptions()
	}
	return &Service{
		calendar: calendar,
		email:    email,
		patterns: patterns,
		captures: captures,
		tasks:    tasks,
		search:   searcher,
		client:   client,
		logger:   logger,
		lookback: opts.MeetingLookback,
	}
}

// MorningBriefing is the structured result of BuildMorningBriefing.
type MorningBriefing struct {
	CalendarEvents     []CalendarEvent
	PriorityEmails     []Email
	UnfinishedBusiness []domain.DetectedPattern
	PendingPromises    []domain.DetectedPattern
	PatternAlerts      []domain.DetectedPattern
	OvernightByHour    map[int][]string
	TaskItems          []TaskItem
	Narrative          string
}

// BuildMorningBriefing assembles today's briefing as of now.
func (s *Service) BuildMorningBriefing(ctx context.Context, now time.Time) (MorningBriefing, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var b MorningBriefing
	var err error

	if s.calendar != nil {
		if b.CalendarEvents, err = s.calendar.EventsBetween(ctx, dayStart, dayEnd); err != nil {
			return MorningBriefing{}, fmt.Errorf("brief: calendar events: %w", err)
		}
	}
	if s.email != nil {
		if b.PriorityEmails, err = s.email.PriorityUnread(ctx, now.Add(-24*time.Hour)); err != nil {
			return MorningBriefing{}, fmt.Errorf("brief: priority emails: %w", err)
		}
	}
	if s.patterns != nil {
		if b.UnfinishedBusiness, err = s.patterns.ActiveByType(ctx, domain.PatternUnfinishedBusiness); err != nil {
			return MorningBriefing{}, fmt.Errorf("brief: unfinished business: %w", err)
		}
		if b.PendingPromises, err = s.patterns.ActiveByType(ctx, domain.PatternBrokenPromise); err != nil {
			return MorningBriefing{}, fmt.Errorf("brief: pending promises: %w", err)
		}
		if b.PatternAlerts, err = s.patterns.ActiveByType(ctx, alertPatternTypes...); err != nil {
			return MorningBriefing{}, fmt.Errorf("brief: pattern alerts: %w", err)
		}
	}
	if s.captures != nil {
		overnight, cerr := s.captures.CapturesBetween(ctx, dayStart.Add(-2*time.Hour), dayStart.Add(8*time.Hour))
		if cerr != nil {
			return MorningBriefing{}, fmt.Errorf("brief: overnight captures: %w", cerr)
		}
		b.OvernightByHour = groupByHour(overnight)
	}
	if s.tasks != nil {
		if b.TaskItems, err = s.tasks.PendingItems(ctx); err != nil {
			s.logger.Warn("brief: task tracker unavailable, skipping", "err", err)
		}
	}

	b.Narrative = s.renderNarrative(ctx, b)
	return b, nil
}

func groupByHour(captures []CaptureSummary) map[int][]string {
	byHour := map[int][]string{}
	for _, c := range captures {
		byHour[c.Timestamp.Hour()] = append(byHour[c.Timestamp.Hour()], c.Summary)
	}
	return byHour
}

func (s *Service) renderNarrative(ctx context.Context, b MorningBriefing) string {
	var plain strings.Builder
	fmt.Fprintf(&plain, "Good morning. You have %d events on the calendar today and %d priority emails waiting.\n", len(b.CalendarEvents), len(b.PriorityEmails))
	if len(b.UnfinishedBusiness) > 0 {
		fmt.Fprintf(&plain, "%d topics have gone quiet that you might want to revisit.\n", len(b.UnfinishedBusiness))
	}
	if len(b.PendingPromises) > 0 {
		fmt.Fprintf(&plain, "%d commitments are still open.\n", len(b.PendingPromises))
	}
	if len(b.PatternAlerts) > 0 {
		fmt.Fprintf(&plain, "%d things need attention: stale people, broken promises, or stale projects.\n", len(b.PatternAlerts))
	}

	if s.client == nil {
		return plain.String()
	}
	polished, err := s.client.Complete(ctx, "Rewrite this morning briefing in a warm, conversational tone suitable for text-to-speech, keeping every fact:\n\n"+plain.String(), 512)
	if err != nil {
		s.logger.Warn("brief: llm narrative rewrite failed, using templated narrative", "err", err)
		return plain.String()
	}
	return polished
}

// MeetingBrief is the structured result of BuildMeetingBrief.
type MeetingBrief struct {
	EventID       string
	Touchpoints   map[string][]Email
	OpenLoops     []domain.DetectedPattern
	TalkingPoints []string
}

// BuildMeetingBrief aggregates per-attendee touchpoints and open loops for
// event, synthesizing at most 5 talking points.
func (s *Service) BuildMeetingBrief(ctx context.Context, event CalendarEvent, now time.Time) (MeetingBrief, error) {
	brief := MeetingBrief{EventID: event.ID, Touchpoints: map[string][]Email{}}

	since := now.Add(-s.lookback)
	if s.email != nil {
		for _, attendee := range event.Attendees {
			touches, err := s.email.TouchpointsWith(ctx, attendee, since)
			if err != nil {
				return MeetingBrief{}, fmt.Errorf("brief: touchpoints with %s: %w", attendee, err)
			}
			if len(touches) > 0 {
				brief.Touchpoints[attendee] = touches
			}
		}
	}

	if s.patterns != nil {
		loops, err := s.patterns.ActiveByType(ctx, domain.PatternBrokenPromise)
		if err != nil {
			return MeetingBrief{}, fmt.Errorf("brief: open loops: %w", err)
		}
		brief.OpenLoops = filterPatternsByAttendee(loops, event.Attendees)
	}

	brief.TalkingPoints = synthesizeTalkingPoints(brief, event)
	return brief, nil
}

func filterPatternsByAttendee(patterns []domain.DetectedPattern, attendees []string) []domain.DetectedPattern {
	if len(attendees) == 0 {
		return patterns
	}
	want := map[string]bool{}
	for _, a := range attendees {
		want[strings.ToLower(a)] = true
	}
	var out []domain.DetectedPattern
	for _, p := range patterns {
		if want[strings.ToLower(p.PatternKey)] || strings.Contains(strings.ToLower(p.Description), loweredAny(attendees)) {
			out = append(out, p)
		}
	}
	return out
}

func loweredAny(attendees []string) string {
	if len(attendees) == 0 {
		return ""
	}
	return strings.ToLower(attendees[0])
}

const maxTalkingPoints = 5

func synthesizeTalkingPoints(b MeetingBrief, event CalendarEvent) []string {
	var points []string

	for _, loop := range b.OpenLoops {
		points = append(points, "Overdue: "+loop.Description)
	}
	for attendee, emails := range b.Touchpoints {
		if len(emails) == 0 {
			continue
		}
		recent := emails[0]
		for _, e := range emails {
			if e.ReceivedAt.After(recent.ReceivedAt) {
				recent = e
			}
		}
		points = append(points, fmt.Sprintf("Recent topic with %s: %s", attendee, recent.Subject))
	}
	if len(points) == 0 {
		points = append(points, fmt.Sprintf("No recent activity found with attendees of %q — check in on current status.", event.Title))
	}

	sort.Strings(points)
	if len(points) > maxTalkingPoints {
		points = points[:maxTalkingPoints]
	}
	return points
}

// HandoffBrief is the structured result of BuildContextHandoff.
type HandoffBrief struct {
	Project      string
	Narrative    string
	ActionItems  []string
	SourceChunks []search.Result
}

// BuildContextHandoff runs a hybrid search for project's status, asks the
// summarizer/classifier adapter for a 2-paragraph last/next synthesis, and
// extracts up to 5 pending action items from it.
func (s *Service) BuildContextHandoff(ctx context.Context, project string) (HandoffBrief, error) {
	if s.search == nil {
		return HandoffBrief{}, fmt.Errorf("brief: no searcher configured")
	}
	query := fmt.Sprintf("%s project status update", project)
	results, err := s.search.Search(ctx, query, 10, search.Filter{})
	if err != nil {
		return HandoffBrief{}, fmt.Errorf("brief: context handoff search: %w", err)
	}

	narrative := s.synthesizeHandoff(ctx, project, results)
	return HandoffBrief{
		Project:      project,
		Narrative:    narrative,
		ActionItems:  extractActionItems(narrative, 5),
		SourceChunks: results,
	}, nil
}

func (s *Service) synthesizeHandoff(ctx context.Context, project string, results []search.Result) string {
	var context strings.Builder
	for _, r := range results {
		fmt.Fprintf(&context, "- [%s] %s\n", r.Source, r.TextPreview)
	}

	if s.client == nil {
		return fmt.Sprintf("Last: recent activity on %s includes %d related notes.\nNext: review the linked notes below and pick up where you left off.", project, len(results))
	}

	prompt := fmt.Sprintf("Write a 2-paragraph status update for project %q from the notes below. First paragraph: what was last done. Second paragraph: what's next, including any pending action items as a bulleted list.\n\n%s", project, context.String())
	text, err := s.client.Complete(ctx, prompt, 600)
	if err != nil {
		s.logger.Warn("brief: context handoff synthesis failed, using templated fallback", "err", err)
		return fmt.Sprintf("Last: recent activity on %s includes %d related notes.\nNext: review the linked notes below and pick up where you left off.", project, len(results))
	}
	return text
}

func extractActionItems(narrative string, limit int) []string {
	var items []string
	for _, line := range strings.Split(narrative, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			items = append(items, strings.TrimSpace(line[2:]))
		}
		if len(items) >= limit {
			break
		}
	}
	return items
}
