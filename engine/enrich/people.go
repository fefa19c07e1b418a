package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/llm"
	"github.com/jarvis-ai/jarvis/engine/vector"
)

// DefaultMinFrequency is the minimum mention count for a person to be
// surfaced in the people graph.
const DefaultMinFrequency = 2

const (
	statusActive  = "active"
	statusFading  = "fading"
	statusStale   = "stale"
	statusUnknown = "unknown"
)

const (
	activeThresholdDays = 7
	staleThresholdDays  = 30
)

type personStats struct {
	conversations map[string]bool
	dates         []time.Time
	projects      map[string]bool
	topics        map[string]bool
	count         int
}

func newPersonStats() *personStats {
	return &personStats{
		conversations: map[string]bool{},
		projects:      map[string]bool{},
		topics:        map[string]bool{},
	}
}

// PersonSummary is one entry in the people graph result.
type PersonSummary struct {
	Name             string
	Frequency        int
	Conversations    []string
	Projects         []string
	Topics           []string
	LastSeen         time.Time
	DaysSinceContact int
	Status           string
	SuggestedAction  string
}

// PeopleGraphResult is the full people graph scan output.
type PeopleGraphResult struct {
	People   []PersonSummary
	TopNames []string
	Total    int
}

// PeopleGraph scans collection and accumulates per-person stats from each
// point's "people" payload field, classifies candidate names with
// classifier (falling back to a deterministic rule filter when classifier
// is nil), and returns survivors with at least minFrequency mentions.
func PeopleGraph(ctx context.Context, store Scroller, collection string, classifier llm.EntityClassifier, minFrequency int, now time.Time) (PeopleGraphResult, error) {
	if classifier == nil {
		classifier = llm.HeuristicEntityClassifier{}
	}
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}

	stats := map[string]*personStats{}
	err := Scan(ctx, store, collection, func(hits []vector.Hit) error {
		for _, h := range hits {
			accumulatePeople(stats, h.Payload)
		}
		return nil
	})
	if err != nil {
		return PeopleGraphResult{}, fmt.Errorf("enrich: people graph scan: %w", err)
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	classified := llm.ClassifyInBatches(ctx, classifier, names)

	var people []PersonSummary
	for name, st := range stats {
		if classified[name] != domain.EntityPerson {
			continue
		}
		if st.count < minFrequency {
			continue
		}
		people = append(people, summarizePerson(name, st, now))
	}

	sort.Slice(people, func(i, j int) bool { return people[i].Frequency > people[j].Frequency })

	top := make([]string, 0, 5)
	for i := 0; i < len(people) && i < 5; i++ {
		top = append(top, people[i].Name)
	}

	return PeopleGraphResult{People: people, TopNames: top, Total: len(people)}, nil
}

func accumulatePeople(stats map[string]*personStats, payload map[string]string) {
	names := strings.Split(payload["people"], ",")
	convID := payload["conversation_id"]
	var at time.Time
	if ts, ok := payload["conversation_date"]; ok {
		at, _ = time.Parse(time.RFC3339, ts)
	} else if ts, ok := payload["timestamp"]; ok {
		at, _ = time.Parse(time.RFC3339, ts)
	}
	projects := splitNonEmpty(payload["projects"])
	topics := splitNonEmpty(payload["topics"])

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		st, ok := stats[name]
		if !ok {
			st = newPersonStats()
			stats[name] = st
		}
		st.count++
		if convID != "" {
			st.conversations[convID] = true
		}
		if !at.IsZero() {
			st.dates = append(st.dates, at)
		}
		for _, p := range projects {
			st.projects[p] = true
		}
		for _, t := range topics {
			st.topics[t] = true
		}
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func summarizePerson(name string, st *personStats, now time.Time) PersonSummary {
	summary := PersonSummary{
		Name:          name,
		Frequency:     st.count,
		Conversations: sortedKeys(st.conversations),
		Projects:      sortedKeys(st.projects),
		Topics:        sortedKeys(st.topics),
	}

	if len(st.dates) == 0 {
		summary.Status = statusUnknown
		summary.SuggestedAction = fmt.Sprintf("No contact date recorded for %s.", name)
		return summary
	}

	last := st.dates[0]
	for _, d := range st.dates[1:] {
		if d.After(last) {
			last = d
		}
	}
	summary.LastSeen = last
	days := int(now.Sub(last).Hours() / 24)
	summary.DaysSinceContact = days

	switch {
	case days <= activeThresholdDays:
		summary.Status = statusActive
		summary.SuggestedAction = fmt.Sprintf("Stay in touch with %s.", name)
	case days <= staleThresholdDays:
		summary.Status = statusFading
		summary.SuggestedAction = fmt.Sprintf("Consider reaching out to %s — last contact was %d days ago.", name, days)
	default:
		summary.Status = statusStale
		summary.SuggestedAction = fmt.Sprintf("You haven't talked to %s in %d days — might be worth reconnecting.", name, days)
	}
	return summary
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
