package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/vector"
)

const (
	projectActiveMentions  = 5
	projectActiveCommits   = 3
	projectWarmingMentions = 1
	projectStaleAfterDays  = 30
)

const (
	trendUp   = "up"
	trendDown = "down"
	trendFlat = "flat"
)

const (
	projectStatusActive  = "active"
	projectStatusWarming = "warming"
	projectStatusCooling = "cooling"
	projectStatusStale   = "stale"
)

// CommitProbe reports how many commits landed on a project's repo in the
// last 7 days. A nil CommitProbe (or one returning an error) is treated as
// zero commits rather than failing the pulse scan.
type CommitProbe func(ctx context.Context, project string) (int, error)

type projectStats struct {
	mentions7d     int
	mentionsPrev7d int
	lastSeen       time.Time
}

// ProjectSummary is one entry in the project pulse result.
type ProjectSummary struct {
	Project        string
	Mentions7d     int
	MentionsPrev7d int
	Commits7d      int
	ActivityScore  int
	Trend          string
	Status         string
	LastSeen       time.Time
}

// ProjectPulse scans collection and buckets project mentions into the last
// 7 days and the 7 days before that, relative to now.
func ProjectPulse(ctx context.Context, store Scroller, collection string, probe CommitProbe, now time.Time) ([]ProjectSummary, error) {
	cutoff7d := now.AddDate(0, 0, -7)
	cutoff14d := now.AddDate(0, 0, -14)

	stats := map[string]*projectStats{}
	err := Scan(ctx, store, collection, func(hits []vector.Hit) error {
		for _, h := range hits {
			accumulateProject(stats, h.Payload, cutoff7d, cutoff14d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enrich: project pulse scan: %w", err)
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]ProjectSummary, 0, len(names))
	for _, name := range names {
		st := stats[name]
		commits := probeCommits(ctx, probe, name)
		score := 3*st.mentions7d + st.mentionsPrev7d + 2*commits

		summaries = append(summaries, ProjectSummary{
			Project:        name,
			Mentions7d:     st.mentions7d,
			MentionsPrev7d: st.mentionsPrev7d,
			Commits7d:      commits,
			ActivityScore:  score,
			Trend:          trend(st.mentions7d, st.mentionsPrev7d),
			Status:         projectStatus(st, commits, now),
			LastSeen:       st.lastSeen,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ActivityScore > summaries[j].ActivityScore })
	return summaries, nil
}

func probeCommits(ctx context.Context, probe CommitProbe, project string) int {
	if probe == nil {
		return 0
	}
	n, err := probe(ctx, project)
	if err != nil {
		return 0
	}
	return n
}

func accumulateProject(stats map[string]*projectStats, payload map[string]string, cutoff7d, cutoff14d time.Time) {
	projects := splitNonEmpty(payload["projects"])
	if len(projects) == 0 {
		return
	}
	var at time.Time
	if ts, ok := payload["timestamp"]; ok {
		at, _ = time.Parse(time.RFC3339, ts)
	}

	for _, proj := range projects {
		proj = strings.TrimSpace(proj)
		st, ok := stats[proj]
		if !ok {
			st = &projectStats{}
			stats[proj] = st
		}
		if at.IsZero() {
			continue
		}
		if at.After(st.lastSeen) {
			st.lastSeen = at
		}
		switch {
		case !at.Before(cutoff7d):
			st.mentions7d++
		case !at.Before(cutoff14d):
			st.mentionsPrev7d++
		}
	}
}

func trend(mentions7d, mentionsPrev7d int) string {
	switch {
	case mentions7d > mentionsPrev7d:
		return trendUp
	case mentions7d < mentionsPrev7d:
		return trendDown
	default:
		return trendFlat
	}
}

func projectStatus(st *projectStats, commits int, now time.Time) string {
	switch {
	case st.mentions7d >= projectActiveMentions || commits >= projectActiveCommits:
		return projectStatusActive
	case st.mentions7d >= projectWarmingMentions || commits >= projectWarmingMentions:
		return projectStatusWarming
	case !st.lastSeen.IsZero() && now.Sub(st.lastSeen).Hours()/24 <= projectStaleAfterDays:
		return projectStatusCooling
	default:
		return projectStatusStale
	}
}
