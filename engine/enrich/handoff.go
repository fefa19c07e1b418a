package enrich

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jarvis-ai/jarvis/engine/tag"
	"github.com/jarvis-ai/jarvis/engine/why"
)

// Capture is the slice of a capture record Resume/Handoff needs: enough to
// guess which project it belongs to and when it happened.
type Capture struct {
	ID        string
	Timestamp time.Time
	FilePath  string
	Window    string
	OCRText   string
}

// DefaultGapCapSeconds bounds how much elapsed time between two adjacent
// captures of the same project counts toward that project's total —
// without it, a capture left open overnight would dwarf everything else.
const DefaultGapCapSeconds = 600

var ownerRepoPattern = regexp.MustCompile(`\b([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)\b`)

// RepoStatus is the local git state of a project's repo, when locatable.
type RepoStatus struct {
	Dirty         bool
	RecentCommits []string
}

// RepoProbe locates and inspects a project's local repo. A nil probe (or
// one that can't find the repo) is treated as "not locatable" rather than
// an error.
type RepoProbe func(ctx context.Context, project string) (RepoStatus, bool)

// HandoffResult is the Resume/Handoff recommendation: the project the user
// was most likely working on, why, and how confident that guess is.
type HandoffResult struct {
	Project       string
	Confidence    float64
	Reasons       []string
	Sources       []why.Source
	RepoDirty     bool
	RepoLocatable bool
	RecentCommits []string
}

// DetectResume picks the project the user most likely just stepped away
// from, given recent captures within a window. Project candidates are
// guessed per capture from file-path hints, a known-project whitelist, and
// owner/repo patterns in window titles or OCR text; the project with the
// greatest summed wall-clock time (adjacent capture gaps capped at
// gapCapSeconds) wins.
func DetectResume(ctx context.Context, captures []Capture, whitelist []string, gapCapSeconds int, probe RepoProbe) (HandoffResult, bool) {
	if gapCapSeconds <= 0 {
		gapCapSeconds = DefaultGapCapSeconds
	}
	sorted := make([]Capture, len(captures))
	copy(sorted, captures)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	durations := map[string]float64{}
	lastCaptureOf := map[string]Capture{}
	var prev *Capture
	var prevProject string

	for i := range sorted {
		c := sorted[i]
		project := candidateForCapture(c, whitelist)
		if project == "" {
			prev = nil
			continue
		}
		lastCaptureOf[project] = c
		if prev != nil && prevProject == project {
			gap := c.Timestamp.Sub(prev.Timestamp).Seconds()
			if gap > float64(gapCapSeconds) {
				gap = float64(gapCapSeconds)
			}
			if gap > 0 {
				durations[project] += gap
			}
		}
		prev = &sorted[i]
		prevProject = project
	}

	if len(durations) == 0 {
		return HandoffResult{}, false
	}

	var total float64
	for _, d := range durations {
		total += d
	}

	var dominant string
	var dominantDuration float64
	names := make([]string, 0, len(durations))
	for name := range durations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if durations[name] > dominantDuration {
			dominant = name
			dominantDuration = durations[name]
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = dominantDuration / total
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	last := lastCaptureOf[dominant]
	reasons := []string{
		"most recent activity clustered around this project",
	}
	result := HandoffResult{
		Project:    dominant,
		Confidence: confidence,
		Reasons:    reasons,
		Sources: []why.Source{
			why.FromCapture(last.ID, last.OCRText, last.Timestamp, reasons, confidence).Sources[0],
		},
	}

	if probe != nil {
		if status, ok := probe(ctx, dominant); ok {
			result.RepoLocatable = true
			result.RepoDirty = status.Dirty
			result.RecentCommits = status.RecentCommits
		}
	}

	return result, true
}

func candidateForCapture(c Capture, whitelist []string) string {
	haystack := strings.ToLower(c.FilePath + " " + c.Window + " " + c.OCRText)
	for _, known := range whitelist {
		if known == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(known)) {
			return known
		}
	}

	if c.FilePath != "" {
		if hint := pathProjectHint(c.FilePath); hint != "" {
			return hint
		}
	}

	if m := ownerRepoPattern.FindStringSubmatch(c.Window); len(m) == 3 {
		return m[2]
	}

	projects := tag.Extract(c.OCRText).Projects
	if len(projects) > 0 {
		return projects[0]
	}

	return ""
}

func pathProjectHint(path string) string {
	path = strings.Trim(path, "/\\")
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			continue
		}
		if strings.Contains(parts[i], ".") && i == len(parts)-1 {
			continue // trailing element looks like a filename, not a project dir
		}
		return parts[i]
	}
	return ""
}
