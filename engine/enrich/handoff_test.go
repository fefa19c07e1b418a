package enrich

import (
	"context"
	"testing"
	"time"
)

func TestDetectResume_PicksDominantProjectByDuration(t *testing.T) {
	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	captures := []Capture{
		{ID: "1", Timestamp: base, FilePath: "/home/user/projects/wessley/main.go"},
		{ID: "2", Timestamp: base.Add(5 * time.Minute), FilePath: "/home/user/projects/wessley/main.go"},
		{ID: "3", Timestamp: base.Add(10 * time.Minute), FilePath: "/home/user/projects/wessley/main.go"},
		{ID: "4", Timestamp: base.Add(12 * time.Minute), FilePath: "/home/user/notes/todo.txt"},
	}

	result, ok := DetectResume(context.Background(), captures, nil, 0, nil)
	if !ok {
		t.Fatalf("expected a resume candidate")
	}
	if result.Project != "wessley" {
		t.Errorf("expected wessley to dominate, got %s", result.Project)
	}
	if result.Confidence <= 0.5 {
		t.Errorf("expected high confidence for dominant project, got %f", result.Confidence)
	}
}

func TestDetectResume_CapsLargeGaps(t *testing.T) {
	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	captures := []Capture{
		{ID: "1", Timestamp: base, FilePath: "/home/user/projects/alpha/main.go"},
		{ID: "2", Timestamp: base.Add(2 * time.Hour), FilePath: "/home/user/projects/alpha/main.go"},
	}

	result, ok := DetectResume(context.Background(), captures, nil, 60, nil)
	if !ok {
		t.Fatalf("expected a resume candidate")
	}
	if result.Confidence != 1 {
		t.Errorf("expected confidence 1 for the only project, got %f", result.Confidence)
	}
}

func TestDetectResume_NoIdentifiableProjectReturnsFalse(t *testing.T) {
	captures := []Capture{
		{ID: "1", Timestamp: time.Now(), FilePath: "", Window: "", OCRText: "just some random text"},
	}
	_, ok := DetectResume(context.Background(), captures, nil, 0, nil)
	if ok {
		t.Fatalf("expected no resume candidate when no project is identifiable")
	}
}

func TestDetectResume_WhitelistTakesPriority(t *testing.T) {
	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	captures := []Capture{
		{ID: "1", Timestamp: base, FilePath: "/tmp/scratch.go", OCRText: "working on project jarvis today"},
		{ID: "2", Timestamp: base.Add(time.Minute), FilePath: "/tmp/scratch.go", OCRText: "working on project jarvis today"},
	}
	result, ok := DetectResume(context.Background(), captures, []string{"jarvis"}, 0, nil)
	if !ok || result.Project != "jarvis" {
		t.Fatalf("expected whitelist match jarvis, got %+v ok=%v", result, ok)
	}
}

func TestDetectResume_EnrichesWithRepoProbe(t *testing.T) {
	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	captures := []Capture{
		{ID: "1", Timestamp: base, FilePath: "/home/user/projects/alpha/main.go"},
		{ID: "2", Timestamp: base.Add(time.Minute), FilePath: "/home/user/projects/alpha/main.go"},
	}
	probe := func(_ context.Context, project string) (RepoStatus, bool) {
		if project != "alpha" {
			return RepoStatus{}, false
		}
		return RepoStatus{Dirty: true, RecentCommits: []string{"fix bug", "add feature"}}, true
	}

	result, ok := DetectResume(context.Background(), captures, nil, 0, probe)
	if !ok {
		t.Fatalf("expected a resume candidate")
	}
	if !result.RepoLocatable || !result.RepoDirty || len(result.RecentCommits) != 2 {
		t.Fatalf("expected repo enrichment to be applied, got %+v", result)
	}
}
