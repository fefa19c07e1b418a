package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewExclusionFilter_MissingFileUsesDefaults(t *testing.T) {
	f := NewExclusionFilter(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	excluded, pattern := f.ShouldExclude("1Password", "vault")
	if !excluded || pattern != "1password" {
		t.Fatalf("expected default app_names to exclude 1Password, got excluded=%v pattern=%s", excluded, pattern)
	}
}

func TestNewExclusionFilter_UserFileMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.yaml")
	if err := os.WriteFile(path, []byte("app_names:\n  - slack\nwindow_titles:\n  - confidential\n"), 0o644); err != nil {
		t.Fatalf("write exclusions file: %v", err)
	}

	f := NewExclusionFilter(path, nil)

	if excluded, _ := f.ShouldExclude("Slack", ""); !excluded {
		t.Error("expected user-defined app_names entry to exclude Slack")
	}
	if excluded, _ := f.ShouldExclude("1Password", ""); !excluded {
		t.Error("expected bundled default to still apply alongside user entries")
	}
	if excluded, _ := f.ShouldExclude("", "a confidential memo"); !excluded {
		t.Error("expected user-defined window_titles entry to match")
	}
}

func TestShouldExclude_NoMatchReturnsFalse(t *testing.T) {
	f := NewExclusionFilter(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	if excluded, _ := f.ShouldExclude("vscode", "main.go — jarvis"); excluded {
		t.Error("expected an ordinary editor window not to be excluded")
	}
}

func TestReload_PicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.yaml")
	if err := os.WriteFile(path, []byte("app_names: []\n"), 0o644); err != nil {
		t.Fatalf("write exclusions file: %v", err)
	}
	f := NewExclusionFilter(path, nil)

	if excluded, _ := f.ShouldExclude("signal", ""); excluded {
		t.Error("expected signal not to be excluded before reload")
	}

	if err := os.WriteFile(path, []byte("app_names:\n  - signal\n"), 0o644); err != nil {
		t.Fatalf("rewrite exclusions file: %v", err)
	}
	f.reload()

	if excluded, _ := f.ShouldExclude("signal", ""); !excluded {
		t.Error("expected signal to be excluded after reload")
	}
}
