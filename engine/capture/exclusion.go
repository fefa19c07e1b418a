package capture

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// defaultExclusions ship with the agent and are always applied, regardless
// of what the user's exclusions file contains.
func defaultExclusions() Exclusions {
	return Exclusions{
		AppNames: []string{
			"1password", "bitwarden", "lastpass", "keepass", "keepassxc",
			"keychain access", "gnome-keyring", "seahorse",
		},
		WindowTitles: []string{
			"private browsing", "incognito", "inprivate",
		},
	}
}

// Exclusions is the YAML-backed exclusion rule set.
type Exclusions struct {
	AppNames     []string `yaml:"app_names"`
	WindowTitles []string `yaml:"window_titles"`
}

func merge(a, b Exclusions) Exclusions {
	return Exclusions{
		AppNames:     mergeUnique(a.AppNames, b.AppNames),
		WindowTitles: mergeUnique(a.WindowTitles, b.WindowTitles),
	}
}

func mergeUnique(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ExclusionFilter gates captures on the active window's app name and title,
// merging a bundled default list with a user-editable YAML file that is
// hot-reloaded on write so a running agent never needs restarting to pick
// up a new exclusion rule.
type ExclusionFilter struct {
	path   string
	logger *slog.Logger

	mu         sync.RWMutex
	exclusions Exclusions
}

// NewExclusionFilter loads path (if present) merged with the bundled
// defaults. A missing or unreadable file falls back to defaults only.
func NewExclusionFilter(path string, logger *slog.Logger) *ExclusionFilter {
	if logger == nil {
		logger = slog.Default()
	}
	f := &ExclusionFilter{path: path, logger: logger, exclusions: defaultExclusions()}
	f.reload()
	return f
}

func (f *ExclusionFilter) reload() {
	defaults := defaultExclusions()
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.mu.Lock()
		f.exclusions = defaults
		f.mu.Unlock()
		return
	}

	var user Exclusions
	if err := yaml.Unmarshal(data, &user); err != nil {
		f.logger.Warn("capture: failed to parse exclusions file", "path", f.path, "error", err)
		f.mu.Lock()
		f.exclusions = defaults
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.exclusions = merge(defaults, user)
	f.mu.Unlock()
}

// Watch starts an fsnotify watch on the exclusions file's directory and
// reloads whenever the file is written, until stop is closed. Safe to call
// at most once per filter.
func (f *ExclusionFilter) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := dirOf(f.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == f.path && (event.Op&(fsnotify.Write|fsnotify.Create) != 0) {
					f.reload()
					f.logger.Info("capture: exclusions reloaded", "path", f.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("capture: exclusions watcher error", "error", err)
			case <-stop:
				return
			}
		}
	}()
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

// ShouldExclude reports whether a window with the given app name and title
// should be skipped, and which pattern matched.
func (f *ExclusionFilter) ShouldExclude(appName, windowTitle string) (bool, string) {
	f.mu.RLock()
	ex := f.exclusions
	f.mu.RUnlock()

	appLower := strings.ToLower(appName)
	for _, pattern := range ex.AppNames {
		if appName != "" && strings.Contains(appLower, strings.ToLower(pattern)) {
			return true, pattern
		}
	}

	titleLower := strings.ToLower(windowTitle)
	for _, pattern := range ex.WindowTitles {
		if windowTitle != "" && strings.Contains(titleLower, strings.ToLower(pattern)) {
			return true, pattern
		}
	}
	return false, ""
}
