package capture

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// State is the run state of a Loop.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

const (
	watchdogTimeout      = 5 * time.Minute
	maxConsecutiveErrors = 10
	recoverySettle       = 2 * time.Second
	tickInterval         = 1 * time.Second
)

// Frame is one monitor's raw capture, handed to the loop by a Capturer.
type Frame struct {
	MonitorIndex int
	Image        image.Image
	Bytes        []byte
}

// Capturer captures the currently active monitors. Implementations wrap
// the host's screenshot API; Loop only depends on this narrow interface so
// it can be exercised with a fake in tests.
type Capturer interface {
	CaptureActive(ctx context.Context) ([]Frame, error)
}

// WindowProbe reports the foreground application and window title, used by
// the exclusion gate.
type WindowProbe interface {
	ActiveWindow(ctx context.Context) (appName, windowTitle string, err error)
}

// IdleProbe reports whether the user is currently idle, pausing capture
// without changing State (idle is transient, pause is a user decision).
type IdleProbe interface {
	IsIdle() bool
}

// Result is a completed capture, handed to every OnCapture callback.
type Result struct {
	MonitorIndex int
	Image        image.Image
	Bytes        []byte
	Timestamp    time.Time
	Reason       string
}

// Loop coordinates a Capturer, ChangeDetector, ExclusionFilter, and
// IdleProbe into the tick-driven capture loop: on a 1-second tick it checks
// a watchdog for hangs, then pause/idle/exclusion gates in that order,
// captures active monitors, and routes each through the change detector.
type Loop struct {
	capturer  Capturer
	detector  *ChangeDetector
	exclusion *ExclusionFilter
	idle      IdleProbe
	window    WindowProbe
	logger    *slog.Logger

	mu               sync.Mutex
	state            State
	lastCaptureAt    time.Time
	consecutiveFails int

	onCapture []func(Result)
	onSkip    []func(reason string)
}

// NewLoop wires a Loop. idle and window may be nil, in which case their
// gates are skipped (useful on platforms or in tests with no probe).
func NewLoop(capturer Capturer, detector *ChangeDetector, exclusion *ExclusionFilter, idle IdleProbe, window WindowProbe, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		capturer:  capturer,
		detector:  detector,
		exclusion: exclusion,
		idle:      idle,
		window:    window,
		logger:    logger,
		state:     StateStopped,
	}
}

// OnCapture registers a callback fired for every accepted capture.
func (l *Loop) OnCapture(f func(Result)) { l.onCapture = append(l.onCapture, f) }

// OnSkip registers a callback fired whenever a tick produces no capture.
func (l *Loop) OnSkip(f func(reason string)) { l.onSkip = append(l.onSkip, f) }

// State returns the loop's current run state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Pause suspends capturing without stopping the tick goroutine.
func (l *Loop) Pause() { l.setState(StatePaused) }

// Resume resumes a paused loop; it is a no-op if not currently paused.
func (l *Loop) Resume() {
	l.mu.Lock()
	if l.state == StatePaused {
		l.state = StateRunning
	}
	l.mu.Unlock()
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Run starts the tick loop and blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.setState(StateRunning)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.setState(StateStopped)
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	l.checkWatchdog()

	if l.State() == StatePaused {
		return
	}

	if l.idle != nil && l.idle.IsIdle() {
		l.notifySkip("user_idle")
		return
	}

	if l.exclusion != nil && l.window != nil {
		appName, title, err := l.window.ActiveWindow(ctx)
		if err == nil {
			if excluded, pattern := l.exclusion.ShouldExclude(appName, title); excluded {
				l.notifySkip("excluded_app: " + pattern)
				return
			}
		}
	}

	frames, err := l.capturer.CaptureActive(ctx)
	if err != nil {
		l.handleCaptureError(err)
		return
	}
	l.mu.Lock()
	l.consecutiveFails = 0
	l.mu.Unlock()

	now := time.Now()
	for _, f := range frames {
		should, reason := l.detector.ShouldCapture(f.MonitorIndex, f.Image, now)
		if !should {
			l.notifySkip("no_change: monitor " + strconv.Itoa(f.MonitorIndex))
			continue
		}
		l.detector.RecordCapture(f.MonitorIndex, f.Image, now)

		l.mu.Lock()
		l.lastCaptureAt = now
		l.mu.Unlock()

		result := Result{MonitorIndex: f.MonitorIndex, Image: f.Image, Bytes: f.Bytes, Timestamp: now, Reason: reason}
		for _, cb := range l.onCapture {
			cb(result)
		}
	}
}

func (l *Loop) handleCaptureError(err error) {
	l.mu.Lock()
	l.consecutiveFails++
	fails := l.consecutiveFails
	l.mu.Unlock()

	l.logger.Error("capture failed", "attempt", fails, "max", maxConsecutiveErrors, "err", err)
	l.notifySkip("capture_error: " + err.Error())

	if fails >= maxConsecutiveErrors {
		l.logger.Warn("too many consecutive capture errors, settling before retry", "count", fails)
		time.Sleep(recoverySettle)
		l.mu.Lock()
		l.consecutiveFails = 0
		l.mu.Unlock()
	}
}

// checkWatchdog logs (but does not otherwise act on) a capture gap past
// watchdogTimeout — the Go Capturer, unlike the Python agent's Wayland grim
// wrapper, has no internal process state to recreate, so there is nothing
// further to recover beyond surfacing the stall.
func (l *Loop) checkWatchdog() {
	l.mu.Lock()
	last := l.lastCaptureAt
	l.mu.Unlock()

	if last.IsZero() {
		return
	}
	if gap := time.Since(last); gap > watchdogTimeout {
		l.logger.Warn("capture watchdog: no capture in a while", "since", gap)
	}
}

func (l *Loop) notifySkip(reason string) {
	for _, cb := range l.onSkip {
		cb(reason)
	}
}
