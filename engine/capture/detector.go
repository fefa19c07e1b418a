package capture

import (
	"image"
	"sync"
	"time"
)

// HashThreshold is the Hamming-distance cutoff above which two frames are
// considered different enough to warrant a capture, out of the 64 bits in
// an AverageHash.
const HashThreshold = 5

// Reason names why ShouldCapture returned true, matching the agent's own
// capture_loop reason strings so downstream logs stay legible.
const (
	ReasonFirstCapture    = "first_capture"
	ReasonIntervalElapsed = "interval_elapsed"
	ReasonContentChanged  = "content_changed"
)

type monitorState struct {
	lastHash    uint64
	lastCapture time.Time
	hasCaptured bool
}

// ChangeDetector decides, per monitor, whether a newly grabbed frame should
// be kept: always on the first frame, on any frame past minInterval since
// the last capture (so long-running static screens still get a heartbeat
// capture), or whenever the perceptual hash differs enough from the last
// captured frame.
type ChangeDetector struct {
	minInterval time.Duration

	mu     sync.Mutex
	states map[int]*monitorState
}

// NewChangeDetector builds a detector that forces a capture at least every
// minInterval even without content change.
func NewChangeDetector(minInterval time.Duration) *ChangeDetector {
	return &ChangeDetector{minInterval: minInterval, states: map[int]*monitorState{}}
}

// ShouldCapture reports whether monitorIndex's frame should be captured, and
// why. It does not record the capture — call RecordCapture after acting on
// a true result.
func (d *ChangeDetector) ShouldCapture(monitorIndex int, frame image.Image, now time.Time) (bool, string) {
	d.mu.Lock()
	st, ok := d.states[monitorIndex]
	d.mu.Unlock()

	if !ok || !st.hasCaptured {
		return true, ReasonFirstCapture
	}
	if now.Sub(st.lastCapture) >= d.minInterval {
		return true, ReasonIntervalElapsed
	}

	hash := AverageHash(frame)
	if HammingDistance(hash, st.lastHash) > HashThreshold {
		return true, ReasonContentChanged
	}
	return false, ""
}

// RecordCapture stores frame's hash and timestamp as the new baseline for
// monitorIndex.
func (d *ChangeDetector) RecordCapture(monitorIndex int, frame image.Image, now time.Time) {
	hash := AverageHash(frame)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[monitorIndex] = &monitorState{lastHash: hash, lastCapture: now, hasCaptured: true}
}
