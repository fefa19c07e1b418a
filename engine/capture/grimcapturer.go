package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/disintegration/imaging"
)

const grimTimeout = 10 * time.Second

// GrimCapturer captures the full Wayland output via the grim command-line
// tool, writing to a temp file and decoding it back into a Frame. grim
// captures every output as one combined image, so GrimCapturer always
// reports a single monitor at index 0 — matching the original agent's
// "virtual monitor" treatment of a Wayland capture.
type GrimCapturer struct {
	JPEGQuality int
}

// NewGrimCapturer builds a GrimCapturer at the given JPEG quality (1-100).
func NewGrimCapturer(jpegQuality int) *GrimCapturer {
	if jpegQuality <= 0 {
		jpegQuality = 80
	}
	return &GrimCapturer{JPEGQuality: jpegQuality}
}

// Available reports whether grim is on PATH, letting callers fall back to
// another Capturer on non-Wayland hosts.
func (g *GrimCapturer) Available() bool {
	_, err := exec.LookPath("grim")
	return err == nil
}

func (g *GrimCapturer) CaptureActive(ctx context.Context) ([]Frame, error) {
	tmp, err := os.CreateTemp("", "jarvis-capture-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("capture: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(ctx, grimTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "grim", "-t", "jpeg", "-q", fmt.Sprint(g.JPEGQuality), tmpPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("capture: grim failed: %w (%s)", err, out)
	}

	jpegBytes, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("capture: read grim output: %w", err)
	}

	img, err := imaging.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("capture: decode grim output: %w", err)
	}

	return []Frame{{MonitorIndex: 0, Image: img, Bytes: jpegBytes}}, nil
}
