package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// SwayWindowProbe reports the active window by querying sway's IPC tree,
// the Wayland compositor the GrimCapturer also targets. There is no
// cross-compositor equivalent of X11's _NET_ACTIVE_WINDOW on Wayland, so
// this probe is sway-specific; on any other compositor ActiveWindow
// returns empty strings rather than an error, letting the exclusion gate
// simply pass everything through.
type SwayWindowProbe struct {
	timeout time.Duration
}

// NewSwayWindowProbe creates a probe that shells out to swaymsg.
func NewSwayWindowProbe() *SwayWindowProbe {
	return &SwayWindowProbe{timeout: 2 * time.Second}
}

// Available reports whether swaymsg is on PATH.
func (p *SwayWindowProbe) Available() bool {
	_, err := exec.LookPath("swaymsg")
	return err == nil
}

type swayNode struct {
	Name    string      `json:"name"`
	AppID   string      `json:"app_id"`
	Focused bool        `json:"focused"`
	Nodes   []swayNode  `json:"nodes"`
	Floats  []swayNode  `json:"floating_nodes"`
	WinProp *swayWinProp `json:"window_properties"`
}

type swayWinProp struct {
	Class string `json:"class"`
}

// ActiveWindow returns the focused node's app id (or X11 window class, for
// XWayland apps) and title, found by walking sway's window tree.
func (p *SwayWindowProbe) ActiveWindow(ctx context.Context) (appName, windowTitle string, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "swaymsg", "-t", "get_tree").Output()
	if err != nil {
		return "", "", fmt.Errorf("windowprobe: swaymsg get_tree: %w", err)
	}

	var root swayNode
	if err := json.Unmarshal(out, &root); err != nil {
		return "", "", fmt.Errorf("windowprobe: decode tree: %w", err)
	}

	focused, ok := findFocused(root)
	if !ok {
		return "", "", nil
	}

	app := focused.AppID
	if app == "" && focused.WinProp != nil {
		app = focused.WinProp.Class
	}
	return app, focused.Name, nil
}

func findFocused(n swayNode) (swayNode, bool) {
	if n.Focused {
		return n, true
	}
	for _, child := range n.Nodes {
		if found, ok := findFocused(child); ok {
			return found, true
		}
	}
	for _, child := range n.Floats {
		if found, ok := findFocused(child); ok {
			return found, true
		}
	}
	return swayNode{}, false
}
