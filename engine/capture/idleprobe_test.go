package capture

import (
	"testing"
	"time"
)

func TestXPrintIdleProbe_AvailableDoesNotPanicWithoutXPrintIdle(t *testing.T) {
	p := NewXPrintIdleProbe(3 * time.Minute)
	_ = p.Available()
}

func TestXPrintIdleProbe_IsIdleFalseWhenToolMissing(t *testing.T) {
	p := NewXPrintIdleProbe(3 * time.Minute)
	if p.Available() {
		t.Skip("xprintidle is installed on this host; behavior depends on real idle time")
	}
	if p.IsIdle() {
		t.Error("expected IsIdle to report false when xprintidle is unavailable")
	}
}
