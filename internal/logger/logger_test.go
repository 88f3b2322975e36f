package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	l.Debug("hidden")
	l.Info("shown", "frames", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug output should be suppressed: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "frames=3") {
		t.Errorf("Expected info output with key/value, got %q", out)
	}
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Debug: true, Output: &buf}).Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("Expected debug output, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing")
}
