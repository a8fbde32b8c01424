package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func withBuffer(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Enabled()
	SetOutput(&buf)
	SetEnabled(on)
	t.Cleanup(func() {
		SetEnabled(prev)
		SetOutput(nil)
	})
	return &buf
}

func TestLogDisabledWritesNothing(t *testing.T) {
	buf := withBuffer(t, false)
	Log("hidden %d", 1)
	Section("hidden")
	LogEnterExit("hidden")()
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := withBuffer(t, true)
	Log("built %d nodes", 3)
	LogTiming("layout", 2*time.Millisecond)
	LogIf(false, "skipped")
	LogIf(true, "kept")

	out := buf.String()
	for _, want := range []string{prefix, "built 3 nodes", "layout took 2ms", "kept"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("expected LogIf(false) to be silent, got %q", out)
	}
}

func TestLogEnterExit(t *testing.T) {
	buf := withBuffer(t, true)
	LogEnterExit("focus")()
	out := buf.String()
	if !strings.Contains(out, "-> focus") || !strings.Contains(out, "<- focus") {
		t.Errorf("expected enter and exit lines, got %q", out)
	}
}
