package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("scanner", &buf)

	logger.Warnf("skipped %d fields", 2)
	logger.Named("label").Debugf("resolved %q", "Email")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "[scanner] [WARN] skipped 2 fields") {
		t.Errorf("unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "[scanner.label] [DEBUG] resolved \"Email\"") {
		t.Errorf("unexpected second line: %s", lines[1])
	}
}

func TestSessionIDStable(t *testing.T) {
	a := Discard("a")
	b := Discard("b")
	if a.SessionID() == "" || a.SessionID() != b.SessionID() {
		t.Errorf("session IDs should be shared and non-empty: %q %q", a.SessionID(), b.SessionID())
	}
	if GetSessionID() != a.SessionID() {
		t.Error("GetSessionID does not match logger session")
	}
}

func TestCloseIdempotent(t *testing.T) {
	logger := Discard("close")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
