package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message written at info level: %s", buf.String())
	}

	log.Info().Int("samples", 3).Msg("frame")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if rec["message"] != "frame" || rec["level"] != "info" {
		t.Errorf("record = %v", rec)
	}
	if rec["samples"] != float64(3) {
		t.Errorf("samples = %v, want 3", rec["samples"])
	}
	if _, ok := rec["pid"]; !ok {
		t.Error("pid field missing")
	}
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug message missing: %q", buf.String())
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsole(&buf, false, "ecg")
	log.Info().Msg("readout started")

	out := buf.String()
	if !strings.Contains(out, "ecg") || !strings.Contains(out, "readout started") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colors used for a non-terminal writer: %q", out)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
