package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: FormatJSON}, &buf)

	logger.WithField("seed", 42).Debug("survey start")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "survey start" {
		t.Fatalf("msg = %v, want survey start", entry["msg"])
	}
	if entry["seed"] != float64(42) {
		t.Fatalf("seed = %v, want 42", entry["seed"])
	}
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	logger := New(Config{Level: "loud", Format: "weird"}, &bytes.Buffer{})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("formatter = %T, want text", logger.Formatter)
	}
}

func TestTextFormatWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info"}, &buf)
	logger.WithField("phase", "deep_dive").Info("phase done")
	if !strings.Contains(buf.String(), "phase=deep_dive") {
		t.Fatalf("output = %q, want phase field", buf.String())
	}
}

func TestDiscardDropsEntries(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	if logger.IsLevelEnabled(logrus.ErrorLevel) {
		t.Fatal("expected discard logger to disable error level")
	}
}
