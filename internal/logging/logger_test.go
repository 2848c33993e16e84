package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mkarlsen/stratagem/internal/models"
)

func captureLogger(level string) (*Logger, *bytes.Buffer) {
	l := New(Config{Level: level, Format: "json"})
	buf := &bytes.Buffer{}
	l.Entry.Logger.SetOutput(buf)
	return l, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	return fields
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	l := New(Config{Level: "not-a-level"})
	if got := l.Entry.Logger.GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", got)
	}
}

func TestComponentFieldSticksThroughChaining(t *testing.T) {
	l, buf := captureLogger("info")
	l.Component("executor").WithField("task", "data_AAPL").Info("running")

	fields := decodeLine(t, buf)
	if fields["component"] != "executor" || fields["task"] != "data_AAPL" {
		t.Errorf("fields = %v, want component and task preserved", fields)
	}
}

func TestLogOutcomeFailureCarriesReason(t *testing.T) {
	l, buf := captureLogger("info")
	l.LogOutcome("data_AAPL", "yahoo_finance", models.Failf("network unreachable"))

	fields := decodeLine(t, buf)
	if fields["success"] != false || fields["reason"] != "network unreachable" {
		t.Errorf("fields = %v", fields)
	}
	if fields["level"] != "warning" {
		t.Errorf("level = %v, want warning for failures", fields["level"])
	}
}

func TestLogQueryEmitsCategoryAndSymbols(t *testing.T) {
	l, buf := captureLogger("info")
	l.LogQuery("compare AAPL and MSFT", "comparison", []string{"AAPL", "MSFT"})

	fields := decodeLine(t, buf)
	if fields["category"] != "comparison" || fields["symbols"] != "AAPL,MSFT" {
		t.Errorf("fields = %v", fields)
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	l, buf := captureLogger("info")
	l.Entry.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line leaked: %q", buf.String())
	}
}
