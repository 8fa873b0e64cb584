package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewJSONLoggerKeepsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithAttrs(WithLogger(context.Background(), logger), slog.String("component", "saga"))
	Info(ctx, "saga committed", slog.Int("attempts", 2))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "saga committed" || line["component"] != "saga" || line["attempts"] != float64(2) {
		t.Fatalf("log line = %v", line)
	}
}

func TestNewRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := New(nil, "info", "xml"); err == nil {
		t.Fatalf("New() expected format error")
	}
	if _, err := New(nil, "loud", "text"); err == nil {
		t.Fatalf("New() expected level error")
	}
}

func TestWithEventReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithAttrs(WithLogger(context.Background(), logger), slog.String("component", "cli"))
	ctx = WithEvent(ctx, "ticket", 7)
	Info(ctx, "event children reconciled")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["component"] != "events" || line["kind"] != "ticket" || line["specialization_id"] != float64(7) {
		t.Fatalf("log line = %v", line)
	}
}

func TestLevelFilteringSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), logger)
	Info(ctx, "dropped")
	Warn(ctx, "kept")
	if got := buf.String(); bytes.Contains([]byte(got), []byte("dropped")) || !bytes.Contains([]byte(got), []byte("kept")) {
		t.Fatalf("output = %q", got)
	}
}
