package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNilTracerIsNoOp(t *testing.T) {
	var tracer *Tracer
	ctx, span := tracer.Start(context.Background(), "anything", nil)
	if ctx == nil {
		t.Fatal("nil tracer must still return a usable context")
	}
	span.End("output", errors.New("ignored")) // must not panic
}

func TestSpanParentLinking(t *testing.T) {
	tracer := New(quietLogger())

	ctx, parent := tracer.Start(context.Background(), "run", nil)
	_, child := tracer.Start(ctx, "parse_full_contract", nil)

	if parent.ID == "" || child.ID == "" {
		t.Fatal("spans need IDs")
	}
	if child.ParentID != parent.ID {
		t.Errorf("child parent ID %q, want %q", child.ParentID, parent.ID)
	}
	if parent.ParentID != "" {
		t.Errorf("root span should have no parent, got %q", parent.ParentID)
	}
}

func TestSinkRecordsCompletedSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := New(quietLogger()).WithSink(&buf)

	_, span := tracer.Start(context.Background(), "contextualization_agent", map[string]any{"contract_id": "c-1"})
	span.End("the resulting excerpt", nil)

	_, failed := tracer.Start(context.Background(), "extraction_agent", nil)
	failed.End("", errors.New("model overloaded"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL records, got %d: %q", len(lines), buf.String())
	}

	var first Span
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if first.Name != "contextualization_agent" || first.Output != "the resulting excerpt" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.Input["contract_id"] != "c-1" {
		t.Errorf("input metadata lost: %+v", first.Input)
	}

	var second Span
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if second.Error != "model overloaded" {
		t.Errorf("error not recorded: %+v", second)
	}
}

func TestSpanOutputTruncated(t *testing.T) {
	var buf bytes.Buffer
	tracer := New(quietLogger()).WithSink(&buf)

	_, span := tracer.Start(context.Background(), "image_parsing", nil)
	span.End(strings.Repeat("x", 2000), nil)

	var rec Span
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if len(rec.Output) > 600 {
		t.Errorf("output not truncated: %d chars", len(rec.Output))
	}
	if !strings.HasSuffix(rec.Output, "...[truncated]") {
		t.Errorf("truncated output should be marked: %q", rec.Output[len(rec.Output)-30:])
	}
}
