// Package trace records named spans around pipeline stages. It is purely
// observational: spans carry input/output metadata to the log (and optionally
// a JSONL file) and never influence control flow. A nil Tracer is a no-op.
package trace

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracer creates spans. One tracer is shared per pipeline run; the zero
// value (and nil) disables recording.
type Tracer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sink io.Writer // optional JSONL sink
}

// New creates a tracer that records spans to the given logger.
func New(logger *slog.Logger) *Tracer {
	return &Tracer{logger: logger}
}

// WithSink adds a JSONL sink that receives one record per completed span.
func (t *Tracer) WithSink(w io.Writer) *Tracer {
	t.sink = w
	return t
}

// Span is a single traced operation.
type Span struct {
	tracer *Tracer

	ID       string         `json:"id"`
	ParentID string         `json:"parent_id,omitempty"`
	Name     string         `json:"name"`
	Input    map[string]any `json:"input,omitempty"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

type spanKey struct{}

// Start opens a span and attaches it to the returned context so child spans
// link to it. Safe on a nil tracer.
func (t *Tracer) Start(ctx context.Context, name string, input map[string]any) (context.Context, *Span) {
	if t == nil {
		return ctx, nil
	}

	span := &Span{
		tracer:    t,
		ID:        uuid.New().String(),
		Name:      name,
		Input:     input,
		StartedAt: time.Now(),
	}
	if parent, ok := ctx.Value(spanKey{}).(*Span); ok && parent != nil {
		span.ParentID = parent.ID
	}

	if t.logger != nil {
		t.logger.Debug("span started", "span", name, "span_id", span.ID, "parent_id", span.ParentID)
	}

	return context.WithValue(ctx, spanKey{}, span), span
}

// End closes the span, recording a truncated output summary and any error.
// Safe on a nil span.
func (s *Span) End(output string, err error) {
	if s == nil {
		return
	}
	s.Duration = time.Since(s.StartedAt)
	s.Output = truncate(output, 500)
	if err != nil {
		s.Error = err.Error()
	}

	t := s.tracer
	if t.logger != nil {
		if err != nil {
			t.logger.Warn("span failed", "span", s.Name, "span_id", s.ID, "duration", s.Duration, "error", err)
		} else {
			t.logger.Debug("span completed", "span", s.Name, "span_id", s.ID, "duration", s.Duration)
		}
	}

	if t.sink != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if data, mErr := json.Marshal(s); mErr == nil {
			t.sink.Write(append(data, '\n'))
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
