package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestContextualizedPairValidate(t *testing.T) {
	t.Run("valid pair", func(t *testing.T) {
		pair := ContextualizedPair{
			OriginalExcerpt: "Section 5 - Termination: either party may terminate with 30 days notice.",
			AmendmentText:   "Section 5 - Termination: either party may terminate with 60 days notice.",
		}
		if err := pair.Validate(); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
	})

	t.Run("empty original excerpt", func(t *testing.T) {
		pair := ContextualizedPair{
			OriginalExcerpt: "",
			AmendmentText:   "This is a valid amendment text.",
		}
		err := pair.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if vErr.Field != "original_contract_text" {
			t.Errorf("unexpected field: %s", vErr.Field)
		}
	})

	t.Run("whitespace amendment", func(t *testing.T) {
		pair := ContextualizedPair{
			OriginalExcerpt: "This is a valid original text.",
			AmendmentText:   "    ",
		}
		if err := pair.Validate(); err == nil {
			t.Fatal("expected validation error for whitespace-only amendment")
		}
	})

	t.Run("too short", func(t *testing.T) {
		pair := ContextualizedPair{
			OriginalExcerpt: "abc",
			AmendmentText:   "This is a valid amendment text.",
		}
		if err := pair.Validate(); err == nil {
			t.Fatal("expected validation error for short original excerpt")
		}
	})
}

func TestChangeSummaryValidate(t *testing.T) {
	valid := ChangeSummary{
		TopicsTouched:      []string{"Termination", "Liability"},
		SectionsChanged:    []string{"Section 5 – Termination"},
		SummaryOfTheChange: "Section 5: -notice period extended from 30 to 60 days",
	}

	t.Run("valid summary", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
	})

	t.Run("empty topics", func(t *testing.T) {
		s := valid
		s.TopicsTouched = nil
		if err := s.Validate(); err == nil {
			t.Fatal("expected validation error for empty topics_touched")
		}
	})

	t.Run("empty sections", func(t *testing.T) {
		s := valid
		s.SectionsChanged = []string{}
		if err := s.Validate(); err == nil {
			t.Fatal("expected validation error for empty sections_changed")
		}
	})

	t.Run("blank list entry", func(t *testing.T) {
		s := valid
		s.TopicsTouched = []string{"Termination", "  "}
		err := s.Validate()
		if err == nil {
			t.Fatal("expected validation error for blank topic")
		}
		if !strings.Contains(err.Error(), "entry 1") {
			t.Errorf("error should name the offending entry: %v", err)
		}
	})

	t.Run("short summary", func(t *testing.T) {
		s := valid
		s.SummaryOfTheChange = "abcd"
		if err := s.Validate(); err == nil {
			t.Fatal("expected validation error for short summary")
		}
	})
}

func TestDecodeContextualizedPair(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		raw := json.RawMessage(`{
			"original_contract_text": "Section 5: termination requires 30 days notice.",
			"amendment_text": "Section 5: termination requires 60 days notice."
		}`)
		pair, err := DecodeContextualizedPair(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(pair.OriginalExcerpt, "30 days") {
			t.Errorf("unexpected original excerpt: %q", pair.OriginalExcerpt)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		raw := json.RawMessage(`{"original_contract_text": "Section 5: termination requires 30 days notice."}`)
		if _, err := DecodeContextualizedPair(raw); err == nil {
			t.Fatal("expected error for missing amendment_text")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := DecodeContextualizedPair(json.RawMessage(`{not json`)); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestDecodeChangeSummary(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		raw := json.RawMessage(`{
			"topics_touched": ["Termination"],
			"sections_changed": ["Section 5 – Termination"],
			"summary_of_the_change": "Section 5: -notice period extended"
		}`)
		summary, err := DecodeChangeSummary(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(summary.TopicsTouched) != 1 || summary.TopicsTouched[0] != "Termination" {
			t.Errorf("unexpected topics: %v", summary.TopicsTouched)
		}
	})

	t.Run("empty lists rejected", func(t *testing.T) {
		raw := json.RawMessage(`{
			"topics_touched": [],
			"sections_changed": ["Section 5"],
			"summary_of_the_change": "Section 5: -changed"
		}`)
		if _, err := DecodeChangeSummary(raw); err == nil {
			t.Fatal("expected validation error for empty topics_touched")
		}
	})
}
