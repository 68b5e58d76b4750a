// Package contract defines the validated records exchanged between pipeline
// stages. Model responses are treated as untrusted bytes: they are decoded,
// validated, and only then promoted to one of these types.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// minTextLength is the minimum length for free-text fields on validated
// records. Anything shorter is treated as a degenerate model response.
const minTextLength = 5

// ContextualizedPair is the Contextualizer's output: the slice of the
// original contract impacted by the amendment, plus the amendment text.
type ContextualizedPair struct {
	OriginalExcerpt string `json:"original_contract_text" yaml:"original_contract_text"`
	AmendmentText   string `json:"amendment_text" yaml:"amendment_text"`
}

// Validate checks the pair's field constraints.
func (p *ContextualizedPair) Validate() error {
	if err := minLength("original_contract_text", p.OriginalExcerpt); err != nil {
		return err
	}
	return minLength("amendment_text", p.AmendmentText)
}

// ChangeSummary is the pipeline's terminal artifact: a structured summary of
// what the amendment changes in the original contract.
type ChangeSummary struct {
	TopicsTouched      []string `json:"topics_touched" yaml:"topics_touched"`
	SectionsChanged    []string `json:"sections_changed" yaml:"sections_changed"`
	SummaryOfTheChange string   `json:"summary_of_the_change" yaml:"summary_of_the_change"`
}

// Validate checks the summary's field constraints.
func (s *ChangeSummary) Validate() error {
	if err := nonEmptyList("topics_touched", s.TopicsTouched); err != nil {
		return err
	}
	if err := nonEmptyList("sections_changed", s.SectionsChanged); err != nil {
		return err
	}
	return minLength("summary_of_the_change", s.SummaryOfTheChange)
}

// ValidationError reports a field that failed record validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func minLength(field, value string) error {
	if len(strings.TrimSpace(value)) < minTextLength {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at least %d characters", minTextLength)}
	}
	return nil
}

func nonEmptyList(field string, items []string) error {
	if len(items) == 0 {
		return &ValidationError{Field: field, Reason: "must contain at least one entry"}
	}
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("entry %d must not be empty", i)}
		}
	}
	return nil
}

// DecodeContextualizedPair decodes and validates a raw model response.
func DecodeContextualizedPair(raw json.RawMessage) (*ContextualizedPair, error) {
	var pair ContextualizedPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, fmt.Errorf("failed to decode contextualized pair: %w", err)
	}
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	return &pair, nil
}

// DecodeChangeSummary decodes and validates a raw model response.
func DecodeChangeSummary(raw json.RawMessage) (*ChangeSummary, error) {
	var summary ChangeSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode change summary: %w", err)
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return &summary, nil
}
