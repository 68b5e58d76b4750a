package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyExtraction marks a vision call that succeeded but returned no text.
// Used as the primary cause when the fallback path was entered on empty
// output rather than on an error.
var ErrEmptyExtraction = errors.New("model returned empty text")

// ExtractionError reports that both the primary and fallback vision models
// failed for one page image. Fatal to the enclosing document assembly.
type ExtractionError struct {
	ImagePath     string
	PrimaryModel  string
	FallbackModel string
	PrimaryErr    error
	FallbackErr   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("page extraction failed for %s: primary model %s: %v; fallback model %s: %v",
		e.ImagePath, e.PrimaryModel, e.PrimaryErr, e.FallbackModel, e.FallbackErr)
}

// Unwrap exposes both underlying causes to errors.Is/As.
func (e *ExtractionError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}

// Stage identifies a pipeline stage for error reporting.
type Stage string

const (
	StageAssembly         Stage = "document_assembly"
	StageContextualize    Stage = "contextualization"
	StageChangeExtraction Stage = "change_extraction"
)

// StageError wraps a fatal stage failure. Schema violations from the
// structured stages surface through here; they are model contract
// violations, not transient faults, and are never retried.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
