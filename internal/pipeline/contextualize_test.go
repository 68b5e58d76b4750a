package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/redline/internal/providers"
)

const testTextModel = "openai/gpt-4o"

func TestContextualize(t *testing.T) {
	t.Run("returns decoded pair", func(t *testing.T) {
		response := json.RawMessage(`{
			"original_contract_text": "Section 5: Termination requires 30 days notice.",
			"amendment_text": "Section 5 is amended: termination requires 60 days notice."
		}`)

		client := providers.NewMockClient()
		client.RespondFunc = func(req *providers.ChatRequest) (*providers.ChatResult, error) {
			if req.ResponseFormat == nil {
				t.Error("contextualization must request structured output")
			}
			if req.Temperature == nil || *req.Temperature != 0 {
				t.Errorf("expected temperature 0, got %v", req.Temperature)
			}
			return &providers.ChatResult{Success: true, Content: string(response), ParsedJSON: response}, nil
		}

		c := &Contextualizer{Client: client, Model: testTextModel}
		pair, err := c.Contextualize(context.Background(), "full original", "full amendment", "contract-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(pair.OriginalExcerpt, "30 days") {
			t.Errorf("unexpected original excerpt: %q", pair.OriginalExcerpt)
		}
		if !strings.Contains(pair.AmendmentText, "60 days") {
			t.Errorf("unexpected amendment text: %q", pair.AmendmentText)
		}
	})

	t.Run("user prompt carries both documents verbatim", func(t *testing.T) {
		response := json.RawMessage(`{
			"original_contract_text": "excerpt text",
			"amendment_text": "amendment text"
		}`)
		client := providers.NewMockClient()
		client.ResponseJSON = response

		original := "The Party of the First Part shall deliver goods within 30 days."
		amendment := "Delivery deadline extended to 60 days."

		c := &Contextualizer{Client: client, Model: testTextModel}
		if _, err := c.Contextualize(context.Background(), original, amendment, "contract-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reqs := client.Requests()
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
		user := reqs[0].Messages[len(reqs[0].Messages)-1].Content
		if !strings.Contains(user, original) || !strings.Contains(user, amendment) {
			t.Errorf("user prompt should carry both documents verbatim: %q", user)
		}
		if !strings.Contains(user, "ORIGINAL CONTRACT:") || !strings.Contains(user, "AMENDMENT:") {
			t.Errorf("user prompt missing document labels: %q", user)
		}
	})

	t.Run("client error becomes contextualization stage error", func(t *testing.T) {
		cause := errors.New("provider down")
		client := providers.NewMockClient()
		client.RespondFunc = func(req *providers.ChatRequest) (*providers.ChatResult, error) {
			return nil, cause
		}

		c := &Contextualizer{Client: client, Model: testTextModel}
		_, err := c.Contextualize(context.Background(), "original", "amendment", "contract-1")

		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			t.Fatalf("expected *StageError, got %T", err)
		}
		if stageErr.Stage != StageContextualize {
			t.Errorf("wrong stage: %v", stageErr.Stage)
		}
		if !errors.Is(err, cause) {
			t.Error("cause should be preserved")
		}
	})

	t.Run("non-conforming response is fatal", func(t *testing.T) {
		// Decodes but fails validation: excerpt below minimum length.
		response := json.RawMessage(`{"original_contract_text": "abc", "amendment_text": "long enough amendment"}`)
		client := providers.NewMockClient()
		client.ResponseJSON = response

		c := &Contextualizer{Client: client, Model: testTextModel}
		_, err := c.Contextualize(context.Background(), "original", "amendment", "contract-1")
		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageContextualize {
			t.Fatalf("expected contextualization stage error, got %v", err)
		}
	})
}
