package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/providers"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Models.Text = testTextModel
	cfg.Models.Vision = testPrimaryModel
	cfg.Models.VisionFallback = testFallbackModel
	return cfg
}

// hasImages reports whether a request is a vision extraction call.
func hasImages(req *providers.ChatRequest) bool {
	for _, msg := range req.Messages {
		if len(msg.ImageURLs) > 0 {
			return true
		}
	}
	return false
}

func TestPipelineRun(t *testing.T) {
	originalDir := t.TempDir()
	writeTestImage(t, originalDir, "page-0001.png", "orig-1")
	writeTestImage(t, originalDir, "page-0002.png", "orig-2")
	amendmentDir := t.TempDir()
	writeTestImage(t, amendmentDir, "page-0001.png", "amend-1")

	pairJSON := json.RawMessage(`{
		"original_contract_text": "Section 5: Termination requires 30 days written notice.",
		"amendment_text": "Section 5 is amended to require 60 days written notice."
	}`)
	summaryJSON := json.RawMessage(`{
		"topics_touched": ["termination"],
		"sections_changed": ["Section 5"],
		"summary_of_the_change": "Section 5: -termination notice extended from 30 days to 60 days"
	}`)

	client := providers.NewMockClient()
	client.RespondFunc = func(req *providers.ChatRequest) (*providers.ChatResult, error) {
		if hasImages(req) {
			switch pageContent(t, req) {
			case "orig-1":
				return &providers.ChatResult{Success: true, Content: "Section 5: Termination requires 30 days written notice.\n"}, nil
			case "orig-2":
				return &providers.ChatResult{Success: true, Content: "Section 6: Governing law is Delaware.\n"}, nil
			case "amend-1":
				return &providers.ChatResult{Success: true, Content: "Section 5 is amended to require 60 days written notice.\n"}, nil
			}
			return nil, errors.New("unknown page")
		}

		user := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.Contains(user, "ORIGINAL CONTRACT CONTENT:"):
			// The extractor must receive the contextualized excerpts, not
			// the full assembled documents.
			if strings.Contains(user, "Governing law") {
				t.Error("change extraction received unfiltered document text")
			}
			if !strings.Contains(user, "30 days") || !strings.Contains(user, "60 days") {
				t.Errorf("excerpt pair not handed off intact: %q", user)
			}
			return &providers.ChatResult{Success: true, Content: string(summaryJSON), ParsedJSON: summaryJSON}, nil
		case strings.Contains(user, "ORIGINAL CONTRACT:"):
			// Contextualization sees both assembled documents, pages joined
			// in filename order.
			if !strings.Contains(user, "Section 5: Termination requires 30 days written notice.\nSection 6: Governing law is Delaware.\n") {
				t.Errorf("original document not assembled in page order: %q", user)
			}
			return &providers.ChatResult{Success: true, Content: string(pairJSON), ParsedJSON: pairJSON}, nil
		}
		return nil, errors.New("unrecognized request")
	}

	p := New(testConfig(), client, nil, nil)
	summary, err := p.Run(context.Background(), originalDir, amendmentDir, "contract-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.SectionsChanged) != 1 || summary.SectionsChanged[0] != "Section 5" {
		t.Errorf("unexpected sections changed: %v", summary.SectionsChanged)
	}
	if !strings.Contains(summary.SummaryOfTheChange, "30 days to 60 days") {
		t.Errorf("unexpected summary: %q", summary.SummaryOfTheChange)
	}
	// 3 vision calls + contextualization + change extraction.
	if got := client.RequestCount(); got != 5 {
		t.Errorf("expected 5 model calls, got %d", got)
	}
}

func TestPipelineRunAbortsOnAssemblyFailure(t *testing.T) {
	originalDir := t.TempDir()
	writeTestImage(t, originalDir, "page-0001.png", "orig-1")
	amendmentDir := t.TempDir()
	writeTestImage(t, amendmentDir, "page-0001.png", "amend-1")

	client := providers.NewMockClient()
	client.RespondFunc = func(req *providers.ChatRequest) (*providers.ChatResult, error) {
		if hasImages(req) && pageContent(t, req) == "amend-1" {
			return nil, errors.New("vision provider rejected image")
		}
		if hasImages(req) {
			return &providers.ChatResult{Success: true, Content: "text\n"}, nil
		}
		t.Error("text stages should not run after assembly failure")
		return nil, errors.New("unreachable")
	}

	p := New(testConfig(), client, nil, nil)
	if _, err := p.Run(context.Background(), originalDir, amendmentDir, "contract-1"); err == nil {
		t.Fatal("expected run to fail")
	}
}

func TestPipelineRunAbortsOnContextualizationFailure(t *testing.T) {
	originalDir := t.TempDir()
	writeTestImage(t, originalDir, "page-0001.png", "orig-1")
	amendmentDir := t.TempDir()
	writeTestImage(t, amendmentDir, "page-0001.png", "amend-1")

	client := providers.NewMockClient()
	client.RespondFunc = func(req *providers.ChatRequest) (*providers.ChatResult, error) {
		if hasImages(req) {
			return &providers.ChatResult{Success: true, Content: "some contract text\n"}, nil
		}
		user := req.Messages[len(req.Messages)-1].Content
		if strings.Contains(user, "ORIGINAL CONTRACT CONTENT:") {
			t.Error("change extraction should not run after contextualization failure")
		}
		return nil, errors.New("contextualization model down")
	}

	p := New(testConfig(), client, nil, nil)
	_, err := p.Run(context.Background(), originalDir, amendmentDir, "contract-1")

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageContextualize {
		t.Fatalf("expected contextualization stage error, got %v", err)
	}
}
