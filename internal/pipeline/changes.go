package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/redline/internal/contract"
	"github.com/jackzampolin/redline/internal/prompt"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/trace"
)

const changesSystemPrompt = "You are a senior contract comparison analyst. " +
	"Compare the ORIGINAL CONTRACT CONTENT and the AMENDMENT CONTENT and identify the topics touched, the sections changed and the summary of the change." +
	"\n Return a JSON object with the following fields:" +
	"\n - topics_touched: list of topics touched in the amendment" +
	"\n - sections_changed: list of sections changed in the amendment" +
	"\n - summary_of_the_change: summary of the change in the amendment with format Section X: -change_1 \n -change_2, ..."

// ChangeExtractor produces the final structured change summary from the
// contextualized excerpt pair. Unlike the vision stage there is no fallback
// model here; text-only summarization has not needed one.
type ChangeExtractor struct {
	Client providers.LLMClient
	Model  string
	Tracer *trace.Tracer
	Logger *slog.Logger
}

// ExtractChanges asks the model for a schema-validated change summary.
func (c *ChangeExtractor) ExtractChanges(ctx context.Context, pair *contract.ContextualizedPair, contractID string) (_ *contract.ChangeSummary, err error) {
	ctx, span := c.Tracer.Start(ctx, "extraction_agent", map[string]any{
		"agent":       "extraction",
		"contract_id": contractID,
	})
	defer func() { span.End("", err) }()

	style := prompt.StyleFor(c.Model)
	userPrompt := fmt.Sprintf("\n\nORIGINAL CONTRACT CONTENT:\n %s \n\nAMENDMENT CONTENT:\n %s",
		pair.OriginalExcerpt, pair.AmendmentText)

	req := &providers.ChatRequest{
		Model:          c.Model,
		Messages:       prompt.Messages(style, changesSystemPrompt, userPrompt),
		Temperature:    providers.Temp(0),
		ResponseFormat: providers.JSONSchemaFormat(contract.ChangeSummarySchema),
	}

	result, err := c.Client.Chat(ctx, req)
	if err != nil {
		return nil, &StageError{Stage: StageChangeExtraction, Err: err}
	}

	summary, err := contract.DecodeChangeSummary(result.ParsedJSON)
	if err != nil {
		return nil, &StageError{Stage: StageChangeExtraction, Err: err}
	}
	return summary, nil
}
