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

// contextualizeSystemPrompt directs the model to align the two documents and
// return only the excerpt of the original impacted by the amendment.
const contextualizeSystemPrompt = "You are a senior legal contextualization agent. " +
	"Contextualize the ORIGINAL CONTRACT and the AMENDMENT and identify structure, section alignment, " +
	"and which sections correspond to each other." +
	"\n Return a JSON object with the following fields, containing just the text impacted by the amendment and the amendment text:" +
	"\n - original_contract_text: text of the original contract just the text impacted by the amendment" +
	"\n - amendment_text: text of the amendment"

// Contextualizer narrows the full original and amendment texts down to the
// mutually relevant excerpt pair, bounding the input handed to the Change
// Extractor. This is a deliberate relevance filter, not a passthrough.
type Contextualizer struct {
	Client providers.LLMClient
	Model  string
	Tracer *trace.Tracer
	Logger *slog.Logger
}

// Contextualize asks the model for a schema-validated excerpt pair.
// A non-conforming response is fatal; schema violations are model contract
// violations, not transient faults.
func (c *Contextualizer) Contextualize(ctx context.Context, originalText, amendmentText, contractID string) (_ *contract.ContextualizedPair, err error) {
	ctx, span := c.Tracer.Start(ctx, "contextualization_agent", map[string]any{
		"agent":       "contextualization",
		"contract_id": contractID,
	})
	defer func() { span.End("", err) }()

	style := prompt.StyleFor(c.Model)
	userPrompt := fmt.Sprintf("\n\nORIGINAL CONTRACT:\n %s \n\nAMENDMENT:\n %s", originalText, amendmentText)

	req := &providers.ChatRequest{
		Model:          c.Model,
		Messages:       prompt.Messages(style, contextualizeSystemPrompt, userPrompt),
		Temperature:    providers.Temp(0),
		ResponseFormat: providers.JSONSchemaFormat(contract.ContextualizedPairSchema),
	}

	result, err := c.Client.Chat(ctx, req)
	if err != nil {
		return nil, &StageError{Stage: StageContextualize, Err: err}
	}

	pair, err := contract.DecodeContextualizedPair(result.ParsedJSON)
	if err != nil {
		return nil, &StageError{Stage: StageContextualize, Err: err}
	}
	return pair, nil
}
