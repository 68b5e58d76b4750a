// Package prompt builds provider-ready message lists. The only branching
// concern is whether a provider accepts a separate system role: OpenAI models
// do, most others (Gemini in particular) want the instruction folded into the
// user message.
package prompt

import (
	"strings"

	"github.com/jackzampolin/redline/internal/providers"
)

// Style is the message shape a model's provider expects.
type Style int

const (
	// OpenAIStyle emits separate system and user messages.
	OpenAIStyle Style = iota
	// SystemlessStyle folds the system instruction into the user message.
	SystemlessStyle
)

// String returns the style name for logging.
func (s Style) String() string {
	switch s {
	case OpenAIStyle:
		return "openai"
	case SystemlessStyle:
		return "systemless"
	default:
		return "unknown"
	}
}

// StyleFor resolves the message style from a model ID's provider prefix
// (e.g. "openai/gpt-4o" -> OpenAIStyle, "google/gemini-2.5-flash" ->
// SystemlessStyle). Resolve once per call site, then dispatch on the result.
func StyleFor(model string) Style {
	provider, _, found := strings.Cut(model, "/")
	if found && strings.EqualFold(strings.TrimSpace(provider), "openai") {
		return OpenAIStyle
	}
	return SystemlessStyle
}

// Messages builds the ordered message list for a text-only request.
func Messages(style Style, systemPrompt, userPrompt string) []providers.Message {
	if style == OpenAIStyle {
		return []providers.Message{
			{Role: providers.RoleSystem, Content: systemPrompt},
			{Role: providers.RoleUser, Content: userPrompt},
		}
	}
	return []providers.Message{
		{Role: providers.RoleUser, Content: systemPrompt + "\n\n" + userPrompt},
	}
}

// VisionMessages builds the message list for an image extraction request.
// The image travels as a data URL content part; for systemless providers the
// instruction rides along as the text part of the same user message.
func VisionMessages(style Style, systemPrompt, imageDataURL string) []providers.Message {
	if style == OpenAIStyle {
		return []providers.Message{
			{Role: providers.RoleSystem, Content: systemPrompt},
			{Role: providers.RoleUser, ImageURLs: []string{imageDataURL}},
		}
	}
	return []providers.Message{
		{Role: providers.RoleUser, Content: systemPrompt, ImageURLs: []string{imageDataURL}},
	}
}
