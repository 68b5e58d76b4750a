package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/redline/internal/prompt"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/trace"
)

// pageSystemPrompt is the fixed instruction for vision extraction.
const pageSystemPrompt = "You are a legal, text from image, parser. " +
	"From the following image, extract the structured contract text preserving headings, sections, " +
	"clauses, numbering, and hierarchy. Only return the text from image, no other text or explanation is allowed."

// PageExtractor turns one page image into raw text using a primary vision
// model, escalating once to a fixed fallback model on empty output or error.
type PageExtractor struct {
	Client        providers.LLMClient
	PrimaryModel  string
	FallbackModel string
	Tracer        *trace.Tracer
	Logger        *slog.Logger
}

// Extract converts a single page image to text.
func (e *PageExtractor) Extract(ctx context.Context, imagePath, contractID string) (_ string, err error) {
	ctx, span := e.Tracer.Start(ctx, "image_parsing", map[string]any{
		"image_path":  imagePath,
		"contract_id": contractID,
	})
	defer func() { span.End("", err) }()

	dataURL, err := encodeImage(imagePath)
	if err != nil {
		return "", err
	}

	text, primaryErr := e.callModel(ctx, e.PrimaryModel, dataURL)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if primaryErr == nil {
		primaryErr = ErrEmptyExtraction
	}

	if e.Logger != nil {
		e.Logger.Warn("primary vision model failed, trying fallback",
			"image", filepath.Base(imagePath),
			"primary_model", e.PrimaryModel,
			"fallback_model", e.FallbackModel,
			"error", primaryErr)
	}

	text, fallbackErr := e.callModel(ctx, e.FallbackModel, dataURL)
	if fallbackErr != nil {
		return "", &ExtractionError{
			ImagePath:     imagePath,
			PrimaryModel:  e.PrimaryModel,
			FallbackModel: e.FallbackModel,
			PrimaryErr:    primaryErr,
			FallbackErr:   fallbackErr,
		}
	}
	return text, nil
}

func (e *PageExtractor) callModel(ctx context.Context, model, dataURL string) (string, error) {
	style := prompt.StyleFor(model)
	req := &providers.ChatRequest{
		Model:       model,
		Messages:    prompt.VisionMessages(style, pageSystemPrompt, dataURL),
		Temperature: providers.Temp(0),
	}

	result, err := e.Client.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// mimeTypes maps recognized image extensions to their MIME type for the
// data URL. Keep in sync with the Assembler's extension filter.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// encodeImage reads an image file into a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}

	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
