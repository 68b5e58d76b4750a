// Package pipeline compares an original contract against an amendment, both
// supplied as folders of page images, and produces a structured change
// summary. Stages: concurrent per-page vision extraction for each folder,
// contextualization of the two documents, then structured change extraction.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/contract"
	"github.com/jackzampolin/redline/internal/providers"
	"github.com/jackzampolin/redline/internal/trace"
)

// Pipeline wires the stages together. Construct with New; all collaborators
// are explicit parameters rather than process-wide state.
type Pipeline struct {
	Assembler      *Assembler
	Contextualizer *Contextualizer
	Changes        *ChangeExtractor
	Tracer         *trace.Tracer
	Logger         *slog.Logger
}

// New builds a pipeline from configuration and an injected model client.
func New(cfg *config.Config, client providers.LLMClient, logger *slog.Logger, tracer *trace.Tracer) *Pipeline {
	pages := &PageExtractor{
		Client:        client,
		PrimaryModel:  cfg.Models.Vision,
		FallbackModel: cfg.Models.VisionFallback,
		Tracer:        tracer,
		Logger:        logger,
	}
	return &Pipeline{
		Assembler: &Assembler{
			Pages:      pages,
			MaxWorkers: cfg.Pipeline.MaxWorkers,
			Tracer:     tracer,
			Logger:     logger,
		},
		Contextualizer: &Contextualizer{
			Client: client,
			Model:  cfg.Models.Text,
			Tracer: tracer,
			Logger: logger,
		},
		Changes: &ChangeExtractor{
			Client: client,
			Model:  cfg.Models.Text,
			Tracer: tracer,
			Logger: logger,
		},
		Tracer: tracer,
		Logger: logger,
	}
}

// Run executes the full comparison. The two document assemblies run
// concurrently with each other; everything after is sequential. Any stage
// failure aborts the run; there is no resume across stages.
func (p *Pipeline) Run(ctx context.Context, originalDir, amendmentDir, contractID string) (_ *contract.ChangeSummary, err error) {
	ctx, span := p.Tracer.Start(ctx, "run", map[string]any{
		"original_path":  originalDir,
		"amendment_path": amendmentDir,
		"contract_id":    contractID,
	})
	defer func() { span.End("", err) }()

	start := time.Now()
	if p.Logger != nil {
		p.Logger.Info("starting contract comparison", "contract_id", contractID)
		p.Logger.Info("parsing original contract", "folder", originalDir)
		p.Logger.Info("parsing amendment", "folder", amendmentDir)
	}

	var (
		wg                          sync.WaitGroup
		originalText, amendmentText string
		originalErr, amendmentErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		originalText, originalErr = p.Assembler.Assemble(ctx, originalDir, contractID)
	}()
	go func() {
		defer wg.Done()
		amendmentText, amendmentErr = p.Assembler.Assemble(ctx, amendmentDir, contractID)
	}()
	wg.Wait()

	if originalErr != nil {
		return nil, originalErr
	}
	if amendmentErr != nil {
		return nil, amendmentErr
	}

	if p.Logger != nil {
		p.Logger.Info("documents parsed",
			"original_chars", len(originalText),
			"amendment_chars", len(amendmentText))
	}

	pair, err := p.Contextualizer.Contextualize(ctx, originalText, amendmentText, contractID)
	if err != nil {
		return nil, err
	}

	summary, err := p.Changes.ExtractChanges(ctx, pair, contractID)
	if err != nil {
		return nil, err
	}

	if p.Logger != nil {
		p.Logger.Info("comparison complete",
			"contract_id", contractID,
			"sections_changed", len(summary.SectionsChanged),
			"elapsed", time.Since(start))
	}
	return summary, nil
}
