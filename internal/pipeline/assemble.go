package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jackzampolin/redline/internal/trace"
)

// Assembler lists a folder's page images, extracts each page concurrently,
// and joins the results in filename-sorted order. Callers must name pages so
// lexicographic order equals logical page order (zero-padded suffixes).
type Assembler struct {
	Pages *PageExtractor

	// MaxWorkers caps page extraction concurrency. Zero means the default.
	MaxWorkers int

	Tracer *trace.Tracer
	Logger *slog.Logger
}

const defaultMaxWorkers = 8

// ListPageImages returns the folder's recognized image files, sorted
// lexicographically. Non-image files are ignored.
func ListPageImages(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folder, err)
	}

	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := mimeTypes[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			pages = append(pages, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(pages)
	return pages, nil
}

// Assemble extracts every page in the folder and concatenates the results
// in page order. Any page failure fails the whole document: siblings are
// cancelled and no partial text is returned.
func (a *Assembler) Assemble(ctx context.Context, folder, contractID string) (_ string, err error) {
	ctx, span := a.Tracer.Start(ctx, "parse_full_contract", map[string]any{
		"images_folder": folder,
		"contract_id":   contractID,
	})
	defer func() { span.End("", err) }()

	pages, err := ListPageImages(folder)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no page images found in %s", folder)
	}

	workers := a.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	if workers > len(pages) {
		workers = len(pages)
	}

	if a.Logger != nil {
		a.Logger.Debug("assembling document", "folder", folder, "pages", len(pages), "workers", workers)
	}

	// Fan out one extraction per page through a bounded semaphore; results
	// land in an index-tagged slice so the join is in pre-sort order, not
	// completion order.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]string, len(pages))
	errCh := make(chan error, 1)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(idx int, imagePath string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			text, err := a.Pages.Extract(ctx, imagePath, contractID)
			if err != nil {
				// First failure wins; cancel siblings promptly.
				select {
				case errCh <- err:
				default:
				}
				cancel()
				return
			}
			results[idx] = text
		}(i, page)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return "", err
	default:
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return strings.Join(results, ""), nil
}
