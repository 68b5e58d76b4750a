// Package ingest splits a contract PDF into per-page images suitable for the
// comparison pipeline. Output files are named with zero-padded page numbers
// so lexicographic filename order equals page order.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Request contains the parameters for splitting a contract PDF.
type Request struct {
	PDFPath   string       // Source PDF file
	OutputDir string       // Directory to write page images into
	DPI       int          // Render resolution (default: 300)
	Logger    *slog.Logger // Optional logger for progress updates
}

// Result reports a completed split.
type Result struct {
	PageCount int    `json:"page_count" yaml:"page_count"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PageImageName returns the output filename for a page number.
func PageImageName(pageNum int) string {
	return fmt.Sprintf("page-%04d.png", pageNum)
}

// Split renders every page of the PDF into OutputDir.
func Split(req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	dpi := req.DPI
	if dpi == 0 {
		dpi = 300
	}

	if _, err := os.Stat(req.PDFPath); err != nil {
		return nil, fmt.Errorf("PDF not found: %s", req.PDFPath)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	pageCount, err := countPages(req.PDFPath)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", req.PDFPath)
	}
	log.Info("splitting contract PDF", "file", filepath.Base(req.PDFPath), "pages", pageCount)

	// Render pages concurrently, bounded by CPU count.
	maxWorkers := runtime.NumCPU()

	type result struct {
		pageNum int
		err     error
	}

	results := make(chan result, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{} // acquire
		go func(pageNum int) {
			defer func() { <-sem }() // release
			err := renderPage(req.PDFPath, req.OutputDir, pageNum, dpi)
			results <- result{pageNum: pageNum, err: err}
		}(page)
	}

	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", r.pageNum, r.err)
		}
	}

	log.Info("split complete", "pages", pageCount, "dir", req.OutputDir)
	return &Result{PageCount: pageCount, OutputDir: req.OutputDir}, nil
}

// countPages reads the PDF's page count with relaxed validation, since
// scanned contracts are frequently produced by sloppy generators.
func countPages(pdfPath string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pageCount, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils), which
// rasterizes the full page rather than extracting embedded images.
func renderPage(pdfPath, outDir string, pageNum, dpi int) error {
	tmpDir, err := os.MkdirTemp("", "redline-page-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	pageStr := fmt.Sprintf("%d", pageNum)
	cmd := exec.Command("pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read rendered image: %w", err)
	}

	dstPath := filepath.Join(outDir, PageImageName(pageNum))
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write page image: %w", err)
	}
	return nil
}
