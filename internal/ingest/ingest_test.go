package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPageImageName(t *testing.T) {
	tests := []struct {
		page int
		want string
	}{
		{1, "page-0001.png"},
		{42, "page-0042.png"},
		{999, "page-0999.png"},
		{1000, "page-1000.png"},
	}
	for _, tt := range tests {
		if got := PageImageName(tt.page); got != tt.want {
			t.Errorf("PageImageName(%d) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

// zero-padding keeps lexicographic order equal to page order, which the
// assembler relies on
func TestPageImageNameOrdering(t *testing.T) {
	for page := 1; page < 9999; page++ {
		if strings.Compare(PageImageName(page), PageImageName(page+1)) >= 0 {
			t.Fatalf("name for page %d does not sort before page %d", page, page+1)
		}
	}
}

func TestSplitMissingPDF(t *testing.T) {
	_, err := Split(Request{
		PDFPath:   "/does/not/exist.pdf",
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for missing PDF")
	}
	if !strings.Contains(err.Error(), "PDF not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSplitRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Split(Request{PDFPath: path, OutputDir: dir}); err == nil {
		t.Fatal("expected error for invalid PDF content")
	}
}
