package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/ingest"
)

var ingestDPI int

var ingestCmd = &cobra.Command{
	Use:   "ingest <contract.pdf> <output_dir>",
	Short: "Split a contract PDF into page images",
	Long: `Render each page of a contract PDF into a numbered PNG in the output
directory. Filenames are zero-padded (page-0001.png, ...) so the run command
processes pages in order. Requires pdftoppm (poppler-utils) on PATH.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := ingest.Split(ingest.Request{
			PDFPath:   args[0],
			OutputDir: args[1],
			DPI:       ingestDPI,
			Logger:    newLogger(),
		})
		if err != nil {
			return err
		}
		return api.Output(result)
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestDPI, "dpi", 300, "render resolution in DPI")
}
