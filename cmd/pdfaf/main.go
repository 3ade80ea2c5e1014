package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdfaf",
	Short: "Pdfaf - normalized PDF text, image and table extraction",
	Long: `Pdfaf extracts text, images and tables from PDF files through
interchangeable parsing backends and emits uniform page records.

Backends:
- pdf      pure-Go reader, handles passwords and raw image streams
- fitz     MuPDF, with OCR fallback for scanned pages
- pdfcpu   content-stream extraction, most tolerant of damaged files
- textract Amazon Textract, for cloud OCR with table analysis

Use pdfaf to parse single files or scan whole directories and buckets.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(scanCmd)
}
