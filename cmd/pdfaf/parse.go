package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antflydb/pdfaf"
	"github.com/antflydb/pdfaf/logging"
	"github.com/antflydb/pdfaf/ocr"
	"github.com/antflydb/pdfaf/ocr/tesseract"
)

var (
	parserName     string
	parseMode      string
	pagesDelimiter string
	password       string
	extractImages  bool
	imagesFormat   string
	tablesFormat   string
	textMode       string
	ocrFallback    bool
	ocrLanguages   string
	ocrDPI         int
	features       []string
	outputFormat   string
	logStyle       string
	logLevel       string
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one PDF into normalized page records",
	Long: `Parse a PDF (or, with the textract backend, an image) into page
records and print them.

Examples:
  # Page records as JSON
  pdfaf parse report.pdf

  # Whole document as one record, raw text output
  pdfaf parse report.pdf --mode single --output text

  # OCR embedded images through a local Tesseract
  pdfaf parse scan.pdf --images --ocr-langs eng,deu

  # Tables as markdown through Amazon Textract
  pdfaf parse s3://bucket/key.pdf --parser textract --tables markdown
`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parserName, "parser", "p", "pdf", "Backend: pdf, fitz, pdfcpu, textract")
	parseCmd.Flags().StringVarP(&parseMode, "mode", "m", "page", "Emit one record per page or a single record: page, single")
	parseCmd.Flags().StringVar(&pagesDelimiter, "delimiter", "", "Page delimiter for single mode")
	parseCmd.Flags().StringVar(&password, "password", "", "Password for encrypted files")
	parseCmd.Flags().BoolVar(&extractImages, "images", false, "Run OCR over embedded images")
	parseCmd.Flags().StringVar(&imagesFormat, "images-format", "text", "Recognized image text format: text, markdown-img, html-img")
	parseCmd.Flags().StringVar(&tablesFormat, "tables", "", "Render detected tables: markdown, html, csv")
	parseCmd.Flags().StringVar(&textMode, "text-mode", "plain", "Text assembly for the pdf backend: plain, layout")
	parseCmd.Flags().BoolVar(&ocrFallback, "ocr-fallback", false, "Replace garbled page text with OCR output (fitz backend)")
	parseCmd.Flags().StringVar(&ocrLanguages, "ocr-langs", "", "Tesseract languages, comma separated (enables local OCR)")
	parseCmd.Flags().IntVar(&ocrDPI, "ocr-dpi", 0, "DPI hint for OCR input images")
	parseCmd.Flags().StringSliceVar(&features, "features", nil, "Textract features: TABLES, FORMS, LAYOUT, SIGNATURES")
	parseCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json, text")
	parseCmd.Flags().StringVar(&logStyle, "log-style", "terminal", "Log style: terminal, json, noop")
	parseCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level")
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.NewLogger(&logging.Config{Style: logging.Style(logStyle), Level: logLevel})
	defer logger.Sync()

	if ocrLanguages != "" {
		engine, err := tesseract.New(tesseract.Config{
			Languages: strings.Split(ocrLanguages, ","),
			DPI:       ocrDPI,
		})
		if err != nil {
			return err
		}
		defer engine.Close()
		ocr.SetDefault(engine)
	}

	parser, err := buildParser(ctx, logger)
	if err != nil {
		return err
	}

	docs, err := pdfaf.Parse(ctx, parser, pdfaf.BlobFromPath(args[0]))
	if err != nil {
		return err
	}
	return writeDocuments(docs)
}

func buildParser(ctx context.Context, logger *zap.Logger) (pdfaf.Parser, error) {
	switch parserName {
	case "pdf":
		return pdfaf.NewPDFParser(pdfaf.PDFOptions{
			Password:       password,
			Mode:           pdfaf.Mode(parseMode),
			PagesDelimiter: pagesDelimiter,
			ExtractImages:  extractImages,
			ImagesFormat:   pdfaf.ImagesFormat(imagesFormat),
			ExtractTables:  pdfaf.TableFormat(tablesFormat),
			TextMode:       pdfaf.TextMode(textMode),
			Logger:         logger,
		})
	case "fitz":
		return pdfaf.NewFitzParser(pdfaf.FitzOptions{
			Mode:           pdfaf.Mode(parseMode),
			PagesDelimiter: pagesDelimiter,
			ExtractImages:  extractImages,
			ImagesFormat:   pdfaf.ImagesFormat(imagesFormat),
			OCRFallback:    ocrFallback,
			Logger:         logger,
		})
	case "pdfcpu":
		return pdfaf.NewPDFCPUParser(pdfaf.PDFCPUOptions{
			Password:       password,
			Mode:           pdfaf.Mode(parseMode),
			PagesDelimiter: pagesDelimiter,
			ExtractImages:  extractImages,
			ImagesFormat:   pdfaf.ImagesFormat(imagesFormat),
			Logger:         logger,
		})
	case "textract":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS configuration: %w", err)
		}
		return pdfaf.NewTextractParser(pdfaf.TextractOptions{
			Client:         textract.NewFromConfig(cfg),
			Mode:           pdfaf.Mode(parseMode),
			PagesDelimiter: pagesDelimiter,
			Features:       features,
			ExtractTables:  pdfaf.TableFormat(tablesFormat),
			Logger:         logger,
		})
	}
	return nil, fmt.Errorf("unknown parser %q: must be one of: pdf, fitz, pdfcpu, textract", parserName)
}

func writeDocuments(docs []pdfaf.Document) error {
	if outputFormat == "text" {
		for i, doc := range docs {
			if i > 0 {
				fmt.Println("\f")
			}
			fmt.Println(doc.Content)
		}
		return nil
	}
	data, err := sonic.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
