package pdfaf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/antflydb/pdfaf/ocr"
)

// fitzMu serializes MuPDF use process-wide. The underlying C library keeps
// global state and is not safe to enter concurrently, even for distinct
// documents.
var fitzMu sync.Mutex

// FitzOptions configures FitzParser.
type FitzOptions struct {
	// Mode defaults to ModePage.
	Mode Mode
	// PagesDelimiter joins pages in single mode, DefaultPagesDelimiter
	// when empty.
	PagesDelimiter string
	// ExtractImages renders each page and appends recognized text to its
	// content.
	ExtractImages bool
	// ImagesParser overrides the process-wide OCR engine.
	ImagesParser ocr.Engine
	// ImagesFormat defaults to ImagesText.
	ImagesFormat ImagesFormat
	// OCRFallback replaces a page's text with OCR output when extraction
	// produced too little or garbled text.
	OCRFallback bool
	// MinContentLength tunes the fallback gate, DefaultOCRMinContent when
	// zero.
	MinContentLength int
	// Logger receives per-page render and recognition warnings.
	Logger *zap.Logger
}

// FitzParser extracts content through MuPDF. It renders full pages for OCR,
// which catches both embedded images and scanned pages, at the cost of
// running recognition over text the backend already extracted.
type FitzParser struct {
	opts   FitzOptions
	engine ocr.Engine
	logger *zap.Logger
}

// NewFitzParser validates the options and returns a ready parser.
func NewFitzParser(opts FitzOptions) (*FitzParser, error) {
	var err error
	if opts.Mode, err = normalizeMode(opts.Mode); err != nil {
		return nil, err
	}
	if opts.ImagesFormat, err = normalizeImagesFormat(opts.ImagesFormat); err != nil {
		return nil, err
	}
	if opts.PagesDelimiter == "" {
		opts.PagesDelimiter = DefaultPagesDelimiter
	}
	if opts.MinContentLength == 0 {
		opts.MinContentLength = DefaultOCRMinContent
	}
	engine := opts.ImagesParser
	if engine == nil && (opts.ExtractImages || opts.OCRFallback) {
		engine = ocr.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FitzParser{opts: opts, engine: engine, logger: logger}, nil
}

// CanParse reports whether the blob looks like a PDF.
func (p *FitzParser) CanParse(mimeType, path string) bool {
	return isPDF(mimeType, path)
}

// LazyParse emits one Document per page, or a single Document in single
// mode. The whole call holds the MuPDF lock, so concurrent parses of
// different files serialize rather than crash.
func (p *FitzParser) LazyParse(ctx context.Context, blob *Blob) (<-chan Document, <-chan error) {
	return lazyParse(ctx, blob, p.parse)
}

func (p *FitzParser) parse(ctx context.Context, blob *Blob, out chan<- Document) error {
	data, err := blob.Bytes()
	if err != nil {
		return err
	}

	fitzMu.Lock()
	defer fitzMu.Unlock()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fmt.Errorf("opening PDF %s: %w", blob.Source(), err)
	}
	defer doc.Close()

	totalPages := doc.NumPage()
	docMeta := p.documentMetadata(doc, blob, totalPages)

	var singleTexts []string
	for pageNum := 0; pageNum < totalPages; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			return fmt.Errorf("extracting text from page %d of %s: %w", pageNum, blob.Source(), err)
		}
		text = normalizeNewlines(text)

		var extras []string
		if p.opts.ExtractImages || p.opts.OCRFallback {
			replaced, recognized, err := p.pageOCR(ctx, doc, pageNum, text, blob)
			if err != nil {
				return err
			}
			if replaced {
				text = recognized
			} else {
				extras = append(extras, recognized)
			}
		}

		content := strings.TrimSpace(MergeTextAndExtras(extras, text))
		if p.opts.Mode == ModeSingle {
			singleTexts = append(singleTexts, content)
			continue
		}
		pageMeta := mergedMetadata(docMeta, map[string]any{
			"page":       pageNum,
			"page_label": strconv.Itoa(pageNum + 1),
		})
		if err := emitDocument(ctx, out, Document{Content: content, Metadata: pageMeta}); err != nil {
			return err
		}
	}

	if p.opts.Mode == ModeSingle {
		return emitDocument(ctx, out, Document{
			Content:  strings.Join(singleTexts, p.opts.PagesDelimiter),
			Metadata: docMeta,
		})
	}
	return nil
}

// pageOCR renders the page and runs recognition. The result replaces the
// page text when the fallback gate fired, and otherwise becomes extra
// content to merge. Render and recognition problems degrade to the
// backend's own text; an unconfigured engine aborts the parse.
func (p *FitzParser) pageOCR(ctx context.Context, doc *fitz.Document, pageNum int, text string, blob *Blob) (replaced bool, result string, err error) {
	fallback := p.opts.OCRFallback && NeedsOCRFallback(text, p.opts.MinContentLength)
	if !p.opts.ExtractImages && !fallback {
		return false, "", nil
	}

	img, err := doc.Image(pageNum)
	if err != nil {
		p.logger.Warn("skipping page render", zap.Int("page", pageNum), zap.Error(err))
		return false, "", nil
	}
	encoded, err := EncodePNG(img)
	if err != nil {
		p.logger.Warn("skipping page render", zap.Int("page", pageNum), zap.Error(err))
		return false, "", nil
	}
	recognized, err := p.engine.Recognize(ctx, encoded)
	if err != nil {
		if errors.Is(err, ocr.ErrNotConfigured) {
			return false, "", err
		}
		p.logger.Warn("page recognition failed", zap.Int("page", pageNum), zap.Error(err))
		return false, "", nil
	}
	recognized = strings.TrimSpace(recognized)
	if recognized == "" {
		return false, "", nil
	}
	if fallback {
		return true, normalizeNewlines(recognized), nil
	}
	return false, wrapExtraBlock([]string{formatInnerImage(blob.Source(), recognized, p.opts.ImagesFormat)}), nil
}

// documentMetadata normalizes the MuPDF metadata dictionary and fills the
// canonical keys.
func (p *FitzParser) documentMetadata(doc *fitz.Document, blob *Blob, totalPages int) map[string]any {
	raw := make(map[string]any)
	for k, v := range doc.Metadata() {
		if v != "" {
			raw[k] = v
		}
	}
	raw["source"] = blob.Source()
	raw["total_pages"] = totalPages
	return withDefaultMetadata(PurgeMetadata(raw), "MuPDF")
}
