package pdfaf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/antflydb/pdfaf/ocr"
)

// PDFOptions configures PDFParser.
type PDFOptions struct {
	// Password decrypts protected files. Empty means unencrypted.
	Password string
	// Mode defaults to ModePage.
	Mode Mode
	// PagesDelimiter joins pages in single mode, DefaultPagesDelimiter
	// when empty.
	PagesDelimiter string
	// ExtractImages runs recognized image text into page content.
	ExtractImages bool
	// ImagesParser overrides the process-wide OCR engine.
	ImagesParser ocr.Engine
	// ImagesFormat defaults to ImagesText.
	ImagesFormat ImagesFormat
	// ExtractTables renders detected tables into page content. TablesNone
	// disables detection.
	ExtractTables TableFormat
	// TextMode defaults to TextPlain.
	TextMode TextMode
	// Logger receives per-image extraction warnings.
	Logger *zap.Logger
}

// PDFParser extracts content with a pure-Go PDF reader. It handles
// encrypted files and raw-sample image streams, and is the default choice
// when no native dependencies are wanted.
type PDFParser struct {
	opts   PDFOptions
	engine ocr.Engine
	logger *zap.Logger
}

// NewPDFParser validates the options and returns a ready parser. Option
// validation is the only failure mode; file problems surface at parse time.
func NewPDFParser(opts PDFOptions) (*PDFParser, error) {
	var err error
	if opts.Mode, err = normalizeMode(opts.Mode); err != nil {
		return nil, err
	}
	if opts.ImagesFormat, err = normalizeImagesFormat(opts.ImagesFormat); err != nil {
		return nil, err
	}
	if opts.ExtractTables, err = normalizeTableFormat(opts.ExtractTables); err != nil {
		return nil, err
	}
	if opts.TextMode, err = normalizeTextMode(opts.TextMode); err != nil {
		return nil, err
	}
	if opts.PagesDelimiter == "" {
		opts.PagesDelimiter = DefaultPagesDelimiter
	}
	engine := opts.ImagesParser
	if engine == nil && opts.ExtractImages {
		engine = ocr.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFParser{opts: opts, engine: engine, logger: logger}, nil
}

func isPDF(mimeType, path string) bool {
	if strings.Contains(mimeType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// CanParse reports whether the blob looks like a PDF.
func (p *PDFParser) CanParse(mimeType, path string) bool {
	return isPDF(mimeType, path)
}

// LazyParse emits one Document per page, or a single Document in single
// mode. The consumer drives extraction by receiving from the channel.
func (p *PDFParser) LazyParse(ctx context.Context, blob *Blob) (<-chan Document, <-chan error) {
	return lazyParse(ctx, blob, p.parse)
}

func (p *PDFParser) parse(ctx context.Context, blob *Blob, out chan<- Document) error {
	data, err := blob.Bytes()
	if err != nil {
		return err
	}
	reader, err := p.open(data)
	if err != nil {
		return fmt.Errorf("opening PDF %s: %w", blob.Source(), err)
	}

	totalPages := reader.NumPage()
	docMeta := p.documentMetadata(reader, blob, totalPages)

	var singleTexts []string
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)

		var text string
		var extras []string
		if !page.V.IsNull() {
			if text, err = p.pageText(page); err != nil {
				return fmt.Errorf("extracting text from page %d of %s: %w", pageNum, blob.Source(), err)
			}
			if p.opts.ExtractTables != TablesNone {
				tables, err := p.pageTables(page)
				if err != nil {
					return fmt.Errorf("extracting tables from page %d of %s: %w", pageNum, blob.Source(), err)
				}
				extras = append(extras, tables)
			}
			if p.opts.ExtractImages {
				images, err := p.imageText(ctx, page, blob)
				if err != nil {
					return err
				}
				extras = append(extras, images)
			}
		}

		content := strings.TrimSpace(MergeTextAndExtras(extras, text))
		if p.opts.Mode == ModeSingle {
			singleTexts = append(singleTexts, content)
			continue
		}
		pageMeta := mergedMetadata(docMeta, map[string]any{
			"page":       pageNum - 1,
			"page_label": strconv.Itoa(pageNum),
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

// open builds a reader, trying the configured password exactly once so a
// wrong one fails instead of looping.
func (p *PDFParser) open(data []byte) (*pdf.Reader, error) {
	r := bytes.NewReader(data)
	size := int64(len(data))
	if p.opts.Password == "" {
		return pdf.NewReader(r, size)
	}
	attempted := false
	return pdf.NewReaderEncrypted(r, size, func() string {
		if attempted {
			return ""
		}
		attempted = true
		return p.opts.Password
	})
}

// pageText extracts a page's text. The underlying reader panics on some
// malformed content streams, so recovery converts those into errors.
func (p *PDFParser) pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading page content: %v", r)
		}
	}()
	if p.opts.TextMode == TextLayout {
		return assembleText(wordBlocks(page.Content().Text)), nil
	}
	return page.GetPlainText(nil)
}

// pageTables detects grid-aligned regions and renders them in the
// configured format.
func (p *PDFParser) pageTables(page pdf.Page) (rendered string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading page content: %v", r)
		}
	}()
	grid := detectTableGrid(wordBlocks(page.Content().Text))
	if grid == nil {
		return "", nil
	}
	return RenderTable(grid, p.opts.ExtractTables)
}

// imageText reconstructs each page image, runs it through the OCR engine
// and renders the recognized text. Broken individual images are logged and
// skipped; an unconfigured engine aborts the parse because every image
// would fail the same way.
func (p *PDFParser) imageText(ctx context.Context, page pdf.Page, blob *Blob) (string, error) {
	rawImages := extractPageImages(page, p.logger)
	texts := make([]string, 0, len(rawImages))
	for _, raw := range rawImages {
		img, err := ReconstructImage(raw)
		if err != nil {
			p.logger.Warn("skipping unreconstructable image",
				zap.String("object", raw.Name), zap.Error(err))
			continue
		}
		encoded, err := EncodePNG(img)
		if err != nil {
			p.logger.Warn("skipping unencodable image",
				zap.String("object", raw.Name), zap.Error(err))
			continue
		}
		recognized, err := p.engine.Recognize(ctx, encoded)
		if err != nil {
			if errors.Is(err, ocr.ErrNotConfigured) {
				return "", err
			}
			p.logger.Warn("image recognition failed",
				zap.String("object", raw.Name), zap.Error(err))
			continue
		}
		texts = append(texts, formatInnerImage(blob.Source(), recognized, p.opts.ImagesFormat))
	}
	return wrapExtraBlock(texts), nil
}

// extractPageImages walks the page's XObject resources and returns raw
// image payloads. Stream decoding failures surface as panics inside the pdf
// library, so each object is processed under its own recovery.
func extractPageImages(page pdf.Page, logger *zap.Logger) []RawImage {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() || xobjects.Kind() != pdf.Dict {
		return nil
	}

	var images []RawImage
	for _, name := range xobjects.Keys() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("skipping undecodable image stream",
						zap.String("object", name), zap.Any("reason", r))
				}
			}()
			obj := xobjects.Key(name)
			if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
				return
			}
			filter := imageFilterName(obj.Key("Filter"))
			if filter == "" {
				logger.Warn("skipping image without stream filter", zap.String("object", name))
				return
			}
			rc := obj.Reader()
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				logger.Warn("skipping unreadable image stream",
					zap.String("object", name), zap.Error(err))
				return
			}
			images = append(images, RawImage{
				Name:     name,
				Data:     data,
				Width:    int(obj.Key("Width").Int64()),
				Height:   int(obj.Key("Height").Int64()),
				Filter:   filter,
				Channels: colorSpaceChannels(obj.Key("ColorSpace")),
			})
		}()
	}
	return images
}

// imageFilterName returns the last filter of a /Filter entry, which may be
// a single name or an array. The last filter decides how the decoded stream
// bytes are to be interpreted.
func imageFilterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if n := v.Len(); n > 0 {
			return v.Index(n - 1).Name()
		}
	}
	return ""
}

// colorSpaceChannels maps the common device color spaces to their sample
// counts. Unknown spaces report 0 and let the buffer size decide.
func colorSpaceChannels(v pdf.Value) int {
	switch v.Name() {
	case "DeviceGray", "CalGray":
		return 1
	case "DeviceRGB", "CalRGB", "Lab":
		return 3
	case "DeviceCMYK":
		return 4
	}
	return 0
}

// documentMetadata assembles normalized document-level metadata from the
// Info dictionary, the source identifier and the page count.
func (p *PDFParser) documentMetadata(reader *pdf.Reader, blob *Blob, totalPages int) map[string]any {
	raw := make(map[string]any)
	if trailer := reader.Trailer(); !trailer.IsNull() {
		if info := trailer.Key("Info"); !info.IsNull() && info.Kind() == pdf.Dict {
			for _, key := range info.Keys() {
				val := info.Key(key)
				switch val.Kind() {
				case pdf.String:
					raw[key] = val.Text()
				case pdf.Integer:
					raw[key] = int(val.Int64())
				case pdf.Name:
					raw[key] = val.Name()
				}
			}
		}
	}
	raw["source"] = blob.Source()
	raw["total_pages"] = totalPages
	return withDefaultMetadata(PurgeMetadata(raw), "pdfaf")
}
