package pdfaf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/antflydb/pdfaf/ocr"
)

// PDFCPUOptions configures PDFCPUParser.
type PDFCPUOptions struct {
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
	// Logger receives per-page extraction warnings.
	Logger *zap.Logger
}

// PDFCPUParser extracts content through pdfcpu's file-based extraction
// APIs. Text comes from the show operators of each page's content stream,
// which reads more rawly than the native parser but survives files that
// parser rejects. Images arrive as complete files, exercising the container
// decoding path.
type PDFCPUParser struct {
	opts   PDFCPUOptions
	engine ocr.Engine
	logger *zap.Logger
	conf   *model.Configuration
}

// NewPDFCPUParser validates the options and returns a ready parser.
func NewPDFCPUParser(opts PDFCPUOptions) (*PDFCPUParser, error) {
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
	engine := opts.ImagesParser
	if engine == nil && opts.ExtractImages {
		engine = ocr.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if opts.Password != "" {
		conf.UserPW = opts.Password
	}
	return &PDFCPUParser{opts: opts, engine: engine, logger: logger, conf: conf}, nil
}

// CanParse reports whether the blob looks like a PDF.
func (p *PDFCPUParser) CanParse(mimeType, path string) bool {
	return isPDF(mimeType, path)
}

// LazyParse emits one Document per page, or a single Document in single
// mode.
func (p *PDFCPUParser) LazyParse(ctx context.Context, blob *Blob) (<-chan Document, <-chan error) {
	return lazyParse(ctx, blob, p.parse)
}

func (p *PDFCPUParser) parse(ctx context.Context, blob *Blob, out chan<- Document) error {
	path, cleanup, err := blobFile(blob)
	if err != nil {
		return err
	}
	defer cleanup()

	workDir, err := os.MkdirTemp("", "pdfaf_pdfcpu_*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	if p.opts.Password != "" {
		// The page-count API reads with a default configuration, so
		// work on a decrypted copy instead of threading the password
		// through every call.
		decrypted := filepath.Join(workDir, "decrypted.pdf")
		if err := api.DecryptFile(path, decrypted, p.conf); err != nil {
			return fmt.Errorf("decrypting PDF %s: %w", blob.Source(), err)
		}
		path = decrypted
	}

	totalPages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("opening PDF %s: %w", blob.Source(), err)
	}

	docMeta := withDefaultMetadata(PurgeMetadata(map[string]any{
		"source":      blob.Source(),
		"total_pages": totalPages,
	}), "pdfcpu")

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var singleTexts []string
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text := p.pageText(path, workDir, baseName, pageNum)

		var extras []string
		if p.opts.ExtractImages {
			images, err := p.imageText(ctx, path, workDir, pageNum, blob)
			if err != nil {
				return err
			}
			extras = append(extras, images)
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

// pageText extracts one page's content stream to the work directory and
// parses its text-show operators. Pages without extractable content come
// back empty rather than failing the document.
func (p *PDFCPUParser) pageText(path, workDir, baseName string, pageNum int) string {
	if err := api.ExtractContentFile(path, workDir, []string{strconv.Itoa(pageNum)}, p.conf); err != nil {
		p.logger.Warn("skipping page content", zap.Int("page", pageNum), zap.Error(err))
		return ""
	}
	contentFile := filepath.Join(workDir, fmt.Sprintf("%s_Content_page_%d.txt", baseName, pageNum))
	raw, err := os.ReadFile(contentFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("skipping page content", zap.Int("page", pageNum), zap.Error(err))
		}
		return ""
	}
	os.Remove(contentFile)
	return extractOperatorText(string(raw))
}

// imageText extracts the page's images as files, reconstructs each and runs
// it through the OCR engine. Individual bad images are logged and skipped.
func (p *PDFCPUParser) imageText(ctx context.Context, path, workDir string, pageNum int, blob *Blob) (string, error) {
	imageDir := filepath.Join(workDir, fmt.Sprintf("images_%d", pageNum))
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}
	defer os.RemoveAll(imageDir)

	if err := api.ExtractImagesFile(path, imageDir, []string{strconv.Itoa(pageNum)}, p.conf); err != nil {
		p.logger.Warn("skipping page images", zap.Int("page", pageNum), zap.Error(err))
		return "", nil
	}

	files, err := imageFiles(imageDir)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			p.logger.Warn("skipping unreadable image file",
				zap.String("file", filepath.Base(file)), zap.Error(err))
			continue
		}
		img, err := reconstructContainer(data)
		if err != nil {
			p.logger.Warn("skipping unreconstructable image",
				zap.String("file", filepath.Base(file)), zap.Error(err))
			continue
		}
		encoded, err := EncodePNG(img)
		if err != nil {
			p.logger.Warn("skipping unencodable image",
				zap.String("file", filepath.Base(file)), zap.Error(err))
			continue
		}
		recognized, err := p.engine.Recognize(ctx, encoded)
		if err != nil {
			if errors.Is(err, ocr.ErrNotConfigured) {
				return "", err
			}
			p.logger.Warn("image recognition failed",
				zap.String("file", filepath.Base(file)), zap.Error(err))
			continue
		}
		texts = append(texts, formatInnerImage(blob.Source(), recognized, p.opts.ImagesFormat))
	}
	return wrapExtraBlock(texts), nil
}

// imageFiles lists the image files pdfcpu wrote, in stable order.
func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing extracted images: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// extractOperatorText pulls the string arguments of text-show operators
// (Tj, TJ and the quote forms) out of a raw content stream.
func extractOperatorText(content string) string {
	var texts []string
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, " Tj") && !strings.Contains(line, " TJ") &&
			!strings.Contains(line, "' ") && !strings.Contains(line, "\" ") {
			continue
		}
		texts = append(texts, literalStrings(line)...)
	}
	return cleanOperatorText(strings.Join(texts, " "))
}

// literalStrings scans one operator line for unescaped (...) literals and
// undoes the PDF string escapes.
func literalStrings(line string) []string {
	var texts []string
	inText := false
	start := -1
	for i, char := range line {
		switch {
		case char == '(' && !inText && (i == 0 || line[i-1] != '\\'):
			inText = true
			start = i + 1
		case char == ')' && inText && (i == 0 || line[i-1] != '\\'):
			if start != -1 && start < i {
				text := line[start:i]
				text = strings.ReplaceAll(text, `\(`, "(")
				text = strings.ReplaceAll(text, `\)`, ")")
				text = strings.ReplaceAll(text, `\\`, `\`)
				text = strings.ReplaceAll(text, `\n`, "\n")
				text = strings.ReplaceAll(text, `\r`, "\r")
				text = strings.ReplaceAll(text, `\t`, "\t")
				if strings.TrimSpace(text) != "" {
					texts = append(texts, text)
				}
			}
			inText = false
			start = -1
		}
	}
	return texts
}

// commonOctalEscapes maps frequent PDFDocEncoding octal sequences to their
// Unicode equivalents.
var commonOctalEscapes = map[string]string{
	`\037`: "",
	`\011`: "\t",
	`\012`: "\n",
	`\015`: "\r",
	`\221`: "‘",
	`\222`: "’",
	`\223`: "“",
	`\224`: "”",
	`\226`: "–",
	`\227`: "—",
	`\231`: "™",
	`\240`: " ",
	`\251`: "©",
	`\256`: "®",
	`\260`: "°",
}

// cleanOperatorText normalizes text lifted from content streams: known
// octal escapes become their characters, unknown ones disappear, control
// bytes turn into spaces and runs of spaces collapse.
func cleanOperatorText(text string) string {
	text = strings.TrimSpace(text)
	for octal, replacement := range commonOctalEscapes {
		text = strings.ReplaceAll(text, octal, replacement)
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if i+3 < len(text) && text[i] == '\\' && isOctalDigit(text[i+1]) && isOctalDigit(text[i+2]) && isOctalDigit(text[i+3]) {
			i += 4
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	text = b.String()

	var cleaned strings.Builder
	cleaned.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			cleaned.WriteRune(r)
		case r < 32:
			cleaned.WriteRune(' ')
		default:
			cleaned.WriteRune(r)
		}
	}
	text = cleaned.String()

	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	return text
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}
