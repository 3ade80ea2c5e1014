package pdfaf

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	ttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
	"go.uber.org/zap"
)

// TextractAPI is the subset of the Amazon Textract client the parser uses.
// It exists so tests can substitute a fake without AWS credentials.
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// textractFeatureNames maps option strings to API feature types.
var textractFeatureNames = map[string]ttypes.FeatureType{
	"TABLES":     ttypes.FeatureTypeTables,
	"FORMS":      ttypes.FeatureTypeForms,
	"LAYOUT":     ttypes.FeatureTypeLayout,
	"SIGNATURES": ttypes.FeatureTypeSignatures,
}

// TextractOptions configures TextractParser.
type TextractOptions struct {
	// Client calls the service. Required.
	Client TextractAPI
	// Mode defaults to ModePage.
	Mode Mode
	// PagesDelimiter joins pages in single mode, DefaultPagesDelimiter
	// when empty.
	PagesDelimiter string
	// Features selects AnalyzeDocument features: TABLES, FORMS, LAYOUT,
	// SIGNATURES. Empty means plain text detection.
	Features []string
	// ExtractTables renders TABLE blocks into page content and implies
	// the TABLES feature.
	ExtractTables TableFormat
	// Logger receives extraction warnings.
	Logger *zap.Logger
}

// TextractParser extracts content through Amazon Textract. Blobs with an
// s3:// path are submitted by reference, everything else ships as bytes.
// Service calls are synchronous, which bounds documents to the service's
// sync limits.
type TextractParser struct {
	opts     TextractOptions
	features []ttypes.FeatureType
	logger   *zap.Logger
}

// NewTextractParser validates the options and returns a ready parser.
func NewTextractParser(opts TextractOptions) (*TextractParser, error) {
	if opts.Client == nil {
		return nil, errors.New("textract client is required")
	}
	var err error
	if opts.Mode, err = normalizeMode(opts.Mode); err != nil {
		return nil, err
	}
	if opts.ExtractTables, err = normalizeTableFormat(opts.ExtractTables); err != nil {
		return nil, err
	}
	if opts.PagesDelimiter == "" {
		opts.PagesDelimiter = DefaultPagesDelimiter
	}
	if opts.ExtractTables != TablesNone && !containsFold(opts.Features, "TABLES") {
		opts.Features = append(opts.Features, "TABLES")
	}
	features := make([]ttypes.FeatureType, 0, len(opts.Features))
	for _, f := range opts.Features {
		ft, ok := textractFeatureNames[strings.ToUpper(f)]
		if !ok {
			return nil, fmt.Errorf("unknown textract feature %q", f)
		}
		features = append(features, ft)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextractParser{opts: opts, features: features, logger: logger}, nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// CanParse accepts PDFs and the image types the service recognizes.
func (p *TextractParser) CanParse(mimeType, path string) bool {
	if isPDF(mimeType, path) {
		return true
	}
	switch mimeType {
	case "image/png", "image/jpeg", "image/tiff":
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// LazyParse emits one Document per detected page, or a single Document in
// single mode. Service errors propagate unmodified so callers can inspect
// the AWS error chain.
func (p *TextractParser) LazyParse(ctx context.Context, blob *Blob) (<-chan Document, <-chan error) {
	return lazyParse(ctx, blob, p.parse)
}

func (p *TextractParser) parse(ctx context.Context, blob *Blob, out chan<- Document) error {
	doc, err := p.document(blob)
	if err != nil {
		return err
	}
	blocks, totalPages, err := p.analyze(ctx, doc)
	if err != nil {
		return err
	}

	docMeta := withDefaultMetadata(PurgeMetadata(map[string]any{
		"source":      blob.Source(),
		"total_pages": totalPages,
	}), "AmazonTextract")

	pages := groupBlocksByPage(blocks)

	var singleTexts []string
	for _, page := range pages {
		text := strings.Join(page.lines, "\n")

		var extras []string
		if p.opts.ExtractTables != TablesNone {
			tables, err := p.renderTables(page.tables)
			if err != nil {
				return err
			}
			extras = append(extras, tables)
		}

		content := strings.TrimSpace(MergeTextAndExtras(extras, text))
		if p.opts.Mode == ModeSingle {
			singleTexts = append(singleTexts, content)
			continue
		}
		pageMeta := mergedMetadata(docMeta, map[string]any{
			"page": page.number,
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

// document routes the blob: s3:// paths go by reference, which is the only
// way the service accepts multi-page PDFs synchronously at full size, and
// anything else ships as bytes.
func (p *TextractParser) document(blob *Blob) (*ttypes.Document, error) {
	if u, err := url.Parse(blob.Path); err == nil && u.Scheme == "s3" && u.Host != "" {
		return &ttypes.Document{
			S3Object: &ttypes.S3Object{
				Bucket: aws.String(u.Host),
				Name:   aws.String(strings.TrimPrefix(u.Path, "/")),
			},
		}, nil
	}
	data, err := blob.Bytes()
	if err != nil {
		return nil, err
	}
	return &ttypes.Document{Bytes: data}, nil
}

func (p *TextractParser) analyze(ctx context.Context, doc *ttypes.Document) ([]ttypes.Block, int, error) {
	if len(p.features) > 0 {
		out, err := p.opts.Client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
			Document:     doc,
			FeatureTypes: p.features,
		})
		if err != nil {
			return nil, 0, err
		}
		return out.Blocks, totalPagesOf(out.DocumentMetadata, out.Blocks), nil
	}
	out, err := p.opts.Client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{Document: doc})
	if err != nil {
		return nil, 0, err
	}
	return out.Blocks, totalPagesOf(out.DocumentMetadata, out.Blocks), nil
}

func totalPagesOf(md *ttypes.DocumentMetadata, blocks []ttypes.Block) int {
	if md != nil && md.Pages != nil && *md.Pages > 0 {
		return int(*md.Pages)
	}
	max := 1
	for _, b := range blocks {
		if n := blockPage(b); n > max {
			max = n
		}
	}
	return max
}

// blockPage returns the 1-based page of a block. Single-page responses omit
// the field.
func blockPage(b ttypes.Block) int {
	if b.Page == nil || *b.Page < 1 {
		return 1
	}
	return int(*b.Page)
}

type textractPage struct {
	number int
	lines  []string
	tables [][][]string
}

// groupBlocksByPage splits the response into per-page line text and table
// grids, ordered by page number. Block order within a page is the service's
// reading order.
func groupBlocksByPage(blocks []ttypes.Block) []*textractPage {
	byID := make(map[string]ttypes.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	pages := make(map[int]*textractPage)
	pageOf := func(n int) *textractPage {
		if p, ok := pages[n]; ok {
			return p
		}
		p := &textractPage{number: n}
		pages[n] = p
		return p
	}

	for _, b := range blocks {
		switch b.BlockType {
		case ttypes.BlockTypeLine:
			if b.Text != nil && *b.Text != "" {
				page := pageOf(blockPage(b))
				page.lines = append(page.lines, *b.Text)
			}
		case ttypes.BlockTypeTable:
			if grid := tableGrid(b, byID); len(grid) > 0 {
				page := pageOf(blockPage(b))
				page.tables = append(page.tables, grid)
			}
		}
	}

	ordered := make([]*textractPage, 0, len(pages))
	for _, p := range pages {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].number < ordered[j].number })
	return ordered
}

// tableGrid rebuilds a TABLE block into rows of cell text from its CELL
// children.
func tableGrid(table ttypes.Block, byID map[string]ttypes.Block) [][]string {
	maxRow, maxCol := 0, 0
	type cell struct {
		row, col int
		text     string
	}
	var cells []cell
	for _, rel := range table.Relationships {
		if rel.Type != ttypes.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if !ok || child.BlockType != ttypes.BlockTypeCell {
				continue
			}
			if child.RowIndex == nil || child.ColumnIndex == nil {
				continue
			}
			row, col := int(*child.RowIndex), int(*child.ColumnIndex)
			if row > maxRow {
				maxRow = row
			}
			if col > maxCol {
				maxCol = col
			}
			cells = append(cells, cell{row: row, col: col, text: cellText(child, byID)})
		}
	}
	if maxRow == 0 || maxCol == 0 {
		return nil
	}
	grid := make([][]string, maxRow)
	for r := range grid {
		grid[r] = make([]string, maxCol)
	}
	for _, c := range cells {
		grid[c.row-1][c.col-1] = c.text
	}
	return grid
}

// cellText joins a CELL's child words.
func cellText(cell ttypes.Block, byID map[string]ttypes.Block) string {
	var words []string
	for _, rel := range cell.Relationships {
		if rel.Type != ttypes.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if !ok || child.BlockType != ttypes.BlockTypeWord {
				continue
			}
			if child.Text != nil {
				words = append(words, *child.Text)
			}
		}
	}
	return strings.Join(words, " ")
}

func (p *TextractParser) renderTables(grids [][][]string) (string, error) {
	rendered := make([]string, 0, len(grids))
	for _, grid := range grids {
		s, err := RenderTable(grid, p.opts.ExtractTables)
		if err != nil {
			return "", err
		}
		if s != "" {
			rendered = append(rendered, s)
		}
	}
	return strings.Join(rendered, "\n"), nil
}
