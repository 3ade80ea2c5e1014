package pdfaf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Layout assembly constants, in points. Word and row tolerances are tuned
// for common body-text sizes; table buckets trade precision for resilience
// to slightly ragged alignment.
const (
	layoutRowTolerance  = 3.0
	layoutWordSpaceMult = 0.3
	layoutParagraphMult = 1.8
	tableColumnBucket   = 5.0
	tableRowBucket      = 3.0
	tableSpacingSlack   = 0.3
)

// textBlock is a word-level run assembled from positioned characters.
type textBlock struct {
	X, Y     float64
	Width    float64
	FontSize float64
	Text     string
}

// wordBlocks merges positioned characters into word-level blocks, ordered
// top to bottom and left to right. PDF Y coordinates grow upward, so higher
// Y means earlier on the page.
func wordBlocks(texts []pdf.Text) []textBlock {
	filtered := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S == "" || t.S == "\n" {
			continue
		}
		filtered = append(filtered, t)
	}
	if len(filtered) == 0 {
		return nil
	}

	rows := groupRows(filtered)

	var blocks []textBlock
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
		current := textBlock{X: row[0].X, Y: row[0].Y, Width: row[0].W, FontSize: row[0].FontSize, Text: row[0].S}
		for _, t := range row[1:] {
			gap := t.X - (current.X + current.Width)
			threshold := layoutWordSpaceMult * current.FontSize
			if current.FontSize == 0 {
				threshold = 3.0
			}
			if gap <= threshold {
				current.Width = t.X + t.W - current.X
				current.Text += t.S
				continue
			}
			blocks = append(blocks, current)
			current = textBlock{X: t.X, Y: t.Y, Width: t.W, FontSize: t.FontSize, Text: t.S}
		}
		blocks = append(blocks, current)
	}
	return blocks
}

// groupRows buckets characters into rows by Y proximity and orders the rows
// top to bottom.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	type rowBucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}
	var buckets []rowBucket
	for _, t := range texts {
		placed := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-layoutRowTolerance && t.Y <= buckets[i].yMax+layoutRowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = math.Min(buckets[i].yMin, t.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, t.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, rowBucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })
	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		rows[i] = b.texts
	}
	return rows
}

// assembleText renders word blocks back into text. Rows become lines, and a
// vertical gap clearly larger than the running line spacing becomes a blank
// line so downstream paragraph splicing has boundaries to work with.
func assembleText(blocks []textBlock) string {
	if len(blocks) == 0 {
		return ""
	}
	lineStep := medianLineStep(blocks)

	var b strings.Builder
	b.WriteString(blocks[0].Text)
	for i := 1; i < len(blocks); i++ {
		prev, cur := blocks[i-1], blocks[i]
		drop := prev.Y - cur.Y
		switch {
		case math.Abs(drop) <= layoutRowTolerance:
			b.WriteString(" ")
		case lineStep > 0 && drop > layoutParagraphMult*lineStep:
			b.WriteString("\n\n")
		default:
			b.WriteString("\n")
		}
		b.WriteString(cur.Text)
	}
	return b.String()
}

// medianLineStep estimates the dominant row-to-row vertical distance.
func medianLineStep(blocks []textBlock) float64 {
	var steps []float64
	for i := 1; i < len(blocks); i++ {
		drop := blocks[i-1].Y - blocks[i].Y
		if drop > layoutRowTolerance {
			steps = append(steps, drop)
		}
	}
	if len(steps) == 0 {
		return 0
	}
	sort.Float64s(steps)
	return steps[len(steps)/2]
}

// detectTableGrid looks for one grid-aligned region among the blocks and
// returns its cell text as rows of columns. Alignment alone is not enough; a
// real table also has near-uniform column and row spacing, which filters out
// ordinary justified paragraphs.
func detectTableGrid(blocks []textBlock) [][]string {
	if len(blocks) < 4 {
		return nil
	}

	columnCounts := make(map[int]int)
	rowCounts := make(map[int]int)
	for _, b := range blocks {
		columnCounts[int(b.X/tableColumnBucket)]++
		rowCounts[int(b.Y/tableRowBucket)]++
	}

	var columnXs []float64
	for key, count := range columnCounts {
		if count >= 3 {
			columnXs = append(columnXs, float64(key)*tableColumnBucket)
		}
	}
	var rowYs []float64
	for key, count := range rowCounts {
		if count >= 2 {
			rowYs = append(rowYs, float64(key)*tableRowBucket)
		}
	}
	if len(columnXs) < 2 || len(rowYs) < 2 {
		return nil
	}

	sort.Float64s(columnXs)
	sort.Sort(sort.Reverse(sort.Float64Slice(rowYs)))

	if !hasConsistentSpacing(columnXs) || !hasConsistentSpacing(rowYs) {
		return nil
	}

	grid := make([][]string, len(rowYs))
	for r := range grid {
		grid[r] = make([]string, len(columnXs))
	}
	filled := 0
	for _, b := range blocks {
		rowIdx, colIdx := -1, -1
		for r, y := range rowYs {
			if math.Abs(b.Y-y) < tableRowBucket*2 {
				rowIdx = r
				break
			}
		}
		for c, x := range columnXs {
			if math.Abs(b.X-x) < tableColumnBucket*2 {
				colIdx = c
				break
			}
		}
		if rowIdx < 0 || colIdx < 0 {
			continue
		}
		if grid[rowIdx][colIdx] != "" {
			grid[rowIdx][colIdx] += " "
		} else {
			filled++
		}
		grid[rowIdx][colIdx] += b.Text
	}
	if filled < 4 {
		return nil
	}
	return grid
}

// hasConsistentSpacing reports whether consecutive positions are spaced
// within tableSpacingSlack of their mean gap.
func hasConsistentSpacing(positions []float64) bool {
	if len(positions) < 2 {
		return false
	}
	gaps := make([]float64, len(positions)-1)
	var sum float64
	for i := range gaps {
		gaps[i] = math.Abs(positions[i+1] - positions[i])
		sum += gaps[i]
	}
	mean := sum / float64(len(gaps))
	if mean == 0 {
		return false
	}
	for _, g := range gaps {
		if math.Abs(g-mean)/mean > tableSpacingSlack {
			return false
		}
	}
	return true
}
