package pdfaf

import (
	"encoding/csv"
	"fmt"
	"html"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderTable renders a table grid in the requested format. Markdown output
// treats the first row as the header; HTML and CSV emit bare rows. An empty
// grid renders as the empty string.
func RenderTable(rows [][]string, format TableFormat) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	switch format {
	case TablesMarkdown:
		return renderMarkdownTable(rows)
	case TablesHTML:
		return renderHTMLTable(rows), nil
	case TablesCSV:
		return renderCSVTable(rows)
	}
	return "", fmt.Errorf("cannot render table in format %q", format)
}

func renderMarkdownTable(rows [][]string) (string, error) {
	var buf strings.Builder
	// Header auto-formatting would uppercase extracted cells.
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Formatting: tw.CellFormatting{AutoFormat: tw.Off}},
		}),
	)
	table.Header(rows[0])
	for _, row := range rows[1:] {
		if err := table.Append(row); err != nil {
			return "", fmt.Errorf("rendering markdown table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering markdown table: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func renderHTMLTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}

func renderCSVTable(rows [][]string) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("rendering CSV table: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
