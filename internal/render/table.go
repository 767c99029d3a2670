package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sqlpilot/sqlpilot/internal/query"
)

// DefaultWidth is the display width used for word-wrapped prose.
const DefaultWidth = 88

// Table writes the query result as a bordered ASCII table.
func Table(w io.Writer, result query.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(result.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = formatValue(value)
		}
		table.Append(cells)
	}
	table.Render()
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", typed), "0"), ".")
	default:
		return fmt.Sprint(typed)
	}
}

// Wrap reflows prose into lines no longer than width, preserving paragraph
// breaks. Words longer than width get a line of their own.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	paragraphs := strings.Split(strings.TrimSpace(text), "\n\n")
	wrapped := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		wrapped = append(wrapped, wrapParagraph(paragraph, width))
	}
	return strings.Join(wrapped, "\n\n")
}

func wrapParagraph(paragraph string, width int) string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteString("\n")
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		b.WriteString(" ")
		b.WriteString(word)
		lineLen += 1 + len(word)
	}
	return b.String()
}
