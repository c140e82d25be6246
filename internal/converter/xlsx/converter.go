package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docledger/internal/port"
)

// Converter renders spreadsheet workbooks to markdown natively, without the
// external conversion sidecar. Each sheet becomes a heading plus a GFM table;
// the first row of a sheet is treated as the header row.
type Converter struct{}

// NewConverter creates a native XLSX converter.
func NewConverter() *Converter {
	return &Converter{}
}

func (c *Converter) Convert(ctx context.Context, path string) (*port.ConvertOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## " + sheet + "\n\n")
		writeTable(&sb, rows)
	}

	if sb.Len() == 0 {
		return nil, fmt.Errorf("workbook contains no data")
	}

	return &port.ConvertOutput{Markdown: sb.String(), Language: "Unknown"}, nil
}

func writeTable(sb *strings.Builder, rows [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	writeRow(sb, rows[0], width)
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sb, sep, width)
	for _, row := range rows[1:] {
		writeRow(sb, row, width)
	}
}

func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(cells[i], "|", "\\|")
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}
