package converter

import (
	"context"
	"path/filepath"
	"strings"

	"docledger/internal/port"
)

// spreadsheetExts are handled by the native workbook converter.
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// Routing dispatches conversion by file extension: spreadsheet workbooks go
// to the native converter, everything else to the external sidecar.
type Routing struct {
	sidecar     port.Converter
	spreadsheet port.Converter
}

// NewRouting creates a Routing converter.
func NewRouting(sidecar, spreadsheet port.Converter) *Routing {
	return &Routing{sidecar: sidecar, spreadsheet: spreadsheet}
}

func (r *Routing) Convert(ctx context.Context, path string) (*port.ConvertOutput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if spreadsheetExts[ext] && r.spreadsheet != nil {
		return r.spreadsheet.Convert(ctx, path)
	}
	return r.sidecar.Convert(ctx, path)
}
