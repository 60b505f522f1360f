package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX renders every sheet as rows of " | "-joined non-empty cells. Sheets
// are separated by a blank line.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

func (x *XLSX) Kind() string         { return "xlsx" }
func (x *XLSX) Extensions() []string { return []string{"xlsx"} }

func (x *XLSX) Extract(ctx context.Context, data []byte) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Failed("Error extracting text from XLSX: " + err.Error()), nil
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Failed("Error extracting text from XLSX: " + err.Error()), nil
		}
		wrote := false
		for _, row := range rows {
			var cells []string
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			b.WriteString(strings.Join(cells, " | "))
			b.WriteByte('\n')
			wrote = true
		}
		if wrote {
			b.WriteByte('\n')
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return Failed("No text could be extracted from the spreadsheet."), nil
	}
	return Ok(b.String(), "xlsx_cells"), nil
}
