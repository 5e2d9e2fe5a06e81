package ledger

import (
	"fmt"

	"defect-ledger/internal/model"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the sheet name of an exported filter result
const ExportSheet = "フィルタ結果"

// Export writes records (typically a filter result) into a new workbook at
// path, header on row 1 and frozen. Attachment paths are written raw.
func Export(path string, columns []string, records []model.Record, progress Progress) error {
	if len(columns) == 0 {
		columns = model.Headers[:]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(templateSheet, ExportSheet); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	s, err := NewStyler(f)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}

	if err := writeStyledRow(f, ExportSheet, 1, columns, s.HeaderStyle); err != nil {
		return fmt.Errorf("%w: write header: %v", model.ErrIO, err)
	}
	if err := f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%w: freeze header: %v", model.ErrIO, err)
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}

	for i, rec := range records {
		row := i + 2
		values := rec.Values()
		for c, v := range values {
			if c >= len(columns) {
				break
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			var val interface{} = v
			switch {
			case c == model.ColSequence && rec.Sequence != 0:
				val = rec.Sequence
			case c == model.ColOrdinalNo && rec.OrdinalNo != 0:
				val = rec.OrdinalNo
			}
			if err := f.SetCellValue(ExportSheet, cell, val); err != nil {
				return fmt.Errorf("%w: write %s: %v", model.ErrIO, cell, err)
			}
			if w := runewidth.StringWidth(v); w > widths[c] {
				widths[c] = w
			}
		}

		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(columns), row)
		if err := f.SetCellStyle(ExportSheet, first, last, s.DefaultStyle); err != nil {
			return fmt.Errorf("%w: style row %d: %v", model.ErrIO, row, err)
		}

		if progress != nil {
			progress.Increment()
		}
	}

	// Width in character units, clamped like the preview grid
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ExportSheet, name, name, float64(clamp(w+2, 10, 60))); err != nil {
			return fmt.Errorf("%w: width of %s: %v", model.ErrIO, name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: save %s: %v", model.ErrIO, path, err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
