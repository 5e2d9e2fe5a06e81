package ledger

import (
	"fmt"

	"defect-ledger/internal/model"

	"github.com/xuri/excelize/v2"
)

// Reindex numbers every data row 1, 2, 3, … in physical order, writing the
// value to both ordinal columns (累計 and №). Any № typed by the user is
// overwritten: the ordinal always mirrors row order after a mutation.
func Reindex(f *excelize.File, t *model.Table) error {
	rows, err := f.GetRows(t.Sheet)
	if err != nil {
		return fmt.Errorf("%w: read rows for reindex: %v", model.ErrIO, err)
	}

	n := 0
	for row := t.DataStartRow; row <= len(rows); row++ {
		n++
		for _, col := range []int{model.ColSequence, model.ColOrdinalNo} {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(t.Sheet, cell, n); err != nil {
				return fmt.Errorf("%w: write %s: %v", model.ErrIO, cell, err)
			}
		}
	}

	return nil
}

// OrdinalMismatch is a data row whose ordinals disagree with its position
type OrdinalMismatch struct {
	Row       int
	Want      int
	Sequence  int
	OrdinalNo int
}

// CheckOrdinals lists the records whose 累計 or № is not their 1-based
// position. A workbook only written through Store never has any.
func CheckOrdinals(records []model.Record) []OrdinalMismatch {
	var out []OrdinalMismatch
	for i, rec := range records {
		if rec.Sequence != i+1 || rec.OrdinalNo != i+1 {
			out = append(out, OrdinalMismatch{Row: rec.Row, Want: i + 1, Sequence: rec.Sequence, OrdinalNo: rec.OrdinalNo})
		}
	}
	return out
}
