// Package ledger is the spreadsheet-backed record store for defect entries.
//
// Every operation opens the workbook, works on a full in-memory copy of the
// sheet and writes it back before returning; the file is never held open
// between calls. There is no locking and no detection of concurrent edits.
package ledger

import (
	"fmt"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"
	"defect-ledger/internal/pathcodec"

	"github.com/xuri/excelize/v2"
)

// Progress receives one tick per processed row (ui.ProgressBar satisfies it)
type Progress interface {
	Increment() error
}

// Store owns the located table of one open document and the record cache
// produced by the last Load
type Store struct {
	table   *model.Table
	records []model.Record
}

// NewStore creates a Store with no document open
func NewStore() *Store {
	return &Store{}
}

// Open resolves the table inside sheet of the document at path and loads its
// records. An empty sheet selects the first sheet. Any previously open table
// is discarded first, so a failed Open leaves the Store closed.
func (s *Store) Open(path, sheet string) (*model.Table, error) {
	s.Close()

	f, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err = resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrIO, sheet, err)
	}

	header, dataStart, found := Locate(rows)
	if !found {
		logger.Warn("Header row not found in %s [%s], assuming row %d", path, sheet, header)
	}

	t := &model.Table{
		Path:         path,
		Sheet:        sheet,
		HeaderRow:    header,
		DataStartRow: dataStart,
		Columns:      columnLabels(rows, header),
		Detected:     found,
	}

	s.table = t
	s.records = materialize(rows, t)
	logger.Debug("Opened %s: %d records", t, len(s.records))

	return t, nil
}

// Close forgets the open table and the cache
func (s *Store) Close() {
	s.table = nil
	s.records = nil
}

// Table returns the open table, or nil
func (s *Store) Table() *model.Table {
	return s.table
}

// Records returns a snapshot of the cache filled by the last Load
func (s *Store) Records() []model.Record {
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Load re-reads the open document and refreshes the record cache
func (s *Store) Load() ([]model.Record, error) {
	if s.table == nil {
		return nil, fmt.Errorf("%w: no document open", model.ErrValidation)
	}

	f, err := openDocument(s.table.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := resolveSheet(f, s.table.Sheet); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(s.table.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrIO, s.table.Sheet, err)
	}

	s.records = materialize(rows, s.table)
	return s.Records(), nil
}

// Append writes rec as a new row after the last one. Both ordinal columns
// start as (current row count + 1) and are then re-derived by Reindex.
func (s *Store) Append(rec model.Record) error {
	return s.AppendAll([]model.Record{rec}, nil)
}

// AppendAll appends recs in one open/save cycle
func (s *Store) AppendAll(recs []model.Record, progress Progress) error {
	return s.mutate("append", func(f *excelize.File, lastRow int) error {
		next := lastRow + 1
		if next < s.table.DataStartRow {
			next = s.table.DataStartRow
		}

		for _, rec := range recs {
			seq := next - s.table.DataStartRow + 1
			rec.Sequence = seq
			rec.OrdinalNo = seq

			if err := writeRow(f, s.table.Sheet, next, rec, true); err != nil {
				return err
			}
			next++

			if progress != nil {
				progress.Increment()
			}
		}
		return nil
	})
}

// UpdateAt overwrites every column but 累計 at the given physical row.
// The № written here is replaced by Reindex before the save.
func (s *Store) UpdateAt(row int, rec model.Record) error {
	return s.mutate("update", func(f *excelize.File, lastRow int) error {
		if !s.table.RowInRange(row, lastRow) {
			return rowNotFound(row, s.table, lastRow)
		}
		return writeRow(f, s.table.Sheet, row, rec, false)
	})
}

// DeleteAt removes the physical row and shifts the following rows up
func (s *Store) DeleteAt(row int) error {
	return s.mutate("delete", func(f *excelize.File, lastRow int) error {
		if !s.table.RowInRange(row, lastRow) {
			return rowNotFound(row, s.table, lastRow)
		}
		if err := f.RemoveRow(s.table.Sheet, row); err != nil {
			return fmt.Errorf("%w: remove row %d: %v", model.ErrIO, row, err)
		}
		return nil
	})
}

// Renumber rewrites the ordinal columns without touching anything else,
// repairing a workbook edited outside the application
func (s *Store) Renumber() error {
	return s.mutate("renumber", func(*excelize.File, int) error { return nil })
}

// mutate runs fn against a fresh copy of the document, reindexes, saves
// atomically and refreshes the cache. Nothing is written when fn fails.
func (s *Store) mutate(op string, fn func(f *excelize.File, lastRow int) error) error {
	if s.table == nil {
		return fmt.Errorf("%w: %s: no document open", model.ErrValidation, op)
	}

	f, err := openDocument(s.table.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := resolveSheet(f, s.table.Sheet); err != nil {
		return err
	}

	rows, err := f.GetRows(s.table.Sheet)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", model.ErrIO, s.table.Sheet, err)
	}

	if err := fn(f, len(rows)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := Reindex(f, s.table); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := saveAtomic(f, s.table.Path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// The document is already saved; a failed refresh only leaves the cache stale
	if _, err := s.Load(); err != nil {
		logger.Warn("Reload after %s failed: %v", op, err)
	}
	return nil
}

// writeRow writes rec into row. The 累計 column is only written when
// withSequence is set (append); update leaves it to Reindex.
func writeRow(f *excelize.File, sheet string, row int, rec model.Record, withSequence bool) error {
	values := []interface{}{
		rec.OccurrenceMonth,
		ordinalValue(rec.Sequence),
		ordinalValue(rec.OrdinalNo),
		rec.OccurrenceDate,
		rec.Category,
		rec.Event,
		rec.EventPrimary,
		rec.EventSecondary,
		rec.PartNumber,
		rec.SupplierName,
		pathcodec.Escape(rec.NoticePath),
		rec.IncidentNo,
	}

	for i, v := range values {
		if i == model.ColSequence && !withSequence {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("%w: write %s: %v", model.ErrIO, cell, err)
		}
	}
	return nil
}

func ordinalValue(n int) interface{} {
	if n == 0 {
		return ""
	}
	return n
}

func rowNotFound(row int, t *model.Table, lastRow int) error {
	return fmt.Errorf("%w: row %d outside data rows [%d, %d]", model.ErrNotFound, row, t.DataStartRow, lastRow)
}

// materialize converts sheet rows from DataStartRow on into records.
// Cells past the end of a short row are marked absent (Set=false).
func materialize(rows [][]string, t *model.Table) []model.Record {
	var records []model.Record
	for i := t.DataStartRow - 1; i < len(rows); i++ {
		if i < 0 {
			continue
		}
		raw := rows[i]

		width := len(raw)
		if width < model.NumColumns {
			width = model.NumColumns
		}
		cells := make([]model.Cell, width)
		for c := range cells {
			if c < len(raw) {
				cells[c] = model.Cell{Value: raw[c], Set: true}
			}
		}

		rec := model.FromCells(i+1, cells)
		rec.NoticePath = pathcodec.Unescape(rec.NoticePath)
		records = append(records, rec)
	}
	return records
}
