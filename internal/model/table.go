package model

import "fmt"

// Default table position used when no header row is detected
const (
	DefaultHeaderRow    = 3
	DefaultDataStartRow = 4
)

// Table is a resolved ledger region inside one sheet of a document.
// Positions are resolved once per open and reused by every later operation.
type Table struct {
	Path         string
	Sheet        string
	HeaderRow    int      // 1-based
	DataStartRow int      // Always HeaderRow + 1
	Columns      []string // Labels read from HeaderRow
	Detected     bool     // False when the default position was used
}

// String returns a human-readable representation of the table
func (t *Table) String() string {
	return fmt.Sprintf("%s [%s] header=%d data=%d", t.Path, t.Sheet, t.HeaderRow, t.DataStartRow)
}

// RowInRange reports whether row is an existing data row given the sheet's last row
func (t *Table) RowInRange(row, lastRow int) bool {
	return row >= t.DataStartRow && row <= lastRow
}
