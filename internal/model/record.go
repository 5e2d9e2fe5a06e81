package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Column indexes (0-based) of the ledger table. Position is the field's identity.
const (
	ColOccurrenceMonth = iota
	ColSequence
	ColOrdinalNo
	ColOccurrenceDate
	ColCategory
	ColEvent
	ColEventPrimary
	ColEventSecondary
	ColPartNumber
	ColSupplierName
	ColNoticePath
	ColIncidentNo

	NumColumns
)

// MaxHistory caps the recently opened document list
const MaxHistory = 10

// Headers are the fixed column labels written into a new ledger
var Headers = [NumColumns]string{
	"発生月",
	"累計",
	"№",
	"発生日",
	"項目",
	"事象",
	"事象（一次）",
	"事象（二次）",
	"品番",
	"サプライヤー名",
	"不良発生連絡書発行",
	"不良発生№",
}

// Cell is a raw spreadsheet cell. Set is false when the cell is absent in the
// document, which keeps it distinguishable from an explicit empty string.
type Cell struct {
	Value string
	Set   bool
}

// Record represents one defect entry (one data row of the ledger)
type Record struct {
	// Location
	Row int // Physical 1-based row number, 0 when not yet persisted

	// Fields in column order
	OccurrenceMonth string
	Sequence        int // 累計, re-derived from physical order
	OrdinalNo       int // №, re-derived from physical order
	OccurrenceDate  string
	Category        string
	Event           string
	EventPrimary    string
	EventSecondary  string
	PartNumber      string
	SupplierName    string
	NoticePath      string // Raw path; persisted escaped
	IncidentNo      string

	// Raw cells as read from the document (may be wider than NumColumns)
	Cells []Cell
}

// FromValues builds a Record from a positional 12-tuple.
// Ordinal columns may be blank; anything else non-numeric is rejected.
func FromValues(values []string) (Record, error) {
	if len(values) != NumColumns {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d", ErrValidation, NumColumns, len(values))
	}

	seq, err := parseOrdinal(values[ColSequence])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrValidation, Headers[ColSequence], err)
	}
	no, err := parseOrdinal(values[ColOrdinalNo])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrValidation, Headers[ColOrdinalNo], err)
	}

	return Record{
		OccurrenceMonth: values[ColOccurrenceMonth],
		Sequence:        seq,
		OrdinalNo:       no,
		OccurrenceDate:  values[ColOccurrenceDate],
		Category:        values[ColCategory],
		Event:           values[ColEvent],
		EventPrimary:    values[ColEventPrimary],
		EventSecondary:  values[ColEventSecondary],
		PartNumber:      values[ColPartNumber],
		SupplierName:    values[ColSupplierName],
		NoticePath:      values[ColNoticePath],
		IncidentNo:      values[ColIncidentNo],
	}, nil
}

// FromCells builds a Record from raw cells. Short rows are padded with absent
// cells; ordinal columns that are not integers read as 0.
func FromCells(row int, cells []Cell) Record {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i].Value
		}
		return ""
	}

	seq, _ := parseOrdinal(get(ColSequence))
	no, _ := parseOrdinal(get(ColOrdinalNo))

	return Record{
		Row:             row,
		OccurrenceMonth: get(ColOccurrenceMonth),
		Sequence:        seq,
		OrdinalNo:       no,
		OccurrenceDate:  get(ColOccurrenceDate),
		Category:        get(ColCategory),
		Event:           get(ColEvent),
		EventPrimary:    get(ColEventPrimary),
		EventSecondary:  get(ColEventSecondary),
		PartNumber:      get(ColPartNumber),
		SupplierName:    get(ColSupplierName),
		NoticePath:      get(ColNoticePath),
		IncidentNo:      get(ColIncidentNo),
		Cells:           cells,
	}
}

// Values returns the string form of every column in order.
// Zero ordinals render as empty strings.
func (r Record) Values() []string {
	return []string{
		r.OccurrenceMonth,
		formatOrdinal(r.Sequence),
		formatOrdinal(r.OrdinalNo),
		r.OccurrenceDate,
		r.Category,
		r.Event,
		r.EventPrimary,
		r.EventSecondary,
		r.PartNumber,
		r.SupplierName,
		r.NoticePath,
		r.IncidentNo,
	}
}

// Field returns the string form of a single column
func (r Record) Field(col int) string {
	if col < 0 || col >= NumColumns {
		return ""
	}
	return r.Values()[col]
}

// String returns a human-readable representation of the record
func (r Record) String() string {
	return fmt.Sprintf("[row %d] #%d %s %s", r.Row, r.Sequence, r.OccurrenceDate, r.Event)
}

func parseOrdinal(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Numeric cells may come back as "3.0" from some writers
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return strconv.Atoi(s)
}

func formatOrdinal(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
