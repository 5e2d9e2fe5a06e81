// Package filter narrows the in-memory record set with a predicate set.
package filter

import (
	"sort"
	"strings"

	"defect-ledger/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// Predicates is a set of optional constraints combined with AND.
// An empty field imposes no constraint.
type Predicates struct {
	// Inclusive bounds compared lexicographically against OccurrenceDate,
	// so dates must be in a sortable form such as YYYY-MM-DD
	DateFrom string
	DateTo   string

	// Case-insensitive substring matches on single fields
	Category       string
	Event          string
	EventPrimary   string
	EventSecondary string
	PartNumber     string
	SupplierName   string
	IncidentNo     string

	// Case-insensitive substring match against every column
	FreeText string
}

// IsEmpty reports whether p constrains nothing
func (p Predicates) IsEmpty() bool {
	return p.trimmed() == Predicates{}
}

func (p Predicates) trimmed() Predicates {
	return Predicates{
		DateFrom:       strings.TrimSpace(p.DateFrom),
		DateTo:         strings.TrimSpace(p.DateTo),
		Category:       strings.TrimSpace(p.Category),
		Event:          strings.TrimSpace(p.Event),
		EventPrimary:   strings.TrimSpace(p.EventPrimary),
		EventSecondary: strings.TrimSpace(p.EventSecondary),
		PartNumber:     strings.TrimSpace(p.PartNumber),
		SupplierName:   strings.TrimSpace(p.SupplierName),
		IncidentNo:     strings.TrimSpace(p.IncidentNo),
		FreeText:       strings.TrimSpace(p.FreeText),
	}
}

// Apply returns the records matching p, in their original order.
// An empty predicate set returns records unchanged.
func Apply(records []model.Record, p Predicates) []model.Record {
	if p.IsEmpty() {
		return records
	}

	m := newMatcher(p)
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if m.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Match reports whether a single record satisfies p
func Match(rec model.Record, p Predicates) bool {
	return newMatcher(p).match(rec)
}

type fieldPredicate struct {
	col    int
	needle string // folded
}

type matcher struct {
	dateFrom, dateTo string
	fields           []fieldPredicate
	freeText         string // folded
}

func newMatcher(p Predicates) *matcher {
	p = p.trimmed()
	m := &matcher{dateFrom: p.DateFrom, dateTo: p.DateTo}

	for _, fp := range []struct {
		col   int
		value string
	}{
		{model.ColCategory, p.Category},
		{model.ColEvent, p.Event},
		{model.ColEventPrimary, p.EventPrimary},
		{model.ColEventSecondary, p.EventSecondary},
		{model.ColPartNumber, p.PartNumber},
		{model.ColSupplierName, p.SupplierName},
		{model.ColIncidentNo, p.IncidentNo},
	} {
		if fp.value != "" {
			m.fields = append(m.fields, fieldPredicate{col: fp.col, needle: Fold(fp.value)})
		}
	}

	if p.FreeText != "" {
		m.freeText = Fold(p.FreeText)
	}
	return m
}

func (m *matcher) match(rec model.Record) bool {
	if m.dateFrom != "" && rec.OccurrenceDate < m.dateFrom {
		return false
	}
	if m.dateTo != "" && rec.OccurrenceDate > m.dateTo {
		return false
	}

	values := rec.Values()
	for _, fp := range m.fields {
		if !strings.Contains(Fold(values[fp.col]), fp.needle) {
			return false
		}
	}

	if m.freeText != "" {
		return containsAny(values, rec.Cells, m.freeText)
	}
	return true
}

// containsAny checks the record columns and any extra cells right of them
func containsAny(values []string, cells []model.Cell, needle string) bool {
	for _, v := range values {
		if strings.Contains(Fold(v), needle) {
			return true
		}
	}
	for i := model.NumColumns; i < len(cells); i++ {
		if strings.Contains(Fold(cells[i].Value), needle) {
			return true
		}
	}
	return false
}

// Fold maps s to a form for case-insensitive comparison. Width is folded
// first: full-width ASCII becomes half-width ("ＡＢＣ" equals "abc") and
// half-width katakana becomes full-width ("ｶｹ" equals "カケ").
func Fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(width.Fold.String(s))
}

// Choices are the distinct values offered for the combobox-style predicates
type Choices struct {
	Categories       []string
	Events           []string
	EventPrimaries   []string
	EventSecondaries []string
	Suppliers        []string
}

// UniqueValues collects sorted distinct non-blank values per choice column
func UniqueValues(records []model.Record) Choices {
	sets := make([]map[string]bool, 5)
	for i := range sets {
		sets[i] = make(map[string]bool)
	}
	cols := []int{model.ColCategory, model.ColEvent, model.ColEventPrimary, model.ColEventSecondary, model.ColSupplierName}

	for _, rec := range records {
		values := rec.Values()
		for i, col := range cols {
			if v := strings.TrimSpace(values[col]); v != "" {
				sets[i][v] = true
			}
		}
	}

	return Choices{
		Categories:       sortedKeys(sets[0]),
		Events:           sortedKeys(sets[1]),
		EventPrimaries:   sortedKeys(sets[2]),
		EventSecondaries: sortedKeys(sets[3]),
		Suppliers:        sortedKeys(sets[4]),
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
