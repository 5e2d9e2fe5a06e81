package ledger

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"defect-ledger/internal/model"
	"defect-ledger/internal/pathcodec"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

const fixtureSheet = "Sheet1"

// writeFixture saves rows (index 0 = row 1) into a new workbook
func writeFixture(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(fixtureSheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func headerRow() []interface{} {
	out := make([]interface{}, model.NumColumns)
	for i, h := range model.Headers {
		out[i] = h
	}
	return out
}

// fixtureWithHeaderAt5 has four metadata rows, the header on row 5 and three data rows
func fixtureWithHeaderAt5(t *testing.T) string {
	return writeFixture(t, [][]interface{}{
		{"不具合品一覧表"},
		{"月間期間: 2024-5", "", "作成者: 田中"},
		{},
		{"備考: 社外秘"},
		headerRow(),
		{"2024-04", 1, 1, "2024-04-02", "外観", "キズ", "塗装", "", "P-100", "山田工業", pathcodec.Escape(`C:\連絡書\F-001.pdf`), "F-001"},
		{"2024-05", 2, 2, "2024-05-14", "寸法", "バリ", "", "切削", "P-200", "鈴木製作所", "", "F-002"},
		{"2024-05", 3, 3, "2024-05-30", "外観"},
	})
}

func sheetRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(fixtureSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

// assertContiguous checks that both ordinal columns read 1, 2, 3, … top to bottom
func assertContiguous(t *testing.T, path string, dataStart int) {
	t.Helper()
	rows := sheetRows(t, path)
	for i := dataStart - 1; i < len(rows); i++ {
		want := strconv.Itoa(i - dataStart + 2)
		row := rows[i]
		if len(row) <= model.ColOrdinalNo || row[model.ColSequence] != want || row[model.ColOrdinalNo] != want {
			t.Fatalf("row %d ordinals = %v, expected %s/%s", i+1, row, want, want)
		}
	}
}

func newEntry(event string) model.Record {
	return model.Record{
		OccurrenceMonth: "2024-06",
		OccurrenceDate:  "2024-06-03",
		Category:        "外観",
		Event:           event,
		SupplierName:    "山田工業",
		NoticePath:      `\\fileserver\品質\` + event + `.pdf`,
		IncidentNo:      "F-" + event,
	}
}

func openStore(t *testing.T, path string) (*Store, *model.Table) {
	t.Helper()
	s := NewStore()
	tbl, err := s.Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, tbl
}

func TestOpenLocatesTableAndLoads(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, tbl := openStore(t, path)

	if tbl.HeaderRow != 5 || tbl.DataStartRow != 6 || !tbl.Detected {
		t.Fatalf("table = %+v, expected header 5 / data 6", tbl)
	}
	if tbl.Sheet != fixtureSheet {
		t.Errorf("Sheet = %q, expected first sheet", tbl.Sheet)
	}
	if diff := cmp.Diff(model.Headers[:], tbl.Columns); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}

	recs := s.Records()
	if len(recs) != 3 {
		t.Fatalf("len(Records) = %d, expected 3", len(recs))
	}
	if recs[0].Row != 6 || recs[2].Row != 8 {
		t.Errorf("rows = %d..%d, expected 6..8", recs[0].Row, recs[2].Row)
	}
	if recs[0].NoticePath != `C:\連絡書\F-001.pdf` {
		t.Errorf("NoticePath = %q, expected decoded path", recs[0].NoticePath)
	}
	if recs[1].EventSecondary != "切削" || recs[1].Sequence != 2 {
		t.Errorf("unexpected second record: %+v", recs[1])
	}

	// Short third row: trailing cells are absent, not empty strings
	third := recs[2]
	if !third.Cells[model.ColCategory].Set || third.Cells[model.ColIncidentNo].Set {
		t.Errorf("Set flags wrong: %+v", third.Cells)
	}
	if third.IncidentNo != "" {
		t.Errorf("absent cell should read as empty string, got %q", third.IncidentNo)
	}
}

func TestOpenFallsBackToDefaultHeader(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"no header here"},
		{},
		{"a", "b", "c"},
		{"x", 1, 1},
	})

	_, tbl := openStore(t, path)
	if tbl.HeaderRow != model.DefaultHeaderRow || tbl.DataStartRow != model.DefaultDataStartRow || tbl.Detected {
		t.Errorf("table = %+v, expected default position", tbl)
	}
}

func TestOpenErrors(t *testing.T) {
	path := fixtureWithHeaderAt5(t)

	if _, err := NewStore().Open(filepath.Join(t.TempDir(), "missing.xlsx"), ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing document: expected ErrNotFound, got %v", err)
	}
	if _, err := NewStore().Open(path, "NoSuchSheet"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing sheet: expected ErrNotFound, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.xlsx")
	os.WriteFile(bad, []byte("not a zip"), 0644)
	if _, err := NewStore().Open(bad, ""); !errors.Is(err, model.ErrIO) {
		t.Errorf("corrupt document: expected ErrIO, got %v", err)
	}
}

func TestOperationsRequireOpenTable(t *testing.T) {
	s := NewStore()

	if err := s.Append(newEntry("a")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Append: expected ErrValidation, got %v", err)
	}
	if err := s.UpdateAt(4, newEntry("a")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("UpdateAt: expected ErrValidation, got %v", err)
	}
	if err := s.DeleteAt(4); !errors.Is(err, model.ErrValidation) {
		t.Errorf("DeleteAt: expected ErrValidation, got %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Load: expected ErrValidation, got %v", err)
	}

	path := fixtureWithHeaderAt5(t)
	s.Open(path, "")
	s.Close()
	if err := s.Append(newEntry("a")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Append after Close: expected ErrValidation, got %v", err)
	}
}

func TestAppend(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, tbl := openStore(t, path)

	if err := s.Append(newEntry("汚れ")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	recs := s.Records()
	if len(recs) != 4 {
		t.Fatalf("cache not refreshed: %d records", len(recs))
	}
	last := recs[3]
	if last.Row != 9 || last.Sequence != 4 || last.OrdinalNo != 4 {
		t.Errorf("appended record = %+v, expected row 9, #4", last)
	}
	if last.NoticePath != `\\fileserver\品質\汚れ.pdf` {
		t.Errorf("NoticePath = %q", last.NoticePath)
	}

	// Stored escaped on disk
	rows := sheetRows(t, path)
	if got := rows[8][model.ColNoticePath]; got != pathcodec.Escape(`\\fileserver\品質\汚れ.pdf`) {
		t.Errorf("stored notice path = %q, expected escaped form", got)
	}
	assertContiguous(t, path, tbl.DataStartRow)
}

func TestAppendAll(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, tbl := openStore(t, path)

	var ticks countingProgress
	batch := []model.Record{newEntry("a"), newEntry("b"), newEntry("c")}
	if err := s.AppendAll(batch, &ticks); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	if ticks != 3 {
		t.Errorf("progress ticks = %d, expected 3", ticks)
	}
	if got := len(s.Records()); got != 6 {
		t.Errorf("len(Records) = %d, expected 6", got)
	}
	assertContiguous(t, path, tbl.DataStartRow)
}

type countingProgress int

func (c *countingProgress) Increment() error {
	*c++
	return nil
}

func TestUpdateAt(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, tbl := openStore(t, path)

	upd := newEntry("変形")
	upd.Sequence = 50
	upd.OrdinalNo = 99
	if err := s.UpdateAt(7, upd); err != nil {
		t.Fatalf("UpdateAt: %v", err)
	}

	recs := s.Records()
	got := recs[1]
	if got.Event != "変形" || got.IncidentNo != "F-変形" || got.NoticePath != upd.NoticePath {
		t.Errorf("row 7 not updated: %+v", got)
	}
	if got.Sequence != 2 {
		t.Errorf("累計 = %d, expected 2", got.Sequence)
	}
	if len(recs) != 3 || recs[0].Event != "キズ" || recs[2].Category != "外観" {
		t.Errorf("neighbouring rows changed: %+v", recs)
	}
	assertContiguous(t, path, tbl.DataStartRow)
}

// Surprising but kept: a №  typed by the user does not survive the save,
// because Reindex re-derives it from the physical row position.
func TestUpdateAtDiscardsTypedOrdinalNo(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, _ := openStore(t, path)

	upd := s.Records()[0]
	upd.OrdinalNo = 99
	if err := s.UpdateAt(upd.Row, upd); err != nil {
		t.Fatalf("UpdateAt: %v", err)
	}

	if got := s.Records()[0].OrdinalNo; got != 1 {
		t.Errorf("№ = %d; expected the typed 99 to be replaced by the row position 1", got)
	}
}

func TestDeleteAt(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, tbl := openStore(t, path)

	if err := s.DeleteAt(6); err != nil {
		t.Fatalf("DeleteAt: %v", err)
	}

	recs := s.Records()
	if len(recs) != 2 {
		t.Fatalf("len(Records) = %d, expected 2", len(recs))
	}
	if recs[0].IncidentNo != "F-002" || recs[0].Row != 6 || recs[0].Sequence != 1 {
		t.Errorf("rows did not shift up: %+v", recs[0])
	}
	assertContiguous(t, path, tbl.DataStartRow)
}

func TestDeleteOnlyRowThenAppend(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"不具合品一覧表"},
		{},
		headerRow(),
		{"2024-05", 1, 1, "2024-05-01", "外観"},
	})
	s, tbl := openStore(t, path)

	if err := s.DeleteAt(4); err != nil {
		t.Fatalf("DeleteAt: %v", err)
	}
	if len(s.Records()) != 0 {
		t.Fatalf("expected no records, got %d", len(s.Records()))
	}
	if s.Table().DataStartRow != tbl.DataStartRow {
		t.Errorf("DataStartRow changed to %d", s.Table().DataStartRow)
	}

	if err := s.Append(newEntry("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	recs := s.Records()
	if len(recs) != 1 || recs[0].Sequence != 1 || recs[0].Row != 4 {
		t.Errorf("append after delete = %+v, expected #1 at row 4", recs)
	}
}

func TestRowOutOfRangeWritesNothing(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, _ := openStore(t, path)

	before, _ := os.ReadFile(path)

	for _, row := range []int{0, 5, 9, 100} {
		if err := s.UpdateAt(row, newEntry("x")); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("UpdateAt(%d): expected ErrNotFound, got %v", row, err)
		}
		if err := s.DeleteAt(row); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("DeleteAt(%d): expected ErrNotFound, got %v", row, err)
		}
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("document changed after failed mutations")
	}
	if len(s.Records()) != 3 {
		t.Error("cache changed after failed mutations")
	}
}

func TestMutationsKeepOrdinalsContiguous(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		{"不具合品一覧表"},
		{},
		headerRow(),
	})
	s, tbl := openStore(t, path)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 40; step++ {
		n := len(s.Records())
		var err error
		switch op := rng.Intn(3); {
		case op == 0 || n == 0:
			err = s.Append(newEntry(strconv.Itoa(step)))
		case op == 1:
			err = s.UpdateAt(tbl.DataStartRow+rng.Intn(n), newEntry("u"+strconv.Itoa(step)))
		default:
			err = s.DeleteAt(tbl.DataStartRow + rng.Intn(n))
		}
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		assertContiguous(t, path, tbl.DataStartRow)
		for i, rec := range s.Records() {
			if rec.Sequence != i+1 || rec.OrdinalNo != i+1 {
				t.Fatalf("step %d: cached record %d has ordinals %d/%d", step, i, rec.Sequence, rec.OrdinalNo)
			}
		}
	}
}

func TestLoadSeesExternalEdits(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, _ := openStore(t, path)

	f, _ := excelize.OpenFile(path)
	f.SetCellValue(fixtureSheet, "F6", "外部編集")
	f.Save()
	f.Close()

	recs, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if recs[0].Event != "外部編集" {
		t.Errorf("Event = %q, expected reloaded value", recs[0].Event)
	}
}

func TestSheets(t *testing.T) {
	path := fixtureWithHeaderAt5(t)

	sheets, err := Sheets(path)
	if err != nil {
		t.Fatalf("Sheets: %v", err)
	}
	if diff := cmp.Diff([]string{fixtureSheet}, sheets); diff != "" {
		t.Errorf("Sheets mismatch (-want +got):\n%s", diff)
	}

	if _, err := Sheets(filepath.Join(t.TempDir(), "none.xlsx")); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckOrdinalsAndRenumber(t *testing.T) {
	path := writeFixture(t, [][]interface{}{
		headerRow(),
		{"2024-05", 1, 1, "2024-05-01", "外観", "キズ"},
		{"2024-05", 7, 2, "2024-05-02", "寸法", "バリ"},
		{"2024-05", "", "", "2024-05-03", "外観", "ワレ"},
	})
	s, _ := openStore(t, path)

	got := CheckOrdinals(s.Records())
	want := []OrdinalMismatch{
		{Row: 3, Want: 2, Sequence: 7, OrdinalNo: 2},
		{Row: 4, Want: 3, Sequence: 0, OrdinalNo: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckOrdinals mismatch (-want +got):\n%s", diff)
	}

	if err := s.Renumber(); err != nil {
		t.Fatalf("Renumber: %v", err)
	}
	if got := CheckOrdinals(s.Records()); len(got) != 0 {
		t.Errorf("Expected no mismatches after Renumber, got %+v", got)
	}
	assertContiguous(t, path, 2)
}

func TestFailedReopenClosesStore(t *testing.T) {
	path := fixtureWithHeaderAt5(t)
	s, _ := openStore(t, path)
	before := sheetRows(t, path)

	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	if _, err := s.Open(missing, ""); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Open(missing) err = %v, expected ErrNotFound", err)
	}

	if s.Table() != nil || len(s.Records()) != 0 {
		t.Errorf("Store kept the previous table after a failed Open: %v, %d records", s.Table(), len(s.Records()))
	}
	if err := s.Append(newEntry("Z")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Append after failed Open err = %v, expected ErrValidation", err)
	}
	if after := sheetRows(t, path); len(after) != len(before) {
		t.Errorf("previous document changed: %d rows, expected %d", len(after), len(before))
	}
}
