package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"defect-ledger/internal/model"

	"github.com/google/go-cmp/cmp"
)

func readFile(t *testing.T, file string) []string {
	t.Helper()
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("history file is not a JSON string array: %v", err)
	}
	return items
}

func TestAddDeduplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg", FileName)
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	h := New(file)
	h.Add(a)
	h.Add(b)
	h.Add(a)

	want := []string{a, b}
	if diff := cmp.Diff(want, h.Items()); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, readFile(t, file)); diff != "" {
		t.Errorf("persisted items mismatch (-want +got):\n%s", diff)
	}
}

func TestAddComparesCanonicalForm(t *testing.T) {
	dir := t.TempDir()
	h := New("")

	h.Add(filepath.Join(dir, "sub", "..", "a.xlsx"))
	h.Add(filepath.Join(dir, "a.xlsx"))

	if got := h.Items(); len(got) != 1 || got[0] != filepath.Join(dir, "a.xlsx") {
		t.Errorf("Items = %v, expected single canonical entry", got)
	}
}

func TestAddCapsAtMax(t *testing.T) {
	dir := t.TempDir()
	h := New(filepath.Join(dir, FileName))

	for i := 0; i < model.MaxHistory+1; i++ {
		h.Add(filepath.Join(dir, fmt.Sprintf("%02d.xlsx", i)))
	}

	items := h.Items()
	if len(items) != model.MaxHistory {
		t.Fatalf("len(Items) = %d, expected %d", len(items), model.MaxHistory)
	}
	if items[0] != filepath.Join(dir, "10.xlsx") {
		t.Errorf("most recent = %s", items[0])
	}
	if items[len(items)-1] != filepath.Join(dir, "01.xlsx") {
		t.Errorf("oldest kept = %s, expected 01.xlsx (00.xlsx dropped)", items[len(items)-1])
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	h := New(file)
	h.Add(a)
	h.Add(b)

	reloaded := New(file)
	if diff := cmp.Diff([]string{b, a}, reloaded.Items()); diff != "" {
		t.Errorf("reloaded items mismatch (-want +got):\n%s", diff)
	}

	reloaded.Remove(b)
	if diff := cmp.Diff([]string{a}, readFile(t, file)); diff != "" {
		t.Errorf("after Remove (-want +got):\n%s", diff)
	}

	reloaded.Remove(filepath.Join(dir, "missing.xlsx"))
	if got := reloaded.Items(); len(got) != 1 {
		t.Errorf("removing an absent path changed items: %v", got)
	}
}

func TestClearDeletesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)

	h := New(file)
	h.Add(filepath.Join(dir, "a.xlsx"))
	h.Clear()

	if len(h.Items()) != 0 {
		t.Error("Items should be empty after Clear")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("history file should be deleted, stat err = %v", err)
	}

	// Clearing again with no file is fine
	h.Clear()
}

func TestLoadToleratesBadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)

	if err := os.WriteFile(file, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	h := New(file)
	if len(h.Items()) != 0 {
		t.Errorf("corrupt file should load as empty, got %v", h.Items())
	}

	// Duplicates and overflow in a hand-edited file are cleaned up
	var stored []string
	for i := 0; i < 12; i++ {
		stored = append(stored, filepath.Join(dir, "same.xlsx"), filepath.Join(dir, fmt.Sprintf("%d.xlsx", i)))
	}
	data, _ := json.Marshal(stored)
	os.WriteFile(file, data, 0644)

	h = New(file)
	items := h.Items()
	if len(items) != model.MaxHistory {
		t.Fatalf("len = %d, expected %d", len(items), model.MaxHistory)
	}
	if items[0] != filepath.Join(dir, "same.xlsx") {
		t.Errorf("first = %s", items[0])
	}
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the config directory should be makes MkdirAll fail
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	h := New(filepath.Join(blocker, FileName))
	h.Add(filepath.Join(dir, "a.xlsx"))

	if len(h.Items()) != 1 {
		t.Error("in-memory history should still be updated when saving fails")
	}
}
