package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"

	"github.com/xuri/excelize/v2"
)

// openDocument opens the workbook at path, classifying a missing file as ErrNotFound
func openDocument(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: document %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", model.ErrIO, path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrIO, path, err)
	}
	return f, nil
}

// resolveSheet returns sheet if it exists, or the first sheet when sheet is empty
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return "", fmt.Errorf("%w: workbook has no sheets", model.ErrNotFound)
		}
		return sheets[0], nil
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return "", fmt.Errorf("%w: sheet %q", model.ErrNotFound, sheet)
	}
	return sheet, nil
}

// saveAtomic writes f to a temporary sibling and renames it over path,
// so a failed write leaves the original document untouched
func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", model.ErrIO, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := f.WriteTo(tmp); err != nil {
		cleanup()
		return fmt.Errorf("%w: write %s: %v", model.ErrIO, path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", model.ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", model.ErrIO, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", model.ErrIO, path, err)
	}

	logger.Debug("Saved %s", path)
	return nil
}

// Sheets lists the sheet names of the workbook at path
func Sheets(path string) ([]string, error) {
	f, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
