package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	// DefaultTitle is written into the merged title cell
	DefaultTitle = "不具合品一覧表"

	// WorkbookName is the file name of a ledger created by CreateWorkbook
	WorkbookName = "不具合品一覧表.xlsx"

	// NoticeDirName is the attachment folder created next to the workbook
	NoticeDirName = "不良発生連絡書発行"

	templateSheet = "Sheet1"
)

// TemplateOptions describes a new ledger workbook
type TemplateOptions struct {
	BaseDir string    // Parent directory; a monthly folder is created inside
	Creator string    // Required
	Title   string    // Defaults to DefaultTitle
	Now     time.Time // Defaults to time.Now()
}

// MonthFolder returns the folder name used for the month of t, e.g. "2024-5-不良品データ"
func MonthFolder(t time.Time) string {
	return fmt.Sprintf("%d-%d-不良品データ", t.Year(), int(t.Month()))
}

// CreateWorkbook creates <BaseDir>/<MonthFolder>/不具合品一覧表.xlsx with the
// title block and the header on row 3, plus the attachment folder. An
// existing workbook is left untouched and its path returned.
func CreateWorkbook(opts TemplateOptions) (string, error) {
	if strings.TrimSpace(opts.Creator) == "" {
		return "", fmt.Errorf("%w: creator is required", model.ErrValidation)
	}
	if strings.TrimSpace(opts.BaseDir) == "" {
		return "", fmt.Errorf("%w: base directory is required", model.ErrValidation)
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	folder := filepath.Join(opts.BaseDir, MonthFolder(opts.Now))
	if err := os.MkdirAll(filepath.Join(folder, NoticeDirName), 0755); err != nil {
		return "", fmt.Errorf("%w: create folder: %v", model.ErrIO, err)
	}

	path := filepath.Join(folder, WorkbookName)
	if _, err := os.Stat(path); err == nil {
		logger.Info("Workbook already exists: %s", path)
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: stat %s: %v", model.ErrIO, path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeTemplate(f, opts); err != nil {
		return "", fmt.Errorf("%w: build template: %v", model.ErrIO, err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("%w: save %s: %v", model.ErrIO, path, err)
	}

	logger.Info("Created workbook %s", path)
	return path, nil
}

func writeTemplate(f *excelize.File, opts TemplateOptions) error {
	sheet := templateSheet
	s, err := NewStyler(f)
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(model.NumColumns)
	if err != nil {
		return err
	}

	// Title block
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", opts.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", s.TitleStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 28); err != nil {
		return err
	}

	// Period & creator
	period := fmt.Sprintf("月間期間: %d-%d", opts.Now.Year(), int(opts.Now.Month()))
	if err := f.SetCellValue(sheet, "A2", period); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "C2", "作成者: "+opts.Creator); err != nil {
		return err
	}

	// Header
	if err := writeStyledRow(f, sheet, model.DefaultHeaderRow, model.Headers[:], s.HeaderStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "D", "D", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "E", lastCol, 18); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      model.DefaultHeaderRow,
		TopLeftCell: fmt.Sprintf("A%d", model.DefaultDataStartRow),
		ActivePane:  "bottomLeft",
	})
}
