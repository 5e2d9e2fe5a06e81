package ledger

import (
	"strconv"
	"strings"

	"defect-ledger/internal/model"
)

const (
	// ScanRows is how many leading rows are searched for the header
	ScanRows = 20

	// minHeaderMatches is how many indicators a row needs to count as the header
	minHeaderMatches = 3
)

// headerIndicators are the labels of the first six columns
var headerIndicators = []string{"発生月", "累計", "№", "発生日", "項目", "事象"}

// Locate finds the header row among the first ScanRows rows.
// rows is the sheet content as returned by excelize GetRows (index 0 = row 1).
// found is false when the default position was used.
func Locate(rows [][]string) (headerRow, dataStartRow int, found bool) {
	limit := ScanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		if countIndicators(rows[i]) >= minHeaderMatches {
			return i + 1, i + 2, true
		}
	}

	return model.DefaultHeaderRow, model.DefaultDataStartRow, false
}

// countIndicators counts indicators that occur as a substring of any non-empty cell
func countIndicators(row []string) int {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}

	matches := 0
	for _, ind := range headerIndicators {
		for _, c := range cells {
			if strings.Contains(c, ind) {
				matches++
				break
			}
		}
	}
	return matches
}

// columnLabels reads the header labels, naming blank ones Column_<i>
func columnLabels(rows [][]string, headerRow int) []string {
	var header []string
	if headerRow-1 < len(rows) {
		header = rows[headerRow-1]
	}

	n := len(header)
	if n < model.NumColumns {
		n = model.NumColumns
	}

	labels := make([]string, n)
	for i := range labels {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			labels[i] = strings.TrimSpace(header[i])
			continue
		}
		labels[i] = "Column_" + strconv.Itoa(i)
	}
	return labels
}
