package validate

import (
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// numericLikelyThreshold is the share of non-blank values that must parse as
// numbers before a column is treated as numeric for the heuristic type check.
const numericLikelyThreshold = 0.7

// Structural runs the mapping-independent checks: header integrity, row
// lengths, empty rows, and the best-effort numeric-column inference. It
// complements, not replaces, the schema-driven pass.
func Structural(table *csvparse.RawTable) *models.ValidationReport {
	report := models.NewValidationReport()
	if table == nil {
		return report
	}

	checkHeaders(table.Headers, report)

	headerLen := len(table.Headers)
	for i, row := range table.Rows {
		if rowBlank(row) {
			// Empty rows are flagged once and excluded from per-cell checks.
			report.AddRow(i, models.ViolationEmptyRow)
			continue
		}
		if len(row) < headerLen {
			report.AddRow(i, models.ViolationMissingCell)
		} else if len(row) > headerLen {
			report.AddRow(i, models.ViolationExtraCell)
		}
	}

	checkNumericColumns(table, report)
	return report
}

func checkHeaders(headers []string, report *models.ValidationReport) {
	if len(headers) == 0 {
		report.AddGlobal(models.ViolationHeaderMissing, 1)
		return
	}

	blanks := 0
	counts := make(map[string]int)
	for _, name := range headers {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			blanks++
			continue
		}
		counts[trimmed]++
	}
	if blanks == len(headers) {
		report.AddGlobal(models.ViolationHeaderMissing, 1)
	}
	report.AddGlobal(models.ViolationColumnNameBlank, blanks)

	duplicates := 0
	for _, n := range counts {
		if n > 1 {
			duplicates++
		}
	}
	report.AddGlobal(models.ViolationDuplicateColumn, duplicates)
}

// checkNumericColumns flags non-numeric stragglers in columns where at least
// 70% of the non-blank values parse as numbers.
func checkNumericColumns(table *csvparse.RawTable, report *models.ValidationReport) {
	for col, column := range table.Headers {
		nonBlank := 0
		numeric := 0
		for i := range table.Rows {
			if rowBlank(table.Rows[i]) {
				continue
			}
			cell := table.Cell(i, col)
			if cell.IsEmpty() {
				continue
			}
			nonBlank++
			if _, ok := cell.AsNumber(); ok {
				numeric++
			}
		}
		if nonBlank == 0 || float64(numeric)/float64(nonBlank) < numericLikelyThreshold {
			continue
		}
		for i := range table.Rows {
			if rowBlank(table.Rows[i]) {
				continue
			}
			cell := table.Cell(i, col)
			if cell.IsEmpty() {
				continue
			}
			if _, ok := cell.AsNumber(); !ok {
				report.AddCell(i, column, models.ViolationExpectedNumber)
			}
		}
	}
}
