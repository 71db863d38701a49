// Package validate implements the two validation passes of the contribute
// flow: schema validation driven by per-field rules and the mapping-
// independent structural checks. Both passes rebuild their report from
// scratch on every call, so the report is always consistent with the current
// table, mapping and rules.
package validate

import (
	"fmt"
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/dates"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// Schema checks every mapped column against the rule configured for its
// logical field. All applicable violations for a cell are accumulated, never
// short-circuited. Rows whose cells are all blank are skipped here; the
// structural pass already flags them as empty rows.
func Schema(table *csvparse.RawTable, roles []models.Role, rules SchemaRules) *models.ValidationReport {
	report := models.NewValidationReport()
	if table == nil {
		return report
	}

	for col, role := range roles {
		if role == models.RoleIgnore || col >= len(table.Headers) {
			continue
		}
		rule, ok := rules[role]
		if !ok {
			continue
		}
		column := table.Headers[col]
		seen := make(map[string]bool)

		for i, row := range table.Rows {
			if rowBlank(row) {
				continue
			}
			cell := table.Cell(i, col)
			raw := cell.String()

			if cell.IsEmpty() {
				if rule.Required {
					report.AddCell(i, column, models.ViolationRequired)
				}
				continue
			}

			switch strings.ToLower(rule.Type) {
			case TypeNumber:
				if n, ok := cell.AsNumber(); !ok {
					report.AddCell(i, column, models.ViolationExpectedNumber)
				} else {
					if rule.Min != nil && n < *rule.Min {
						report.AddCell(i, column, fmt.Sprintf("Below minimum (%v)", *rule.Min))
					}
					if rule.Max != nil && n > *rule.Max {
						report.AddCell(i, column, fmt.Sprintf("Above maximum (%v)", *rule.Max))
					}
				}
			case TypeDate:
				if _, ok := dates.Normalize(cellValue(cell)); !ok {
					report.AddCell(i, column, models.ViolationExpectedDate)
				}
			}

			if len(rule.Enum) > 0 && !contains(rule.Enum, raw) {
				report.AddCell(i, column, models.ViolationNotInAllowedSet)
			}

			if rule.Unique {
				key := strings.ToLower(strings.TrimSpace(raw))
				if seen[key] {
					report.AddCell(i, column, models.ViolationDuplicateValue)
				}
				seen[key] = true
			}
		}
	}
	return report
}

// cellValue hands the date normalizer the most faithful representation of a
// cell: numbers stay numbers so a bare 2023 can take the year fallback.
func cellValue(cell csvparse.Cell) any {
	if cell.Kind == csvparse.CellNumber {
		return cell.Number
	}
	return cell.String()
}

func rowBlank(row csvparse.Row) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
