// Package projection turns a validated table plus finalized mappings into
// the insert-ready observation batch. Projection is all-or-nothing: any bad
// row fails the whole batch with an aggregated error.
package projection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/dates"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/mapping"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// Error aggregates every per-row projection failure. ErrorRows holds the raw
// (zero-based) indexes of the offending rows.
type Error struct {
	Messages  []string `json:"messages"`
	ErrorRows []int    `json:"error_rows"`
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, " ")
}

// Project produces one observation per (row, Value column) pair. No partial
// output: if any row fails, the returned batch is nil.
func Project(table *csvparse.RawTable, ctrl *mapping.Controller, datasetID uuid.UUID) ([]models.Observation, error) {
	valueCols := columnsWithRole(ctrl.Roles, models.RoleValue)
	if len(valueCols) == 0 {
		return nil, &Error{Messages: []string{"no column is mapped to Value."}}
	}
	nameCol := lastColumnWithRole(ctrl.Roles, models.RoleName)
	placeCol := lastColumnWithRole(ctrl.Roles, models.RolePlace)
	dateCol := lastColumnWithRole(ctrl.Roles, models.RoleDate)
	periodCol := lastColumnWithRole(ctrl.Roles, models.RolePeriod)

	var (
		observations []models.Observation
		messages     []string
		errorRows    = make(map[int]bool)
	)
	fail := func(row int, format string, args ...any) {
		messages = append(messages, fmt.Sprintf(format, args...))
		errorRows[row] = true
	}

	for i := range table.Rows {
		place := cellText(table.Cell(i, placeCol))
		if place == "" {
			place = ctrl.Additional.ValueFor(models.RolePlace)
		}
		period := cellText(table.Cell(i, periodCol))
		if period == "" {
			period = ctrl.Additional.ValueFor(models.RolePeriod)
		}

		date := ""
		rawDate := rawValue(table.Cell(i, dateCol))
		if rawDate == nil || rawDate == "" {
			if manual := ctrl.Additional.ValueFor(models.RoleDate); manual != "" {
				rawDate = manual
			}
		}
		if rawDate != nil && rawDate != "" {
			iso, ok := dates.Normalize(rawDate)
			if !ok {
				fail(i, "Row %d: '%v' is not a valid date.", i+1, rawDate)
				continue
			}
			date = iso
		}

		for _, valueCol := range valueCols {
			cell := table.Cell(i, valueCol)
			value, ok := cell.AsNumber()
			if !ok {
				fail(i, "Row %d: '%s' is not a valid number.", i+1, cell.String())
				continue
			}
			observations = append(observations, models.Observation{
				ID:          uuid.New(),
				DatasetID:   datasetID,
				Name:        observationName(table, ctrl, i, nameCol, valueCol, len(valueCols)),
				Value:       value,
				PlaceUpload: place,
				Date:        date,
				Year:        yearOf(date),
				Period:      period,
			})
		}
	}

	if len(messages) > 0 {
		rows := make([]int, 0, len(errorRows))
		for row := range errorRows {
			rows = append(rows, row)
		}
		sort.Ints(rows)
		return nil, &Error{Messages: messages, ErrorRows: rows}
	}
	return observations, nil
}

// observationName applies the name-resolution policy: with several Value
// columns the name cell is suffixed with the value-column header; with one
// Value column the name cell stands alone; a blank or unmapped name falls
// back to the manual name, then to the value-column header.
func observationName(table *csvparse.RawTable, ctrl *mapping.Controller, row, nameCol, valueCol, valueCount int) string {
	header := ""
	if valueCol < len(table.Headers) {
		header = strings.TrimSpace(table.Headers[valueCol])
	}

	name := cellText(table.Cell(row, nameCol))
	if name == "" {
		name = ctrl.Additional.ValueFor(models.RoleName)
	}
	if name == "" {
		return header
	}
	if valueCount > 1 {
		return fmt.Sprintf("%s - %s", name, header)
	}
	return name
}

func columnsWithRole(roles []models.Role, role models.Role) []int {
	var out []int
	for i, r := range roles {
		if r == role {
			out = append(out, i)
		}
	}
	return out
}

// lastColumnWithRole returns -1 when the role is unmapped. When a role is
// mapped twice the later column wins, matching the upload form's behavior.
func lastColumnWithRole(roles []models.Role, role models.Role) int {
	col := -1
	for i, r := range roles {
		if r == role {
			col = i
		}
	}
	return col
}

// yearOf extracts the year component of a normalized yyyy-MM-dd date.
func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func cellText(cell csvparse.Cell) string {
	return strings.TrimSpace(cell.String())
}

// rawValue preserves the native cell variant for the date normalizer so a
// numeric 2023 can use the year fallback. Returns nil for empty cells.
func rawValue(cell csvparse.Cell) any {
	switch cell.Kind {
	case csvparse.CellNumber:
		return cell.Number
	case csvparse.CellText:
		if strings.TrimSpace(cell.Text) == "" {
			return nil
		}
		return strings.TrimSpace(cell.Text)
	default:
		return nil
	}
}
