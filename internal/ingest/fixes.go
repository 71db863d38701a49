package ingest

import (
	"regexp"
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/csvparse"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/dates"
	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// ApplyFixes runs the bulk auto-repair pass over every cell: whitespace
// cleanup, numeric coercion, and date normalization for columns mapped to
// Date. The pre-fix state goes into the undo buffer and the table is fully
// re-validated afterwards.
func (s *Session) ApplyFixes() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateSubmitting {
		return ErrSubmitInFlight
	}

	s.saveUndo()
	for _, row := range s.Table.Rows {
		for col := range row {
			role := models.RoleIgnore
			if col < len(s.Mapping.Roles) {
				role = s.Mapping.Roles[col]
			}
			row[col] = fixCell(row[col], role)
		}
	}
	s.revalidate()
	return nil
}

// fixCell applies the repair steps in order: trim and collapse whitespace,
// then numeric coercion, then date normalization when the column is mapped
// to Date. Each step is skipped when it does not apply.
func fixCell(cell csvparse.Cell, role models.Role) csvparse.Cell {
	if cell.Kind == csvparse.CellText {
		cleaned := innerWhitespace.ReplaceAllString(strings.TrimSpace(cell.Text), " ")
		if cleaned == "" {
			cell = csvparse.EmptyCell()
		} else if n, ok := csvparse.ParseNumber(cleaned); ok {
			cell = csvparse.NumberCell(n)
		} else {
			cell = csvparse.TextCell(cleaned)
		}
	}

	if role == models.RoleDate && !cell.IsEmpty() {
		var value any
		if cell.Kind == csvparse.CellNumber {
			value = cell.Number
		} else {
			value = cell.Text
		}
		if iso, ok := dates.Normalize(value); ok {
			return csvparse.TextCell(iso)
		}
	}
	return cell
}
