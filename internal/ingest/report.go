package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/models"
)

// ErrorReportCSV renders the current validation report as a downloadable CSV
// with columns row, column, errors. Row numbers are 1-based and offset by
// the header row, so raw row index 0 exports as row 2.
func (s *Session) ErrorReportCSV() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"row", "column", "errors"}); err != nil {
		return nil, fmt.Errorf("failed to write error report header: %w", err)
	}

	if s.Report != nil {
		rows := make([]int, 0, len(s.Report.CellErrors))
		for row := range s.Report.CellErrors {
			rows = append(rows, row)
		}
		sort.Ints(rows)

		for _, row := range rows {
			cols := s.Report.CellErrors[row]
			names := make([]string, 0, len(cols))
			for name := range cols {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				record := []string{
					fmt.Sprintf("%d", row+2),
					name,
					strings.Join(cols[name], "; "),
				}
				if err := w.Write(record); err != nil {
					return nil, fmt.Errorf("failed to write error report row: %w", err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush error report: %w", err)
	}
	return buf.Bytes(), nil
}

// View is the JSON snapshot handlers return for a session.
type View struct {
	ID               string                   `json:"id"`
	Filename         string                   `json:"filename"`
	State            State                    `json:"state"`
	Headers          []string                 `json:"headers"`
	RowCount         int                      `json:"row_count"`
	Roles            []models.Role            `json:"roles"`
	AdditionalFields map[string]string        `json:"additional_fields"`
	Completion       models.CompletionStatus  `json:"completion"`
	IsFormValid      bool                     `json:"is_form_valid"`
	DuplicateRoles   []models.Role            `json:"duplicate_role_warnings,omitempty"`
	Report           *models.ValidationReport `json:"report"`
	Dataset          models.Dataset           `json:"dataset"`
	LastError        string                   `json:"last_error,omitempty"`
}

// Snapshot builds the client-facing view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	completion := s.Mapping.Completion(s.Rules)
	fields := map[string]string{
		"name":   s.Mapping.Additional.Name,
		"place":  s.Mapping.Additional.Place,
		"date":   s.Mapping.Additional.Date,
		"period": s.Mapping.Additional.Period,
	}
	return View{
		ID:               s.ID.String(),
		Filename:         s.Filename,
		State:            s.State,
		Headers:          s.Table.Headers,
		RowCount:         len(s.Table.Rows),
		Roles:            append([]models.Role{}, s.Mapping.Roles...),
		AdditionalFields: fields,
		Completion:       completion,
		IsFormValid:      completion.AllSatisfied(),
		DuplicateRoles:   s.Mapping.DuplicateRoles(),
		Report:           s.Report,
		Dataset:          s.Dataset,
		LastError:        s.LastError,
	}
}
