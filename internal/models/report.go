package models

import "sort"

// Violation labels attached to individual cells or rows. The exact wording is
// part of the contract with the contribute UI and the error-report export.
const (
	ViolationRequired        = "Required value missing"
	ViolationExpectedNumber  = "Wrong data type (expected number)"
	ViolationExpectedDate    = "Wrong data type (expected date)"
	ViolationNotInAllowedSet = "Value not in allowed set"
	ViolationDuplicateValue  = "Duplicate value (should be unique)"
	ViolationHeaderMissing   = "Header missing"
	ViolationColumnNameBlank = "Column name missing"
	ViolationDuplicateColumn = "Duplicate column name"
	ViolationEmptyRow        = "Empty row"
	ViolationMissingCell     = "Missing cell"
	ViolationExtraCell       = "Extra cell"
)

// RowLevelColumn is the cellErrors column key used for findings that belong to
// a whole row (empty row, missing/extra cell) rather than to one cell.
const RowLevelColumn = ""

// SummaryKey collapses a violation label into its summary-counter family.
// "Wrong data type (expected number)" and "(expected date)" both count under
// "Wrong data type"; bound violations lose their concrete bound.
func SummaryKey(label string) string {
	for i := 0; i < len(label); i++ {
		if label[i] == '(' {
			for i > 0 && label[i-1] == ' ' {
				i--
			}
			return label[:i]
		}
	}
	return label
}

// ValidationReport is the full picture of everything wrong with the current
// table under the current mapping and rules. It is rebuilt from scratch on
// every change so it can never drift out of sync with its inputs.
type ValidationReport struct {
	// CellErrors maps row index -> column name -> ordered violation labels.
	CellErrors map[int]map[string][]string `json:"cell_errors"`
	// ErrorRows lists, in ascending order, every row index with at least one
	// cell or row-level violation.
	ErrorRows []int `json:"error_rows"`
	// Summary counts occurrences per violation family (see SummaryKey).
	Summary map[string]int `json:"summary"`

	errorRowSet map[int]bool
}

// NewValidationReport returns an empty report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		CellErrors:  make(map[int]map[string][]string),
		ErrorRows:   []int{},
		Summary:     make(map[string]int),
		errorRowSet: make(map[int]bool),
	}
}

// AddCell records a violation against one cell and marks its row as an error
// row.
func (r *ValidationReport) AddCell(row int, column, label string) {
	cols, ok := r.CellErrors[row]
	if !ok {
		cols = make(map[string][]string)
		r.CellErrors[row] = cols
	}
	cols[column] = append(cols[column], label)
	r.Summary[SummaryKey(label)]++
	r.markRow(row)
}

// AddRow records a row-level violation (empty row, length mismatch).
func (r *ValidationReport) AddRow(row int, label string) {
	r.AddCell(row, RowLevelColumn, label)
}

// AddGlobal bumps a summary counter for a finding with no row of its own,
// such as header problems.
func (r *ValidationReport) AddGlobal(label string, count int) {
	if count > 0 {
		r.Summary[SummaryKey(label)] += count
	}
}

// HasErrorRow reports whether the given row carries any violation.
func (r *ValidationReport) HasErrorRow(row int) bool {
	return r.errorRowSet[row]
}

// HasErrors reports whether anything at all was flagged.
func (r *ValidationReport) HasErrors() bool {
	return len(r.Summary) > 0
}

// Merge folds another report into this one.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	for row, cols := range other.CellErrors {
		dst, ok := r.CellErrors[row]
		if !ok {
			dst = make(map[string][]string)
			r.CellErrors[row] = dst
		}
		for col, labels := range cols {
			dst[col] = append(dst[col], labels...)
		}
		r.markRow(row)
	}
	for key, n := range other.Summary {
		r.Summary[key] += n
	}
}

// Clone returns a deep copy, used for the single-slot undo buffer.
func (r *ValidationReport) Clone() *ValidationReport {
	out := NewValidationReport()
	for row, cols := range r.CellErrors {
		copied := make(map[string][]string, len(cols))
		for col, labels := range cols {
			copied[col] = append([]string(nil), labels...)
		}
		out.CellErrors[row] = copied
	}
	out.ErrorRows = append([]int{}, r.ErrorRows...)
	for key, n := range r.Summary {
		out.Summary[key] = n
	}
	for row := range r.errorRowSet {
		out.errorRowSet[row] = true
	}
	return out
}

func (r *ValidationReport) markRow(row int) {
	if r.errorRowSet[row] {
		return
	}
	r.errorRowSet[row] = true
	r.ErrorRows = append(r.ErrorRows, row)
	sort.Ints(r.ErrorRows)
}
