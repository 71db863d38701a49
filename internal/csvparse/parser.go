package csvparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ParseErrorKind classifies fatal parse failures. All of them abort the
// current upload attempt; none produce a partial table.
type ParseErrorKind string

const (
	NotCsvExtension ParseErrorKind = "NOT_CSV_EXTENSION"
	MalformedCsv    ParseErrorKind = "MALFORMED_CSV"
	MissingHeaders  ParseErrorKind = "MISSING_HEADERS"
	EmptyData       ParseErrorKind = "EMPTY_DATA"
)

// ParseError is the single aggregated error returned when a file cannot be
// turned into a RawTable.
type ParseError struct {
	Kind    ParseErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Row is one data row, index-aligned with the table headers. Short and long
// rows keep their real length so structural validation can flag them.
type Row []Cell

// RawTable is the parsed form of an uploaded file: the header list in raw
// order (blanks and duplicates included) plus the data rows.
type RawTable struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Cell returns the cell at (row, col), or the empty cell when the row is
// shorter than the header list.
func (t *RawTable) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) {
		return EmptyCell()
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return EmptyCell()
	}
	return r[col]
}

// maxReportedIssues caps how many tokenizer problems a MalformedCsv message
// aggregates before truncating.
const maxReportedIssues = 20

// Parse turns an uploaded file into a RawTable. The filename must carry a
// .csv extension (or the content type must be text/csv). The whole file
// either parses or the operation fails with one aggregated ParseError.
func Parse(filename, contentType string, r io.Reader) (*RawTable, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") && !strings.HasPrefix(contentType, "text/csv") {
		return nil, &ParseError{
			Kind:    NotCsvExtension,
			Message: fmt.Sprintf("file %q is not a CSV file; expected a .csv extension or text/csv content type", filename),
		}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // structural validation handles ragged rows

	var records [][]string
	var issues []string
	lastOffset := int64(-1)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(issues) < maxReportedIssues {
				issues = append(issues, err.Error())
			}
			// Guard against a reader that cannot make progress past the
			// failure point.
			if reader.InputOffset() == lastOffset {
				break
			}
			lastOffset = reader.InputOffset()
			continue
		}
		lastOffset = reader.InputOffset()
		records = append(records, record)
	}
	if len(issues) > 0 {
		return nil, &ParseError{
			Kind:    MalformedCsv,
			Message: fmt.Sprintf("CSV file is malformed: %s", strings.Join(issues, "; ")),
		}
	}

	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &ParseError{Kind: MissingHeaders, Message: "no header row detected in CSV file"}
	}
	headers := records[0]
	if allBlank(headers) {
		return nil, &ParseError{Kind: MissingHeaders, Message: "header row contains no column names"}
	}

	dataRecords := records[1:]
	if len(dataRecords) == 0 {
		return nil, &ParseError{Kind: EmptyData, Message: "CSV file contains no data rows"}
	}

	rows := make([]Row, 0, len(dataRecords))
	for _, record := range dataRecords {
		row := make(Row, len(record))
		for i, raw := range record {
			row[i] = coerce(raw)
		}
		rows = append(rows, row)
	}

	return &RawTable{Headers: headers, Rows: rows}, nil
}

// coerce applies the post-parse typing step: blanks become the empty variant
// and numeric-looking strings (including comma-grouped ones) become numbers.
func coerce(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptyCell()
	}
	if f, ok := ParseNumber(trimmed); ok {
		return NumberCell(f)
	}
	return TextCell(raw)
}

func allBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
