package csvparse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// CellKind discriminates the Cell tagged union. Downstream validators branch
// on the kind instead of probing runtime types.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one parsed CSV value: empty, free text, or a number the tokenizer
// (or the post-parse coercion step) recognised.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// EmptyCell returns the empty variant.
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// TextCell returns a text variant holding the raw string.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric variant.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// IsEmpty reports whether the cell is empty or whitespace-only text.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String returns the raw string form of the cell. Numbers render without a
// trailing ".0" when integral.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// AsNumber returns the numeric value of the cell, attempting thousands-
// separator-tolerant parsing of text cells.
func (c Cell) AsNumber() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		return ParseNumber(c.Text)
	default:
		return 0, false
	}
}

// MarshalJSON renders the cell as its native JSON value: number, string, or
// empty string.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		return json.Marshal(c.Number)
	case CellText:
		return json.Marshal(c.Text)
	default:
		return json.Marshal("")
	}
}

// numberPattern accepts plain or comma-grouped decimals with an optional
// leading minus, e.g. "42", "-3.5", "1,234", "12,345,678.9".
var numberPattern = regexp.MustCompile(`^-?[0-9][0-9,]*(\.[0-9]+)?$`)

// ParseNumber parses a numeric-looking string, stripping thousands separators
// first. "1,234" becomes 1234.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numberPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
