// Package sheetval coerces raw spreadsheet cell values into typed Go values.
//
// The remote store hands every cell back as a string. Coercion is total:
// absent or blank cells map to the type's zero value so callers never see a
// parse error for an empty row.
package sheetval

import (
	"strconv"
	"strings"
)

// String returns the trimmed cell value, or "" when the column is absent.
func String(cells map[string]string, key string) string {
	return strings.TrimSpace(cells[key])
}

// Float parses a numeric cell. Blank or unparseable cells yield 0.
// Locale-formatted sheets export comma decimals ("1234,56") and grouped
// values ("1,234.56" or "1 234,56"): without a dot the comma is the decimal
// separator, with a dot the commas are grouping and are dropped.
func Float(cells map[string]string, key string) float64 {
	raw := String(cells, key)
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", "")
	} else {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// Int parses an integer cell. Blank or unparseable cells yield 0. Cells that
// the store formatted as floats ("42.0") are truncated.
func Int(cells map[string]string, key string) int64 {
	raw := String(cells, key)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Bool reports whether a cell holds a truthy marker. The store writes
// checkbox columns as TRUE/FALSE and flag columns as 0/1; everything else is
// false.
func Bool(cells map[string]string, key string) bool {
	raw := String(cells, key)
	switch strings.ToUpper(raw) {
	case "TRUE", "1":
		return true
	}
	return false
}
