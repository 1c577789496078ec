package models

import "rentabill/pkg/sheetval"

// Tariff is a per-utility-type rate. Meter rows pull their tariff from this
// table through a store-side formula.
type Tariff struct {
	Row  int     `json:"_row"`
	Type string  `json:"type"`
	Rate float64 `json:"tariff"`
}

// TariffFromRow coerces a raw store row. Sheet columns: type, tariff.
func TariffFromRow(cells map[string]string, row int) Tariff {
	return Tariff{
		Row:  row,
		Type: sheetval.String(cells, "type"),
		Rate: sheetval.Float(cells, "tariff"),
	}
}
