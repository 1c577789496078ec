package models

import "rentabill/pkg/sheetval"

// Premise is a rentable unit billed independently. Created once by an owner
// action and never deleted; meters reference it by id.
type Premise struct {
	Row     int    `json:"_row"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PremiseFromRow coerces a raw store row. Sheet columns: id, name, address.
func PremiseFromRow(cells map[string]string, row int) Premise {
	return Premise{
		Row:     row,
		ID:      sheetval.Int(cells, "id"),
		Name:    sheetval.String(cells, "name"),
		Address: sheetval.String(cells, "address"),
	}
}
