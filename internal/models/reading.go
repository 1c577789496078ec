package models

import "rentabill/pkg/sheetval"

// Reading is one entry of the append-only readings log. Values for a meter
// are assumed non-decreasing; the readings service enforces that on write.
type Reading struct {
	Row         int     `json:"_row"`
	Date        string  `json:"date"`
	MeterID     int64   `json:"meter_id"`
	MeterName   string  `json:"meter"`
	PremiseID   int64   `json:"premise_id"`
	PremiseName string  `json:"premise"`
	TelegramID  int64   `json:"telegram_id"`
	TenantName  string  `json:"tenant"`
	Value       float64 `json:"value"`
}

// ReadingFromRow coerces a raw store row. Sheet columns: date, meter_id,
// meter, premise_id, premise, telegram_id, tenant, value.
func ReadingFromRow(cells map[string]string, row int) Reading {
	return Reading{
		Row:         row,
		Date:        sheetval.String(cells, "date"),
		MeterID:     sheetval.Int(cells, "meter_id"),
		MeterName:   sheetval.String(cells, "meter"),
		PremiseID:   sheetval.Int(cells, "premise_id"),
		PremiseName: sheetval.String(cells, "premise"),
		TelegramID:  sheetval.Int(cells, "telegram_id"),
		TenantName:  sheetval.String(cells, "tenant"),
		Value:       sheetval.Float(cells, "value"),
	}
}
