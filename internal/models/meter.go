package models

import "rentabill/pkg/sheetval"

// Meter is a metered utility line attached to one premise. The tenant who
// submits readings and the tenant who pays for consumption may differ.
//
// Tariff, UnbilledConsumption and UnbilledAmount are produced by store-side
// formulas; this layer reads them and never writes those columns.
type Meter struct {
	Row                  int     `json:"_row"`
	ID                   int64   `json:"id"`
	PremiseID            int64   `json:"premise_id"`
	PremiseName          string  `json:"premise"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	Unit                 string  `json:"unit"`
	Tariff               float64 `json:"tariff"`
	ReadingResponsibleID int64   `json:"reading_responsible_id"`
	ReadingResponsible   string  `json:"reading_responsible"`
	PaymentResponsibleID int64   `json:"payment_responsible_id"`
	PaymentResponsible   string  `json:"payment_responsible"`
	LastReading          float64 `json:"last_reading"`
	LastReadingDate      string  `json:"last_reading_date"`
	PaidReading          float64 `json:"paid_reading"`
	PaidDate             string  `json:"paid_date"`
	UnbilledConsumption  float64 `json:"unbilled_consumption"`
	UnbilledAmount       float64 `json:"unbilled_amount"`
}

// MeterFromRow coerces a raw store row. Sheet columns: id, premise_id,
// premise, name, type, unit, tariff, reading_responsible_id,
// reading_responsible, payment_responsible_id, payment_responsible,
// last_reading, last_reading_date, paid_reading, paid_date,
// unbilled_consumption, unbilled_amount.
func MeterFromRow(cells map[string]string, row int) Meter {
	return Meter{
		Row:                  row,
		ID:                   sheetval.Int(cells, "id"),
		PremiseID:            sheetval.Int(cells, "premise_id"),
		PremiseName:          sheetval.String(cells, "premise"),
		Name:                 sheetval.String(cells, "name"),
		Type:                 sheetval.String(cells, "type"),
		Unit:                 sheetval.String(cells, "unit"),
		Tariff:               sheetval.Float(cells, "tariff"),
		ReadingResponsibleID: sheetval.Int(cells, "reading_responsible_id"),
		ReadingResponsible:   sheetval.String(cells, "reading_responsible"),
		PaymentResponsibleID: sheetval.Int(cells, "payment_responsible_id"),
		PaymentResponsible:   sheetval.String(cells, "payment_responsible"),
		LastReading:          sheetval.Float(cells, "last_reading"),
		LastReadingDate:      sheetval.String(cells, "last_reading_date"),
		PaidReading:          sheetval.Float(cells, "paid_reading"),
		PaidDate:             sheetval.String(cells, "paid_date"),
		UnbilledConsumption:  sheetval.Float(cells, "unbilled_consumption"),
		UnbilledAmount:       sheetval.Float(cells, "unbilled_amount"),
	}
}
