package models

import "rentabill/pkg/sheetval"

// Payment is one entry of the append-only payment log, written exactly once
// per completed payment transaction. Receipt is an opaque reference to the
// uploaded receipt image (URL or storage key).
type Payment struct {
	Row         int     `json:"_row"`
	Date        string  `json:"date"`
	PremiseID   int64   `json:"premise_id"`
	PremiseName string  `json:"premise"`
	TelegramID  int64   `json:"telegram_id"`
	TenantName  string  `json:"tenant"`
	Amount      float64 `json:"amount"`
	Receipt     string  `json:"receipt"`
}

// PaymentFromRow coerces a raw store row. Sheet columns: date, premise_id,
// premise, telegram_id, tenant, amount, receipt.
func PaymentFromRow(cells map[string]string, row int) Payment {
	return Payment{
		Row:         row,
		Date:        sheetval.String(cells, "date"),
		PremiseID:   sheetval.Int(cells, "premise_id"),
		PremiseName: sheetval.String(cells, "premise"),
		TelegramID:  sheetval.Int(cells, "telegram_id"),
		TenantName:  sheetval.String(cells, "tenant"),
		Amount:      sheetval.Float(cells, "amount"),
		Receipt:     sheetval.String(cells, "receipt"),
	}
}
