package models

import "rentabill/pkg/sheetval"

// Invoice statuses. The status column is derived by a store-side rule from
// the issued amount versus the live computed amount; this layer never writes
// it directly.
const (
	StatusDraft  = "Draft"
	StatusUnpaid = "Unpaid"
	StatusPaid   = "Paid"
)

// Invoice is the single live billing row for a premise. Amount is the
// formula-computed sum currently owed; IssuedAmount is the snapshot taken
// when the owner issues the invoice and the only status-relevant column this
// layer writes.
type Invoice struct {
	Row          int     `json:"_row"`
	PremiseID    int64   `json:"premise_id"`
	PremiseName  string  `json:"premise"`
	PayerID      int64   `json:"payment_responsible_id"`
	PayerName    string  `json:"payment_responsible"`
	Amount       float64 `json:"amount"`
	IssuedAmount float64 `json:"issued_amount"`
	Status       string  `json:"status"`
	NeedPush     bool    `json:"need_push"`
	LastPaidDate string  `json:"last_paid_date"`
}

// InvoiceFromRow coerces a raw store row. Sheet columns: premise_id,
// premise, payment_responsible_id, payment_responsible, amount (formula),
// issued_amount, status (formula), need_push, last_paid_date.
func InvoiceFromRow(cells map[string]string, row int) Invoice {
	return Invoice{
		Row:          row,
		PremiseID:    sheetval.Int(cells, "premise_id"),
		PremiseName:  sheetval.String(cells, "premise"),
		PayerID:      sheetval.Int(cells, "payment_responsible_id"),
		PayerName:    sheetval.String(cells, "payment_responsible"),
		Amount:       sheetval.Float(cells, "amount"),
		IssuedAmount: sheetval.Float(cells, "issued_amount"),
		Status:       sheetval.String(cells, "status"),
		NeedPush:     sheetval.Bool(cells, "need_push"),
		LastPaidDate: sheetval.String(cells, "last_paid_date"),
	}
}

// Actionable reports whether the invoice should be surfaced to a tenant as
// payable: Unpaid status and a strictly positive amount. Zero or negative
// amounts are never actionable even if the status column disagrees.
func (i Invoice) Actionable() bool {
	return i.Status == StatusUnpaid && i.Amount > 0
}
