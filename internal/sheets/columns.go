package sheets

import "fmt"

// Worksheet names, one per entity collection.
const (
	SheetPremises = "Premises"
	SheetTenants  = "Tenants"
	SheetMeters   = "Meters"
	SheetReadings = "Readings"
	SheetInvoices = "Invoices"
	SheetPayments = "Payments"
	SheetTariffs  = "Tariffs"
	SheetSettings = "Settings"
)

// Column positions of every cell this layer writes, by collection. Writes
// address cells by position, so a schema reorder in the store is a one-place
// change here. Columns owned by store formulas (meter tariff G and the
// unbilled columns P:Q, invoice amount E and status G) have no constant
// here: they are never written.
const (
	// Meters: A id, B premise_id, C premise, D name, E type, F unit,
	// G tariff (formula), H reading_responsible_id, I reading_responsible,
	// J payment_responsible_id, K payment_responsible, L last_reading,
	// M last_reading_date, N paid_reading, O paid_date,
	// P unbilled_consumption (formula), Q unbilled_amount (formula).
	MeterColLastReading     = "L"
	MeterColLastReadingDate = "M"
	MeterColPaidReading     = "N"
	MeterColPaidDate        = "O"

	// Invoices: A premise_id, B premise, C payment_responsible_id,
	// D payment_responsible, E amount (formula), F issued_amount,
	// G status (formula), H need_push, I last_paid_date.
	InvoiceColAmount       = "E"
	InvoiceColIssuedAmount = "F"
	InvoiceColNeedPush     = "H"
	InvoiceColLastPaidDate = "I"

	// Tariffs: A type, B tariff.
	TariffColRate = "B"
)

// Cell returns the A1 reference of a single cell, e.g. Cell("F", 5) == "F5".
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// RowRange returns the A1 reference of a contiguous span within one row,
// e.g. RowRange("L", "M", 5) == "L5:M5".
func RowRange(fromCol, toCol string, row int) string {
	return fmt.Sprintf("%s%d:%s%d", fromCol, row, toCol, row)
}
