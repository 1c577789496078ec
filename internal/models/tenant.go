package models

import "rentabill/pkg/sheetval"

// Tenant is a Telegram user known to the bot. Exactly one row carries the
// owner flag; everyone else rents.
type Tenant struct {
	Row        int    `json:"_row"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsOwner    bool   `json:"is_owner"`
}

// TenantFromRow coerces a raw store row. Sheet columns: telegram_id, name,
// phone, is_owner.
func TenantFromRow(cells map[string]string, row int) Tenant {
	return Tenant{
		Row:        row,
		TelegramID: sheetval.Int(cells, "telegram_id"),
		Name:       sheetval.String(cells, "name"),
		Phone:      sheetval.String(cells, "phone"),
		IsOwner:    sheetval.Bool(cells, "is_owner"),
	}
}
