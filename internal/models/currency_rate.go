package models

import "github.com/shopspring/decimal"

// CurrencyRate is a directional exchange rate from one currency to another,
// keyed by (from, to, source). A lookup that finds no direct row may use the
// reciprocal of the reverse pair instead.
type CurrencyRate struct {
	Base
	FromCurrency string          `gorm:"size:3;not null;uniqueIndex:idx_rate_pair_source" json:"from_currency"`
	ToCurrency   string          `gorm:"size:3;not null;uniqueIndex:idx_rate_pair_source" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"rate"`
	Source       string          `gorm:"not null;uniqueIndex:idx_rate_pair_source" json:"source"`
}
