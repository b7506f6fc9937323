package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves funds between two accounts of the same user. Amount is
// debited from the source account; ConvertedAmount (amount multiplied by
// ExchangeRate, rounded to cents) is credited to the destination.
// ExchangeRate is nil for same-currency transfers.
type Transfer struct {
	Base
	UserID          string           `gorm:"type:uuid;not null;index" json:"user_id"`
	FromAccountID   string           `gorm:"type:uuid;not null;index" json:"from_account_id"`
	ToAccountID     string           `gorm:"type:uuid;not null;index" json:"to_account_id"`
	Amount          int64            `gorm:"type:bigint;not null" json:"amount"`
	ExchangeRate    *decimal.Decimal `gorm:"type:numeric(20,8)" json:"exchange_rate,omitempty"`
	ConvertedAmount int64            `gorm:"type:bigint;not null" json:"converted_amount"`
	Date            time.Time        `gorm:"not null;index" json:"date"`
	Description     string           `json:"description"`

	// Relationships
	FromAccount Account `gorm:"foreignKey:FromAccountID" json:"from_account"`
	ToAccount   Account `gorm:"foreignKey:ToAccountID" json:"to_account"`
}
