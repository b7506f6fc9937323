package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash    AccountType = "cash"
	AccountTypeCard    AccountType = "card"
	AccountTypeSavings AccountType = "savings"
	AccountTypeOther   AccountType = "other"
)

// Account represents a financial account in the system. CurrentBalance is a
// derived-but-stored running total: it must always equal InitialBalance plus
// the signed effects of all existing transactions and transfers touching the
// account. All amounts are in cents.
type Account struct {
	Base
	UserID         string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string      `gorm:"not null" json:"name"`
	Type           AccountType `gorm:"not null" json:"type"`
	Currency       string      `gorm:"not null;default:'BYN'" json:"currency"`
	InitialBalance int64       `gorm:"type:bigint;not null;default:0" json:"initial_balance"`
	CurrentBalance int64       `gorm:"type:bigint;not null;default:0" json:"current_balance"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
