package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a single income or expense entry. Creating,
// updating, or deleting a transaction adjusts the owning account's
// CurrentBalance by the signed amount within the same database transaction.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Description string          `json:"description"`
	Tags        []string        `gorm:"serializer:json" json:"tags"`

	// Relationships
	Account  Account  `gorm:"foreignKey:AccountID" json:"account"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// SignedAmount returns the amount with the sign of its ledger effect:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return -t.Amount
}
