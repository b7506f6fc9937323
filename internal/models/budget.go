package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonth   BudgetPeriod = "month"
	BudgetPeriodQuarter BudgetPeriod = "quarter"
	BudgetPeriodYear    BudgetPeriod = "year"
)

// Budget caps spending for an expense category over a calendar-aligned
// period window. The spent total is never stored: it is recomputed from
// matching expense transactions on every read.
type Budget struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  string       `gorm:"type:uuid;not null;index" json:"category_id"`
	Period      BudgetPeriod `gorm:"not null" json:"period"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null" json:"period_end"`
	LimitAmount int64        `gorm:"type:bigint;not null" json:"limit"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
