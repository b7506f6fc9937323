package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
)

// dashboardService composes the read-side overview from the other services'
// tables. It never writes.
type dashboardService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, budgets BudgetServicer) DashboardServicer {
	return &dashboardService{db: db, budgets: budgets}
}

// GetDashboard builds the overview for [start, end]. Income, expenses and
// the per-category breakdowns all come from the same transaction set, so
// net income always equals income minus expenses.
func (s *dashboardService) GetDashboard(userID string, start, end time.Time) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		PeriodStart: start,
		PeriodEnd:   end,
	}

	var accounts []models.Account
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.Accounts = accounts
	for _, a := range accounts {
		summary.TotalBalance += a.CurrentBalance
	}

	type typeTotal struct {
		Type   models.TransactionType
		Amount int64
	}
	var totals []typeTotal
	err = s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS amount").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Group("type").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypeIncome:
			summary.Income = t.Amount
		case models.TransactionTypeExpense:
			summary.Expenses = t.Amount
		}
	}
	summary.NetIncome = summary.Income - summary.Expenses

	expenseCategories, err := s.categoryTotals(userID, models.TransactionTypeExpense, start, end)
	if err != nil {
		return nil, err
	}
	summary.ExpenseCategories = expenseCategories

	incomeCategories, err := s.categoryTotals(userID, models.TransactionTypeIncome, start, end)
	if err != nil {
		return nil, err
	}
	summary.IncomeCategories = incomeCategories

	var recent []models.Transaction
	err = s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Preload("Account").
		Preload("Category").
		Order("date DESC").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.RecentTransactions = recent

	progress, err := s.budgets.GetBudgetProgress(userID)
	if err != nil {
		return nil, err
	}
	// Only budgets whose window intersects the queried period.
	inWindow := make([]BudgetProgress, 0, len(progress))
	for _, p := range progress {
		if !p.PeriodStart.After(end) && !p.PeriodEnd.Before(start) {
			inWindow = append(inWindow, p)
		}
	}
	summary.BudgetProgress = inWindow

	return summary, nil
}

// categoryTotals sums one transaction type per category inside the window,
// largest first.
func (s *dashboardService) categoryTotals(userID string, transactionType models.TransactionType, start, end time.Time) ([]CategoryTotal, error) {
	type row struct {
		CategoryID string
		Amount     int64
	}
	var rows []row
	err := s.db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS amount").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?", userID, transactionType, start, end).
		Group("category_id").
		Order("amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(rows) == 0 {
		return []CategoryTotal{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CategoryID)
	}
	var categories []models.Category
	if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	totals := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, CategoryTotal{Category: byID[r.CategoryID], Amount: r.Amount})
	}
	return totals, nil
}
