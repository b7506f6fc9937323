package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// PeriodWindow returns the calendar-aligned window containing the reference
// time: the month, the calendar quarter, or the year. The end is the last
// nanosecond of the window's final day, so date comparisons are inclusive.
func PeriodWindow(period models.BudgetPeriod, reference time.Time) (time.Time, time.Time) {
	year, month, _ := reference.Date()
	loc := reference.Location()

	var start, end time.Time
	switch period {
	case models.BudgetPeriodQuarter:
		quarterStart := time.Month(((int(month)-1)/3)*3 + 1)
		start = time.Date(year, quarterStart, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 3, 0)
	case models.BudgetPeriodYear:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default: // month
		start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	}
	return start, end.Add(-time.Nanosecond)
}

// CreateBudget creates a spending budget for an expense category. The window
// is the calendar period containing the reference time.
func (s *budgetService) CreateBudget(userID, categoryID string, period models.BudgetPeriod, limit int64, reference time.Time) (*models.Budget, error) {
	if limit <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget limit must be positive")
	}

	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgets can only be set on expense categories")
	}

	start, end := PeriodWindow(period, reference)
	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		LimitAmount: limit,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Preload("Category").First(budget, "id = ?", budget.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetUserBudgets returns a page of budgets with spent amounts recomputed
// from the transaction ledger.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[BudgetStatus], error) {
	page.Defaults()

	query := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	err := query.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("created_at DESC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.SpentFor(userID, b.CategoryID, b.PeriodStart, b.PeriodEnd)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, BudgetStatus{Budget: b, Spent: spent})
	}

	resp := pagination.NewPageResponse(statuses, page.Page, page.Limit, total)
	return &resp, nil
}

// GetBudgetByID returns one budget with its recomputed spent amount.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*BudgetStatus, error) {
	var budget models.Budget
	err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).
		Preload("Category").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := s.SpentFor(userID, budget.CategoryID, budget.PeriodStart, budget.PeriodEnd)
	if err != nil {
		return nil, err
	}
	return &BudgetStatus{Budget: budget, Spent: spent}, nil
}

// UpdateBudget changes the limit and/or period. A period change realigns the
// window to the calendar period containing the original start date.
func (s *budgetService) UpdateBudget(userID, budgetID string, limit *int64, period *models.BudgetPeriod) (*BudgetStatus, error) {
	var budget models.Budget
	err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if limit != nil {
		if *limit <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget limit must be positive")
		}
		updates["limit_amount"] = *limit
	}
	if period != nil && *period != budget.Period {
		start, end := PeriodWindow(*period, budget.PeriodStart)
		updates["period"] = *period
		updates["period_start"] = start
		updates["period_end"] = end
	}

	if len(updates) > 0 {
		if err := s.db.Model(&budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft deletes a budget. Transactions are untouched.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	result := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// SpentFor sums expense transactions for a category inside a window.
func (s *budgetService) SpentFor(userID, categoryID string, start, end time.Time) (int64, error) {
	var spent int64
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, categoryID, models.TransactionTypeExpense, start, end).
		Scan(&spent).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

// GetBudgetProgress returns spent/limit progress for every budget, with the
// percentage clamped to [0, 100].
func (s *budgetService) GetBudgetProgress(userID string) ([]BudgetProgress, error) {
	var budgets []models.Budget
	err := s.db.Where("user_id = ?", userID).
		Preload("Category").
		Order("created_at DESC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	progress := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.SpentFor(userID, b.CategoryID, b.PeriodStart, b.PeriodEnd)
		if err != nil {
			return nil, err
		}

		remaining := b.LimitAmount - spent
		if remaining < 0 {
			remaining = 0
		}
		percentage := float64(spent) / float64(b.LimitAmount) * 100
		if percentage > 100 {
			percentage = 100
		}

		progress = append(progress, BudgetProgress{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: b.Category.Name,
			Period:       b.Period,
			PeriodStart:  b.PeriodStart,
			PeriodEnd:    b.PeriodEnd,
			Limit:        b.LimitAmount,
			Spent:        spent,
			Remaining:    remaining,
			Percentage:   percentage,
		})
	}
	return progress, nil
}
