package services

import (
	"testing"
	"time"

	"moneytracker/internal/models"
	"moneytracker/internal/testutil"
)

func TestPeriodWindow(t *testing.T) {
	t.Run("month", func(t *testing.T) {
		ref := time.Date(2025, time.February, 14, 10, 30, 0, 0, time.UTC)
		start, end := PeriodWindow(models.BudgetPeriodMonth, ref)
		wantStart := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
		if !start.Equal(wantStart) {
			t.Errorf("expected start %v, got %v", wantStart, start)
		}
		if !end.Equal(wantEnd) {
			t.Errorf("expected end %v, got %v", wantEnd, end)
		}
	})

	t.Run("quarter", func(t *testing.T) {
		ref := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
		start, end := PeriodWindow(models.BudgetPeriodQuarter, ref)
		wantStart := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
		if !start.Equal(wantStart) {
			t.Errorf("expected start %v, got %v", wantStart, start)
		}
		if !end.Equal(wantEnd) {
			t.Errorf("expected end %v, got %v", wantEnd, end)
		}
	})

	t.Run("year", func(t *testing.T) {
		ref := time.Date(2025, time.August, 31, 23, 59, 59, 0, time.UTC)
		start, end := PeriodWindow(models.BudgetPeriodYear, ref)
		wantStart := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
		if !start.Equal(wantStart) {
			t.Errorf("expected start %v, got %v", wantStart, start)
		}
		if !end.Equal(wantEnd) {
			t.Errorf("expected end %v, got %v", wantEnd, end)
		}
	})
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 50000, time.Now())
		testutil.AssertNoError(t, err)
		if budget.LimitAmount != 50000 {
			t.Errorf("expected limit 50000, got %d", budget.LimitAmount)
		}
		if budget.PeriodStart.Day() != 1 {
			t.Errorf("expected period to start on the first, got day %d", budget.PeriodStart.Day())
		}
	})

	t.Run("income category rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 50000, time.Now())
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("non-positive limit rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 0, time.Now())
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("other user's category rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 50000, time.Now())
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestSpentFor(t *testing.T) {
	t.Run("sums only expense transactions of the category inside the window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		travel := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 1500)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 2500)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, travel.ID, models.TransactionTypeExpense, 9000)

		// Outside the window.
		old := testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 7777)
		if err := db.Model(old).Update("date", time.Now().AddDate(0, -3, 0)).Error; err != nil {
			t.Fatalf("failed to backdate transaction: %v", err)
		}

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		spent, err := svc.SpentFor(user.ID, groceries.ID, start, end)
		testutil.AssertNoError(t, err)
		if spent != 4000 {
			t.Errorf("expected spent 4000, got %d", spent)
		}
	})
}

func TestGetBudgetProgress(t *testing.T) {
	t.Run("over-limit budget clamps remaining and percentage", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, category.ID, 1000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 1500)

		progress, err := svc.GetBudgetProgress(user.ID)
		testutil.AssertNoError(t, err)
		if len(progress) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(progress))
		}
		p := progress[0]
		if p.Spent != 1500 {
			t.Errorf("expected spent 1500, got %d", p.Spent)
		}
		if p.Remaining != 0 {
			t.Errorf("expected remaining clamped to 0, got %d", p.Remaining)
		}
		if p.Percentage != 100 {
			t.Errorf("expected percentage clamped to 100, got %f", p.Percentage)
		}
	})

	t.Run("partial spend reports the exact percentage", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, category.ID, 10000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 2500)

		progress, err := svc.GetBudgetProgress(user.ID)
		testutil.AssertNoError(t, err)
		if len(progress) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(progress))
		}
		p := progress[0]
		if p.Remaining != 7500 {
			t.Errorf("expected remaining 7500, got %d", p.Remaining)
		}
		if p.Percentage != 25 {
			t.Errorf("expected percentage 25, got %f", p.Percentage)
		}
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("limit change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 10000, time.Now())
		testutil.AssertNoError(t, err)

		newLimit := int64(20000)
		updated, err := svc.UpdateBudget(user.ID, budget.ID, &newLimit, nil)
		testutil.AssertNoError(t, err)
		if updated.LimitAmount != 20000 {
			t.Errorf("expected limit 20000, got %d", updated.LimitAmount)
		}
	})

	t.Run("period change realigns the window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 10000, time.Now())
		testutil.AssertNoError(t, err)

		yearPeriod := models.BudgetPeriodYear
		updated, err := svc.UpdateBudget(user.ID, budget.ID, nil, &yearPeriod)
		testutil.AssertNoError(t, err)
		wantStart, wantEnd := PeriodWindow(models.BudgetPeriodYear, budget.PeriodStart)
		if !updated.PeriodStart.Equal(wantStart) {
			t.Errorf("expected period start %v, got %v", wantStart, updated.PeriodStart)
		}
		if !updated.PeriodEnd.Equal(wantEnd) {
			t.Errorf("expected period end %v, got %v", wantEnd, updated.PeriodEnd)
		}
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("delete then fetch fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget, err := svc.CreateBudget(user.ID, category.ID, models.BudgetPeriodMonth, 10000, time.Now())
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))
		_, err = svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		if err := svc.DeleteBudget(user.ID, budget.ID); err == nil {
			t.Error("expected error deleting a deleted budget")
		}
	})
}
