package services

import (
	"testing"
	"time"

	"moneytracker/internal/models"
	"moneytracker/internal/testutil"
)

func TestGetDashboard(t *testing.T) {
	t.Run("net income equals income minus expenses", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db, NewBudgetService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, user.ID, account.ID, salary.ID, models.TransactionTypeIncome, 100000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 30000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 20000)

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		summary, err := svc.GetDashboard(user.ID, start, end)
		testutil.AssertNoError(t, err)
		if summary.Income != 100000 {
			t.Errorf("expected income 100000, got %d", summary.Income)
		}
		if summary.Expenses != 50000 {
			t.Errorf("expected expenses 50000, got %d", summary.Expenses)
		}
		if summary.NetIncome != summary.Income-summary.Expenses {
			t.Errorf("net income %d does not equal income minus expenses", summary.NetIncome)
		}
	})

	t.Run("total balance sums all accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db, NewBudgetService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 10000)
		testutil.CreateTestAccountWithBalance(t, db, user.ID, "USD", 2500)

		// Another user's accounts must not leak in.
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccountWithBalance(t, db, other.ID, "BYN", 99999)

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		summary, err := svc.GetDashboard(user.ID, start, end)
		testutil.AssertNoError(t, err)
		if summary.TotalBalance != 12500 {
			t.Errorf("expected total balance 12500, got %d", summary.TotalBalance)
		}
		if len(summary.Accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(summary.Accounts))
		}
	})

	t.Run("category breakdown is largest first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db, NewBudgetService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		travel := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 1000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, travel.ID, models.TransactionTypeExpense, 5000)

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		summary, err := svc.GetDashboard(user.ID, start, end)
		testutil.AssertNoError(t, err)
		if len(summary.ExpenseCategories) != 2 {
			t.Fatalf("expected 2 expense categories, got %d", len(summary.ExpenseCategories))
		}
		if summary.ExpenseCategories[0].Category.ID != travel.ID {
			t.Errorf("expected largest category first, got %s", summary.ExpenseCategories[0].Category.Name)
		}
		if summary.ExpenseCategories[0].Amount != 5000 {
			t.Errorf("expected top amount 5000, got %d", summary.ExpenseCategories[0].Amount)
		}
	})

	t.Run("recent transactions capped at ten", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db, NewBudgetService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		for i := 0; i < 12; i++ {
			testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, int64(100+i))
		}

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		summary, err := svc.GetDashboard(user.ID, start, end)
		testutil.AssertNoError(t, err)
		if len(summary.RecentTransactions) != 10 {
			t.Errorf("expected 10 recent transactions, got %d", len(summary.RecentTransactions))
		}
	})

	t.Run("budget progress included", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDashboardService(db, NewBudgetService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, category.ID, 10000)

		start, end := PeriodWindow(models.BudgetPeriodMonth, time.Now())
		summary, err := svc.GetDashboard(user.ID, start, end)
		testutil.AssertNoError(t, err)
		if len(summary.BudgetProgress) != 1 {
			t.Errorf("expected 1 budget in progress list, got %d", len(summary.BudgetProgress))
		}
	})
}
