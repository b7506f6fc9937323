package services

import (
	"sync"
	"testing"
	"time"

	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
	"moneytracker/internal/testutil"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (n *recordingNotifier) Send(userID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if m, ok := message.(map[string]interface{}); ok {
		n.events = append(n.events, m)
	}
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		if s, ok := e["type"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestCreateTransaction(t *testing.T) {
	t.Run("expense decreases balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 10000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 2500, time.Now(), "lunch", nil)
		testutil.AssertNoError(t, err)
		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}

		got, err := accounts.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentBalance != 7500 {
			t.Errorf("expected balance 7500, got %d", got.CurrentBalance)
		}
	})

	t.Run("income increases balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 1000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeIncome, 500, time.Now(), "", nil)
		testutil.AssertNoError(t, err)

		got, err := accounts.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentBalance != 1500 {
			t.Errorf("expected balance 1500, got %d", got.CurrentBalance)
		}
	})

	t.Run("type must match category type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100, time.Now(), "", nil)
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 0, time.Now(), "", nil)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("other user's account rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100, time.Now(), "", nil)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("notifies on create", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		notifier := &recordingNotifier{}
		svc := NewTransactionService(db, accounts, notifier)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100, time.Now(), "", nil)
		testutil.AssertNoError(t, err)

		types := notifier.types()
		if len(types) != 1 || types[0] != "transaction_created" {
			t.Errorf("expected [transaction_created], got %v", types)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount change moves balance by the difference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 10000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 2000, time.Now(), "", nil)
		testutil.AssertNoError(t, err)

		newAmount := int64(3000)
		_, err = svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdateFields{Amount: &newAmount})
		testutil.AssertNoError(t, err)

		got, err := accounts.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentBalance != 7000 {
			t.Errorf("expected balance 7000, got %d", got.CurrentBalance)
		}
	})

	t.Run("account change moves the effect between accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		second := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(user.ID, first.ID, category.ID, models.TransactionTypeExpense, 1000, time.Now(), "", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdateFields{AccountID: &second.ID})
		testutil.AssertNoError(t, err)

		gotFirst, err := accounts.GetAccountByID(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if gotFirst.CurrentBalance != 5000 {
			t.Errorf("expected first account restored to 5000, got %d", gotFirst.CurrentBalance)
		}
		gotSecond, err := accounts.GetAccountByID(user.ID, second.ID)
		testutil.AssertNoError(t, err)
		if gotSecond.CurrentBalance != 4000 {
			t.Errorf("expected second account debited to 4000, got %d", gotSecond.CurrentBalance)
		}
	})

	t.Run("description-only update leaves balance alone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 1000, time.Now(), "old", nil)
		testutil.AssertNoError(t, err)

		desc := "new"
		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdateFields{Description: &desc})
		testutil.AssertNoError(t, err)
		if updated.Description != "new" {
			t.Errorf("expected description new, got %s", updated.Description)
		}

		got, err := accounts.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentBalance != 4000 {
			t.Errorf("expected balance unchanged at 4000, got %d", got.CurrentBalance)
		}
	})

	t.Run("new category must match type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		expense := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		income := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		tx, err := svc.CreateTransaction(user.ID, account.ID, expense.ID, models.TransactionTypeExpense, 1000, time.Now(), "", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(user.ID, tx.ID, TransactionUpdateFields{CategoryID: &income.ID})
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("create then delete restores the balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 12345)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(user.ID, account.ID, category.ID, models.TransactionTypeExpense, 6789, time.Now(), "", nil)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		got, err := accounts.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.CurrentBalance != 12345 {
			t.Errorf("expected balance restored to 12345, got %d", got.CurrentBalance)
		}

		_, err = svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("filters by type and category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		groceries := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 100)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, groceries.ID, models.TransactionTypeExpense, 200)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, salary.ID, models.TransactionTypeIncome, 300)

		expenseType := models.TransactionTypeExpense
		result, err := svc.ListTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{Type: &expenseType, CategoryID: &groceries.ID}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions, got %d", result.TotalItems)
		}
	})

	t.Run("sorts by amount ascending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 300)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 200)

		result, err := svc.ListTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{}, TransactionSort{By: "amount", Order: "asc"})
		testutil.AssertNoError(t, err)
		amounts := make([]int64, 0, len(result.Data))
		for _, tx := range result.Data {
			amounts = append(amounts, tx.Amount)
		}
		for i := 1; i < len(amounts); i++ {
			if amounts[i-1] > amounts[i] {
				t.Fatalf("not sorted ascending: %v", amounts)
			}
		}
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 200)

		_, err := svc.ListTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{}, TransactionSort{By: "created_at"})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		subquery := "(SELECT CASE WHEN (SELECT count(*) FROM users) > 0 THEN amount ELSE date END)"
		_, err = svc.ListTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{}, TransactionSort{By: subquery})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("date window filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		svc := NewTransactionService(db, accounts, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		old := testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 100)
		oldDate := time.Now().AddDate(0, -2, 0)
		if err := db.Model(old).Update("date", oldDate).Error; err != nil {
			t.Fatalf("failed to backdate transaction: %v", err)
		}
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, category.ID, models.TransactionTypeExpense, 200)

		start := time.Now().AddDate(0, -1, 0)
		result, err := svc.ListTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{StartDate: &start}, TransactionSort{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction in window, got %d", result.TotalItems)
		}
	})
}
