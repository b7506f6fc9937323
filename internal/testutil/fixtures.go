package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneytracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a cash account in BYN with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, "BYN", 0)
}

// CreateTestAccountWithBalance creates a cash account in the given currency
// with the given balance (in minor units).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID, currency string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           models.AccountTypeCash,
		Currency:       currency,
		InitialBalance: balance,
		CurrentBalance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount
// (in minor units) dated now. The account balance is not touched.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID, categoryID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget for the given category covering
// the current calendar month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, limit int64) *models.Budget {
	t.Helper()

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		Period:      models.BudgetPeriodMonth,
		PeriodStart: start,
		PeriodEnd:   end,
		LimitAmount: limit,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestRate stores a directional exchange rate.
func CreateTestRate(t *testing.T, db *gorm.DB, from, to string, rate float64) *models.CurrencyRate {
	t.Helper()

	row := &models.CurrencyRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.NewFromFloat(rate),
		Source:       "test",
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to create test rate: %v", err)
	}
	return row
}
