package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

// Notifier delivers best-effort real-time messages to a user's live
// connection. A failed or missed delivery never affects stored state.
type Notifier interface {
	Send(userID string, message interface{})
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountUpdateFields holds optional fields for updating an account.
type AccountUpdateFields struct {
	Name     *string
	Type     *models.AccountType
	Currency *string
}

// AccountServicer defines the contract for the account ledger.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, currency string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	// DeleteAccount soft-deletes an account. A nonzero balance requires
	// transferToAccountID: the full balance is moved to that account first.
	DeleteAccount(userID, accountID, transferToAccountID string) error
	// Adjust atomically adds delta (positive or negative) to the stored
	// balance. Must be applied exactly once per causing event, inside that
	// event's database transaction.
	Adjust(tx *gorm.DB, accountID string, delta int64) error
	// DebitIfSufficient performs a single conditional decrement guarded by
	// current_balance >= amount, so concurrent debits cannot race past the
	// balance check. Returns ErrInsufficientBalance when the guard fails.
	DebitIfSufficient(tx *gorm.DB, accountID string, amount int64) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, color, icon string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID string, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, color, icon string) (*models.Category, error)
	// DeleteCategory fails when transactions reference the category unless
	// reassignToCategoryID names another owned category to take them over.
	DeleteCategory(userID, categoryID, reassignToCategoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
}

// TransactionSort holds sort parameters for listing transactions.
// By is "date" or "amount"; Order is "asc" or "desc".
type TransactionSort struct {
	By    string
	Order string
}

// Defaults fills in date-descending ordering when unset.
func (s *TransactionSort) Defaults() {
	if s.By == "" {
		s.By = "date"
	}
	if s.Order == "" {
		s.Order = "desc"
	}
}

// TransactionUpdateFields holds optional fields for updating a transaction.
// Nil pointers leave the stored value unchanged.
type TransactionUpdateFields struct {
	AccountID   *string
	CategoryID  *string
	Type        *models.TransactionType
	Amount      *int64
	Date        *time.Time
	Description *string
	Tags        *[]string
}

// TransactionServicer defines the contract for the transaction engine.
type TransactionServicer interface {
	CreateTransaction(userID, accountID, categoryID string, transactionType models.TransactionType, amount int64, date time.Time, description string, tags []string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	ListTransactions(userID string, page pagination.PageRequest, filter TransactionFilter, sort TransactionSort) (*pagination.PageResponse[models.Transaction], error)
}

// TransferServicer defines the contract for the transfer engine.
type TransferServicer interface {
	CreateTransfer(userID, fromAccountID, toAccountID string, amount int64, date time.Time, description string) (*models.Transfer, error)
	ListTransfers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error)
	GetTransferByID(userID, transferID string) (*models.Transfer, error)
}

// Conversion is the result of converting an amount between currencies.
type Conversion struct {
	Amount    int64           `json:"amount"`
	Converted int64           `json:"converted"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
}

// CurrencyServicer defines the contract for the currency rate store.
type CurrencyServicer interface {
	// Resolve returns the exchange rate from one currency to another: 1 when
	// they are equal, the newest stored direct rate, or the reciprocal of the
	// newest reverse rate. ErrRateNotFound when neither pair is stored.
	Resolve(from, to string) (decimal.Decimal, error)
	Convert(amount int64, from, to string) (*Conversion, error)
	ListRates() ([]models.CurrencyRate, error)
	// Refresh fetches current quotes from the external source and upserts
	// both directions of each pair. One attempt, no retry; on fetch failure
	// the fixed fallback table is stored instead.
	Refresh(ctx context.Context) error
}

// BudgetStatus is a budget together with its recomputed spent total.
type BudgetStatus struct {
	models.Budget
	Spent int64 `json:"spent"`
}

// BudgetProgress contains spending vs limit data for a budget's window.
type BudgetProgress struct {
	BudgetID     string              `json:"budget_id"`
	CategoryID   string              `json:"category_id"`
	CategoryName string              `json:"category_name"`
	Period       models.BudgetPeriod `json:"period"`
	PeriodStart  time.Time           `json:"period_start"`
	PeriodEnd    time.Time           `json:"period_end"`
	Limit        int64               `json:"limit"`
	Spent        int64               `json:"spent"`
	Remaining    int64               `json:"remaining"`
	Percentage   float64             `json:"percentage"`
}

// BudgetServicer defines the contract for the budget tracker.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, period models.BudgetPeriod, limit int64, reference time.Time) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[BudgetStatus], error)
	GetBudgetByID(userID, budgetID string) (*BudgetStatus, error)
	UpdateBudget(userID, budgetID string, limit *int64, period *models.BudgetPeriod) (*BudgetStatus, error)
	DeleteBudget(userID, budgetID string) error
	// SpentFor sums expense transactions for the category whose date falls
	// within [start, end].
	SpentFor(userID, categoryID string, start, end time.Time) (int64, error)
	// GetBudgetProgress returns progress rows for all of the user's budgets.
	GetBudgetProgress(userID string) ([]BudgetProgress, error)
}

// CategoryTotal is an aggregated amount for a single category.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Amount   int64           `json:"amount"`
}

// DashboardSummary is the read-side composition returned by the dashboard.
type DashboardSummary struct {
	TotalBalance       int64                `json:"total_balance"`
	Income             int64                `json:"income"`
	Expenses           int64                `json:"expenses"`
	NetIncome          int64                `json:"net_income"`
	PeriodStart        time.Time            `json:"period_start"`
	PeriodEnd          time.Time            `json:"period_end"`
	ExpenseCategories  []CategoryTotal      `json:"expense_categories"`
	IncomeCategories   []CategoryTotal      `json:"income_categories"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	BudgetProgress     []BudgetProgress     `json:"budget_progress"`
	Accounts           []models.Account     `json:"accounts"`
}

// DashboardServicer defines the contract for dashboard aggregation.
type DashboardServicer interface {
	GetDashboard(userID string, start, end time.Time) (*DashboardSummary, error)
}

// ReportServicer defines the contract for transaction exports.
type ReportServicer interface {
	ExportCSV(userID string, filter TransactionFilter) ([]byte, error)
	ExportPDF(userID string, filter TransactionFilter) ([]byte, error)
}
