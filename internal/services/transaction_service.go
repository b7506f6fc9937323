package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

// transactionService handles transaction-related business logic. Every
// mutation re-synchronizes the account ledger inside the same database
// transaction, so a reader can never observe a transaction row without its
// balance effect or vice versa.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	notifier       Notifier
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, notifier Notifier) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
		notifier:       notifier,
	}
}

// CreateTransaction creates a new transaction and applies its ledger effect.
func (s *transactionService) CreateTransaction(
	userID, accountID, categoryID string,
	transactionType models.TransactionType,
	amount int64,
	date time.Time,
	description string,
	tags []string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}

	// Account and category must exist and belong to the user.
	account, err := s.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if models.TransactionType(category.Type) != transactionType {
		return nil, apperrors.ErrCategoryTypeMismatch
	}

	if date.IsZero() {
		date = time.Now()
	}
	if tags == nil {
		tags = []string{}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		CategoryID:  category.ID,
		Type:        transactionType,
		Amount:      amount,
		Date:        date,
		Description: description,
		Tags:        tags,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.accountService.Adjust(tx, account.ID, transaction.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	s.notify(userID, "transaction_created", transaction)
	return transaction, nil
}

// UpdateTransaction updates an existing transaction. When the ledger effect
// changes (amount, type, or account), the old effect is reversed before the
// new one is applied; both run in one database transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	// Resolve new values, falling back to the stored ones.
	newAccountID := transaction.AccountID
	if fields.AccountID != nil {
		newAccountID = *fields.AccountID
	}
	newCategoryID := transaction.CategoryID
	if fields.CategoryID != nil {
		newCategoryID = *fields.CategoryID
	}
	newType := transaction.Type
	if fields.Type != nil {
		newType = *fields.Type
	}
	newAmount := transaction.Amount
	if fields.Amount != nil {
		newAmount = *fields.Amount
	}

	if newAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	if newAccountID != transaction.AccountID {
		if _, err := s.accountService.GetAccountByID(userID, newAccountID); err != nil {
			return nil, err
		}
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", newCategoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if models.TransactionType(category.Type) != newType {
		return nil, apperrors.ErrCategoryTypeMismatch
	}

	ledgerChanged := newAccountID != transaction.AccountID ||
		newType != transaction.Type ||
		newAmount != transaction.Amount

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if ledgerChanged {
			// Reverse the old effect first so the new adjustment starts from
			// a clean ledger state.
			if err := s.accountService.Adjust(tx, transaction.AccountID, -transaction.SignedAmount()); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"account_id":  newAccountID,
			"category_id": newCategoryID,
			"type":        newType,
			"amount":      newAmount,
		}
		if fields.Date != nil {
			updates["date"] = *fields.Date
		}
		if fields.Description != nil {
			updates["description"] = *fields.Description
		}
		if err := tx.Model(transaction).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if fields.Tags != nil {
			if err := tx.Model(transaction).Update("tags", *fields.Tags).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if ledgerChanged {
			signed := newAmount
			if newType == models.TransactionTypeExpense {
				signed = -newAmount
			}
			if err := s.accountService.Adjust(tx, newAccountID, signed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("id = ?", transaction.ID).First(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.notify(userID, "transaction_updated", transaction)
	return transaction, nil
}

// DeleteTransaction deletes a transaction and reverses its ledger effect.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.accountService.Adjust(tx, transaction.AccountID, -transaction.SignedAmount())
	})
	if err != nil {
		return err
	}

	s.notify(userID, "transaction_deleted", map[string]string{"id": transactionID})
	return nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ListTransactions retrieves a paginated, filtered, sorted list of the user's
// transactions plus the total matching count.
func (s *transactionService) ListTransactions(
	userID string,
	page pagination.PageRequest,
	filter TransactionFilter,
	sort TransactionSort,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	sort.Defaults()
	if sort.By != "date" && sort.By != "amount" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "sort_by must be date or amount")
	}

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	order := sort.By + " DESC"
	if sort.Order == "asc" {
		order = sort.By + " ASC"
	}

	var transactions []models.Transaction
	if err := base.Preload("Account").Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order(order).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.Limit, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", *f.EndDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	return q
}

func (s *transactionService) notify(userID, eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Send(userID, map[string]interface{}{"type": eventType, "data": data})
	}
}
