package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

// accountService maintains the account ledger: every balance change goes
// through Adjust or DebitIfSufficient as a single SQL increment.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. The current balance starts
// at the initial balance.
func (s *accountService) CreateAccount(userID, name string, accountType models.AccountType, currency string, initialBalance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if initialBalance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial balance cannot be negative")
	}
	if currency == "" {
		currency = "BYN"
	}

	account := &models.Account{
		UserID:         userID,
		Name:           name,
		Type:           accountType,
		Currency:       currency,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account's descriptive fields. Balances
// are never set directly here; they only move through ledger adjustments.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Type != nil {
		updates["type"] = *fields.Type
	}
	if fields.Currency != nil && *fields.Currency != "" {
		updates["currency"] = *fields.Currency
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeleteAccount soft-deletes an account. When the balance is nonzero the
// caller must name a target account owned by the same user; the full balance
// is moved there first. The move is same-currency: no conversion is applied.
func (s *accountService) DeleteAccount(userID, accountID, transferToAccountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if account.CurrentBalance != 0 {
			if transferToAccountID == "" {
				return apperrors.ErrAccountHasFunds
			}
			if transferToAccountID == accountID {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot drain an account into itself")
			}

			var target models.Account
			if err := tx.Where("id = ? AND user_id = ?", transferToAccountID, userID).First(&target).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Target account not found")
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if err := s.Adjust(tx, target.ID, account.CurrentBalance); err != nil {
				return err
			}
			if err := s.Adjust(tx, account.ID, -account.CurrentBalance); err != nil {
				return err
			}
		}

		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Adjust atomically adds delta to the stored balance as a SQL expression,
// never a read-modify-write.
func (s *accountService) Adjust(tx *gorm.DB, accountID string, delta int64) error {
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", delta))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// DebitIfSufficient decrements the balance only when current_balance covers
// the amount, in one conditional statement.
func (s *accountService) DebitIfSufficient(tx *gorm.DB, accountID string, amount int64) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND current_balance >= ?", accountID, amount).
		UpdateColumn("current_balance", gorm.Expr("current_balance - ?", amount))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}
