package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

// transferService moves funds between two accounts of the same user,
// converting through the currency rate store when the currencies differ.
type transferService struct {
	db             *gorm.DB
	accountService AccountServicer
	currency       CurrencyServicer
	notifier       Notifier
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, accountService AccountServicer, currency CurrencyServicer, notifier Notifier) TransferServicer {
	return &transferService{
		db:             db,
		accountService: accountService,
		currency:       currency,
		notifier:       notifier,
	}
}

// CreateTransfer debits the source account and credits the destination with
// the converted amount. The debit is conditional on sufficient balance, so
// concurrent transfers against the same account cannot overdraw it. A
// missing rate for a cross-currency pair fails the transfer; there is no
// silent same-rate fallback.
func (s *transferService) CreateTransfer(
	userID, fromAccountID, toAccountID string,
	amount int64,
	date time.Time,
	description string,
) (*models.Transfer, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	fromAccount, err := s.accountService.GetAccountByID(userID, fromAccountID)
	if err != nil {
		return nil, err
	}
	toAccount, err := s.accountService.GetAccountByID(userID, toAccountID)
	if err != nil {
		return nil, err
	}

	// Early check for the common case; the conditional debit below remains
	// the authoritative guard under concurrency.
	if fromAccount.CurrentBalance < amount {
		return nil, apperrors.ErrInsufficientBalance
	}

	convertedAmount := amount
	var exchangeRate *decimal.Decimal
	if fromAccount.Currency != toAccount.Currency {
		rate, err := s.currency.Resolve(fromAccount.Currency, toAccount.Currency)
		if err != nil {
			return nil, err
		}
		exchangeRate = &rate
		convertedAmount = decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	}

	transfer := &models.Transfer{
		UserID:          userID,
		FromAccountID:   fromAccount.ID,
		ToAccountID:     toAccount.ID,
		Amount:          amount,
		ExchangeRate:    exchangeRate,
		ConvertedAmount: convertedAmount,
		Date:            date,
		Description:     description,
	}
	if transfer.Date.IsZero() {
		transfer.Date = time.Now()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.accountService.DebitIfSufficient(tx, fromAccount.ID, amount); err != nil {
			return err
		}
		return s.accountService.Adjust(tx, toAccount.ID, convertedAmount)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Send(userID, map[string]interface{}{"type": "transfer_created", "data": transfer})
	}
	return transfer, nil
}

// ListTransfers retrieves a paginated list of the user's transfers, newest first.
func (s *transferService) ListTransfers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error) {
	page.Defaults()

	base := s.db.Model(&models.Transfer{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	if err := base.Preload("FromAccount").Preload("ToAccount").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transfers, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetTransferByID retrieves a transfer by ID for a specific user
func (s *transferService) GetTransferByID(userID, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := s.db.Preload("FromAccount").Preload("ToAccount").
		Where("id = ? AND user_id = ?", transferID, userID).
		First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}
