package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/logger"
	"moneytracker/internal/models"
	"moneytracker/internal/rates"
)

// rateSource tags rows written by the external quote refresh.
const rateSource = "myfin.by"

// fallbackRates holds approximate foreign->BYN rates stored when the quote
// source is unreachable.
var fallbackRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromFloat(3.25),
	"EUR": decimal.NewFromFloat(3.50),
	"RUB": decimal.NewFromFloat(0.035),
}

// currencyService is the directional rate store. Stored rows are keyed by
// (from, to, source); lookups fall back to the reciprocal of the reverse pair.
type currencyService struct {
	db      *gorm.DB
	fetcher rates.QuoteFetcher
}

// NewCurrencyService creates a new CurrencyServicer backed by the given
// quote fetcher. The fetcher may be nil for read-only use.
func NewCurrencyService(db *gorm.DB, fetcher rates.QuoteFetcher) CurrencyServicer {
	return &currencyService{db: db, fetcher: fetcher}
}

// Resolve returns the exchange rate from one currency to another.
func (s *currencyService) Resolve(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	var rate models.CurrencyRate
	err := s.db.Where("from_currency = ? AND to_currency = ?", from, to).
		Order("updated_at DESC").
		First(&rate).Error
	if err == nil {
		return rate.Rate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// No direct row: use the reciprocal of the reverse pair.
	var reverse models.CurrencyRate
	err = s.db.Where("from_currency = ? AND to_currency = ?", to, from).
		Order("updated_at DESC").
		First(&reverse).Error
	if err == nil {
		if reverse.Rate.IsZero() {
			return decimal.Zero, apperrors.ErrRateNotFound
		}
		return decimal.NewFromInt(1).Div(reverse.Rate), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return decimal.Zero, apperrors.ErrRateNotFound
}

// Convert converts an amount in cents between currencies, rounding to the
// nearest cent.
func (s *currencyService) Convert(amount int64, from, to string) (*Conversion, error) {
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}

	rate, err := s.Resolve(from, to)
	if err != nil {
		return nil, err
	}

	converted := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return &Conversion{
		Amount:    amount,
		Converted: converted,
		From:      from,
		To:        to,
		Rate:      rate,
	}, nil
}

// ListRates returns all stored rates, newest first.
func (s *currencyService) ListRates() ([]models.CurrencyRate, error) {
	var all []models.CurrencyRate
	if err := s.db.Order("updated_at DESC").Find(&all).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return all, nil
}

// Refresh fetches quotes and upserts both directions of each currency pair.
// One attempt, no retry: a fetch failure stores the fixed fallback table so
// conversion keeps working offline.
func (s *currencyService) Refresh(ctx context.Context) error {
	quotes, err := s.fetcher.Fetch(ctx)
	if err != nil {
		logger.Get().Warnw("quote fetch failed, storing fallback rates", "error", err.Error())
		return s.storeFallbackRates()
	}

	for _, q := range quotes {
		// The quote is the foreign currency's price in BYN. Average buy and
		// sell when both are present, otherwise use buy alone.
		avg := q.Buy
		if !q.Sell.IsZero() {
			avg = q.Buy.Add(q.Sell).Div(decimal.NewFromInt(2))
		}
		if avg.Sign() <= 0 {
			logger.Get().Warnw("skipping non-positive quote", "currency", q.Currency)
			continue
		}

		if err := s.upsertPair(q.Currency, avg); err != nil {
			return err
		}
	}
	return nil
}

func (s *currencyService) storeFallbackRates() error {
	for currency, rate := range fallbackRates {
		if err := s.upsertPair(currency, rate); err != nil {
			return err
		}
	}
	return nil
}

// upsertPair stores foreign->BYN at the quoted rate and BYN->foreign at its
// reciprocal, overwriting any existing row for the same (from, to, source).
func (s *currencyService) upsertPair(currency string, foreignToBYN decimal.Decimal) error {
	bynToForeign := decimal.NewFromInt(1).Div(foreignToBYN)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertRate(tx, currency, "BYN", foreignToBYN); err != nil {
			return err
		}
		return upsertRate(tx, "BYN", currency, bynToForeign)
	})
}

func upsertRate(tx *gorm.DB, from, to string, rate decimal.Decimal) error {
	var existing models.CurrencyRate
	err := tx.Where("from_currency = ? AND to_currency = ? AND source = ?", from, to, rateSource).
		First(&existing).Error
	if err == nil {
		if err := tx.Model(&existing).Update("rate", rate).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	row := &models.CurrencyRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Source:       rateSource,
	}
	if err := tx.Create(row).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
