package services

import (
	"testing"
	"time"

	"moneytracker/internal/pagination"
	"moneytracker/internal/testutil"
)

func TestCreateTransfer(t *testing.T) {
	t.Run("same currency moves the amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 10000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 500)

		transfer, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 3000, time.Now(), "move")
		testutil.AssertNoError(t, err)
		if transfer.ConvertedAmount != 3000 {
			t.Errorf("expected converted amount 3000, got %d", transfer.ConvertedAmount)
		}
		if transfer.ExchangeRate != nil {
			t.Error("expected nil exchange rate for same-currency transfer")
		}

		gotFrom, err := accounts.GetAccountByID(user.ID, from.ID)
		testutil.AssertNoError(t, err)
		if gotFrom.CurrentBalance != 7000 {
			t.Errorf("expected source balance 7000, got %d", gotFrom.CurrentBalance)
		}
		gotTo, err := accounts.GetAccountByID(user.ID, to.ID)
		testutil.AssertNoError(t, err)
		if gotTo.CurrentBalance != 3500 {
			t.Errorf("expected destination balance 3500, got %d", gotTo.CurrentBalance)
		}
	})

	t.Run("cross currency converts through the stored rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "USD", 5000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 0)
		testutil.CreateTestRate(t, db, "USD", "BYN", 2.0)

		transfer, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 5000, time.Now(), "")
		testutil.AssertNoError(t, err)
		if transfer.ConvertedAmount != 10000 {
			t.Errorf("expected converted amount 10000, got %d", transfer.ConvertedAmount)
		}
		if transfer.ExchangeRate == nil {
			t.Fatal("expected exchange rate to be recorded")
		}

		gotFrom, err := accounts.GetAccountByID(user.ID, from.ID)
		testutil.AssertNoError(t, err)
		if gotFrom.CurrentBalance != 0 {
			t.Errorf("expected source drained to 0, got %d", gotFrom.CurrentBalance)
		}
		gotTo, err := accounts.GetAccountByID(user.ID, to.ID)
		testutil.AssertNoError(t, err)
		if gotTo.CurrentBalance != 10000 {
			t.Errorf("expected destination credited to 10000, got %d", gotTo.CurrentBalance)
		}
	})

	t.Run("missing rate fails the transfer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "USD", 5000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "EUR", 0)

		_, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "RATE_NOT_FOUND")

		gotFrom, err := accounts.GetAccountByID(user.ID, from.ID)
		testutil.AssertNoError(t, err)
		if gotFrom.CurrentBalance != 5000 {
			t.Errorf("expected source untouched at 5000, got %d", gotFrom.CurrentBalance)
		}
	})

	t.Run("same account rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)

		_, err := svc.CreateTransfer(user.ID, account.ID, account.ID, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "SAME_ACCOUNT_TRANSFER")
	})

	t.Run("insufficient balance rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 999)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 0)

		_, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("notifies on create", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		notifier := &recordingNotifier{}
		svc := NewTransferService(db, accounts, currency, notifier)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 0)

		_, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 1000, time.Now(), "")
		testutil.AssertNoError(t, err)

		types := notifier.types()
		if len(types) != 1 || types[0] != "transfer_created" {
			t.Errorf("expected [transfer_created], got %v", types)
		}
	})
}

func TestListTransfers(t *testing.T) {
	t.Run("returns only the user's transfers newest first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 10000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 0)
		otherFrom := testutil.CreateTestAccountWithBalance(t, db, other.ID, "BYN", 10000)
		otherTo := testutil.CreateTestAccountWithBalance(t, db, other.ID, "BYN", 0)

		_, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 100, time.Now().Add(-time.Hour), "older")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransfer(user.ID, from.ID, to.ID, 200, time.Now(), "newer")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransfer(other.ID, otherFrom.ID, otherTo.ID, 300, time.Now(), "")
		testutil.AssertNoError(t, err)

		result, err := svc.ListTransfers(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Fatalf("expected 2 transfers, got %d", result.TotalItems)
		}
		if result.Data[0].Description != "newer" {
			t.Errorf("expected newest transfer first, got %s", result.Data[0].Description)
		}
	})
}

func TestGetTransferByID(t *testing.T) {
	t.Run("owner fetches, stranger gets not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := NewAccountService(db)
		currency := NewCurrencyService(db, nil)
		svc := NewTransferService(db, accounts, currency, nil)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 5000)
		to := testutil.CreateTestAccountWithBalance(t, db, user.ID, "BYN", 0)

		created, err := svc.CreateTransfer(user.ID, from.ID, to.ID, 500, time.Now(), "")
		testutil.AssertNoError(t, err)

		got, err := svc.GetTransferByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)
		if got.Amount != 500 {
			t.Errorf("expected amount 500, got %d", got.Amount)
		}

		_, err = svc.GetTransferByID(other.ID, created.ID)
		testutil.AssertAppError(t, err, "TRANSFER_NOT_FOUND")
	})
}
