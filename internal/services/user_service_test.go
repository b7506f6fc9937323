package services

import (
	"testing"

	"moneytracker/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("alice@example.com", "secret123", "Alice", "Smith")
		testutil.AssertNoError(t, err)
		if user.ID == "" {
			t.Fatal("expected non-empty user ID")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected email alice@example.com, got %s", user.Email)
		}
		if user.Password == "secret123" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("bob@example.com", "secret123", "Bob", "Jones")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("bob@example.com", "other456", "Bobby", "Jones")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("duplicate email check is case insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("carol@example.com", "secret123", "Carol", "White")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("Carol@Example.com", "other456", "Carol", "White")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("correct password succeeds and resets counters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created, err := svc.CreateUser("dan@example.com", "secret123", "Dan", "Brown")
		testutil.AssertNoError(t, err)

		// One failure first so success has something to reset.
		_, err = svc.AttemptLogin("dan@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		user, err := svc.AttemptLogin("dan@example.com", "secret123")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}

		reloaded, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)
		if reloaded.FailedLoginAttempts != 0 {
			t.Errorf("expected failed attempts reset, got %d", reloaded.FailedLoginAttempts)
		}
		if reloaded.LastLoginAt == nil {
			t.Error("expected last login timestamp to be set")
		}
	})

	t.Run("wrong password fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		_, err := svc.CreateUser("eve@example.com", "secret123", "Eve", "Black")
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin("eve@example.com", "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("five failures lock the account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		_, err := svc.CreateUser("frank@example.com", "secret123", "Frank", "Green")
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLogins-1; i++ {
			_, err = svc.AttemptLogin("frank@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// The final failure trips the lock.
		_, err = svc.AttemptLogin("frank@example.com", "wrong")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		// Even the right password is refused while locked.
		_, err = svc.AttemptLogin("frank@example.com", "secret123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	t.Run("store and fetch round trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user, err := svc.CreateUser("gina@example.com", "secret123", "Gina", "Gray")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123"))

		hash, err := svc.GetRefreshTokenHash(user.ID)
		testutil.AssertNoError(t, err)
		if hash != "abc123" {
			t.Errorf("expected hash abc123, got %s", hash)
		}

		// Rotation overwrites the previous hash.
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "def456"))
		hash, err = svc.GetRefreshTokenHash(user.ID)
		testutil.AssertNoError(t, err)
		if hash != "def456" {
			t.Errorf("expected hash def456, got %s", hash)
		}
	})
}
