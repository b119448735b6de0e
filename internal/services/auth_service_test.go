package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safetrek/safety-backend/internal/database"
)

func newAuthService(db *mockDatabase) *AuthService {
	return NewAuthService(database.NewUserRepository(db), newTestLogger(), bcrypt.MinCost)
}

func TestRegister(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newAuthService(newMockDatabase(db))

	t.Run("Equal Pins Rejected Before Any Lookup", func(t *testing.T) {
		user, err := service.Register(RegisterInput{
			Phone:     "0912345678",
			Password:  "password123",
			SafePin:   "1234",
			DuressPin: "1234",
		})
		assert.ErrorIs(t, err, ErrPinsMustDiffer)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Phone Taken", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				uuid.New(), "0912345678", nil, nil, "pwhash",
				nil, nil, nil, nil, nil, now, now,
			))

		user, err := service.Register(RegisterInput{
			Phone:     "0912345678",
			Password:  "password123",
			SafePin:   "1234",
			DuressPin: "9999",
		})
		assert.ErrorIs(t, err, ErrPhoneTaken)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Email Taken", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("lan@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				uuid.New(), "0987654321", "lan@example.com", nil, "pwhash",
				nil, nil, nil, nil, nil, now, now,
			))

		user, err := service.Register(RegisterInput{
			Phone:     "0912345678",
			Password:  "password123",
			Email:     "lan@example.com",
			SafePin:   "1234",
			DuressPin: "9999",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := service.Register(RegisterInput{
			Phone:     "0912345678",
			Password:  "password123",
			FullName:  "Lan Tran",
			SafePin:   "1234",
			DuressPin: "9999",
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "0912345678", user.Phone)
		assert.Equal(t, "Lan Tran", user.FullName.String)

		// Stored hashes verify against the raw inputs and differ per PIN.
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte("password123")))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.SafePinHash.String), []byte("1234")))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.DuressPinHash.String), []byte("9999")))
		assert.NotEqual(t, user.SafePinHash.String, user.DuressPinHash.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newAuthService(newMockDatabase(db))

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1 OR email = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				userID, "0912345678", nil, "Lan Tran", string(passwordHash),
				nil, nil, nil, nil, nil, now, now,
			))

		user, err := service.Login("0912345678", "password123")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Password", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1 OR email = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				uuid.New(), "0912345678", nil, nil, string(passwordHash),
				nil, nil, nil, nil, nil, now, now,
			))

		user, err := service.Login("0912345678", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Identity Gets The Same Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1 OR email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(userCols))

		user, err := service.Login("nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newAuthService(newMockDatabase(db))

	t.Run("Email Used By Another Account", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		expectSender(mock, userID, "0912345678")
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("taken@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				uuid.New(), "0987654321", "taken@example.com", nil, "pwhash",
				nil, nil, nil, nil, nil, now, now,
			))

		user, err := service.UpdateProfile(userID, "New Name", "taken@example.com")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Own Email Is Fine", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		expectSender(mock, userID, "0912345678")
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("mine@example.com").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				userID, "0912345678", "mine@example.com", nil, "pwhash",
				nil, nil, nil, nil, nil, now, now,
			))
		mock.ExpectExec(`UPDATE users SET full_name`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := service.UpdateProfile(userID, "New Name", "mine@example.com")
		require.NoError(t, err)
		assert.Equal(t, "New Name", user.FullName.String)
		assert.Equal(t, "mine@example.com", user.Email.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
