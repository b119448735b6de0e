package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrek/safety-backend/internal/models"
)

var userRows = []string{
	"id", "phone", "email", "full_name", "password_hash", "safe_pin_hash",
	"duress_pin_hash", "fcm_token", "last_latitude", "last_longitude",
	"created_at", "updated_at",
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		phone := "0912345678"

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(
				sqlmock.AnyArg(), phone, sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := repo.CreateUser(phone, models.NewNullString(""), models.NewNullString("Lan Tran"), "pwhash", "safehash", "duresshash")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, phone, user.Phone)
		assert.Equal(t, "safehash", user.SafePinHash.String)
		assert.False(t, user.Email.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("database error"))

		user, err := repo.CreateUser("0912345678", models.NullString{}, models.NullString{}, "pw", "safe", "duress")
		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "failed to create user")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	t.Run("Found", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, "0912345678", "lan@example.com", "Lan Tran",
				"pwhash", "safehash", "duresshash", "fcm-token",
				10.762622, 106.660172, now, now,
			))

		user, err := repo.GetUserByID(userID)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "0912345678", user.Phone)
		assert.Equal(t, "Lan Tran", user.FullName.String)
		assert.Equal(t, "fcm-token", user.FCMToken.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(userID)
		assert.NoError(t, err)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	t.Run("Matches Phone Or Email", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1 OR email = \$1`).
			WithArgs("lan@example.com").
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				userID, "0912345678", "lan@example.com", "Lan Tran",
				"pwhash", nil, nil, nil, nil, nil, now, now,
			))

		user, err := repo.GetUserByIdentity("lan@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.False(t, user.SafePinHash.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1 OR email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByIdentity("nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUsersByPhones(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	t.Run("Empty Input Skips Query", func(t *testing.T) {
		users, err := repo.GetUsersByPhones(nil)
		assert.NoError(t, err)
		assert.Nil(t, users)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Returns Registered Subset", func(t *testing.T) {
		now := time.Now()
		id1 := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = ANY\(\$1\)`).
			WillReturnRows(sqlmock.NewRows(userRows).AddRow(
				id1, "0912345678", nil, "Lan Tran",
				"pwhash", nil, nil, "fcm-token", nil, nil, now, now,
			))

		users, err := repo.GetUsersByPhones([]string{"0912345678", "0987654321"})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, id1, users[0].ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateFCMToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET fcm_token`).
			WithArgs("new-token", sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFCMToken(userID, "new-token")
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("User Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users SET fcm_token`).
			WithArgs("new-token", sqlmock.AnyArg(), userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFCMToken(userID, "new-token")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePinHashes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(newMockDatabase(db))

	userID := uuid.New()

	mock.ExpectExec(`UPDATE users SET safe_pin_hash`).
		WithArgs("safe2", "duress2", sqlmock.AnyArg(), userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdatePinHashes(userID, "safe2", "duress2")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// mockDatabase wraps sqlmock behind the DB interface so repositories can be
// exercised without a live Postgres. Get and Select go through sqlx to keep
// struct scanning behaviour identical to production.
type mockDatabase struct {
	db *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
