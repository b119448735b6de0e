package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
)

func newGuardianService(db *mockDatabase, gateway *fakeGateway) *GuardianService {
	return NewGuardianService(
		database.NewGuardianRepository(db),
		database.NewUserRepository(db),
		database.NewNotificationRepository(db),
		gateway,
		newTestLogger(),
	)
}

func TestAddGuardian(t *testing.T) {
	t.Run("Unknown Protector", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newGuardianService(newMockDatabase(db), &fakeGateway{})

		protectorID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(protectorID).
			WillReturnRows(sqlmock.NewRows(userCols))

		guardian, err := service.AddGuardian(protectorID, "Mom", "0912345678")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Nil(t, guardian)
	})

	t.Run("At Cap", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newGuardianService(newMockDatabase(db), &fakeGateway{})

		protectorID := uuid.New()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WithArgs(protectorID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(models.MaxGuardiansPerUser))

		guardian, err := service.AddGuardian(protectorID, "Sixth", "0912345678")
		assert.ErrorIs(t, err, ErrGuardianLimit)
		assert.Nil(t, guardian)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent Insert Hits Cap Guard", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newGuardianService(newMockDatabase(db), &fakeGateway{})

		protectorID := uuid.New()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		// Another request won the race; the conditional insert affects no rows.
		mock.ExpectExec(`INSERT INTO guardians`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		guardian, err := service.AddGuardian(protectorID, "Sixth", "0912345678")
		assert.ErrorIs(t, err, ErrGuardianLimit)
		assert.Nil(t, guardian)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Phone", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newGuardianService(newMockDatabase(db), &fakeGateway{})

		protectorID := uuid.New()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO guardians`).
			WillReturnError(&pq.Error{Code: "23505"})

		guardian, err := service.AddGuardian(protectorID, "Mom", "0912345678")
		assert.ErrorIs(t, err, ErrDuplicateGuardian)
		assert.Nil(t, guardian)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unregistered Invitee Gets No Notification", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{}
		service := newGuardianService(newMockDatabase(db), gateway)

		protectorID := uuid.New()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO guardians`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols))

		guardian, err := service.AddGuardian(protectorID, "Mom", "0912345678")
		require.NoError(t, err)
		require.NotNil(t, guardian)
		assert.Equal(t, models.GuardianStatusPending, guardian.Status)
		assert.Empty(t, gateway.sentTokens)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Registered Invitee Notified", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{}
		service := newGuardianService(newMockDatabase(db), gateway)

		protectorID := uuid.New()
		inviteeID := uuid.New()
		now := time.Now()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectExec(`INSERT INTO guardians`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WithArgs("0912345678").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				inviteeID, "0912345678", nil, "Mom", "pwhash",
				nil, nil, "invitee-token", nil, nil, now, now,
			))
		mock.ExpectExec(`INSERT INTO notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		guardian, err := service.AddGuardian(protectorID, "Mom", "0912345678")
		require.NoError(t, err)
		require.NotNil(t, guardian)
		assert.Equal(t, []string{"invitee-token"}, gateway.sentTokens)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Push Failure Never Fails Creation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{sendErr: fmt.Errorf("gateway unreachable")}
		service := newGuardianService(newMockDatabase(db), gateway)

		protectorID := uuid.New()
		now := time.Now()

		expectSender(mock, protectorID, "0911111111")
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guardians WHERE user_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO guardians`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE phone = \$1`).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				uuid.New(), "0912345678", nil, "Mom", "pwhash",
				nil, nil, "invitee-token", nil, nil, now, now,
			))
		mock.ExpectExec(`INSERT INTO notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		guardian, err := service.AddGuardian(protectorID, "Mom", "0912345678")
		assert.NoError(t, err)
		assert.NotNil(t, guardian)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRespondToRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newGuardianService(newMockDatabase(db), &fakeGateway{})

	t.Run("Pending Is Not A Decision", func(t *testing.T) {
		guardian, err := service.RespondToRequest(uuid.New(), models.GuardianStatusPending)
		assert.ErrorIs(t, err, ErrInvalidDecision)
		assert.Nil(t, guardian)
	})

	t.Run("Accept", func(t *testing.T) {
		guardianID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM guardians WHERE id = \$1`).
			WithArgs(guardianID).
			WillReturnRows(sqlmock.NewRows(guardianCols).AddRow(
				guardianID, uuid.New(), "Mom", "0912345678", models.GuardianStatusPending, now, now,
			))
		mock.ExpectExec(`UPDATE guardians SET status`).
			WithArgs(models.GuardianStatusAccepted, sqlmock.AnyArg(), guardianID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		guardian, err := service.RespondToRequest(guardianID, models.GuardianStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.GuardianStatusAccepted, guardian.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Repeated Decision Is A No-Op", func(t *testing.T) {
		guardianID := uuid.New()
		now := time.Now()

		// No UPDATE expected; the stored status already matches.
		mock.ExpectQuery(`SELECT (.+) FROM guardians WHERE id = \$1`).
			WithArgs(guardianID).
			WillReturnRows(sqlmock.NewRows(guardianCols).AddRow(
				guardianID, uuid.New(), "Mom", "0912345678", models.GuardianStatusAccepted, now, now,
			))

		guardian, err := service.RespondToRequest(guardianID, models.GuardianStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.GuardianStatusAccepted, guardian.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Relation", func(t *testing.T) {
		guardianID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM guardians WHERE id = \$1`).
			WithArgs(guardianID).
			WillReturnRows(sqlmock.NewRows(guardianCols))

		guardian, err := service.RespondToRequest(guardianID, models.GuardianStatusRejected)
		assert.ErrorIs(t, err, ErrGuardianNotFound)
		assert.Nil(t, guardian)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteGuardianService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newGuardianService(newMockDatabase(db), &fakeGateway{})

	t.Run("Deleted", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`DELETE FROM guardians WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.DeleteGuardian(id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Gone", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec(`DELETE FROM guardians WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, service.DeleteGuardian(id), ErrGuardianNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPeopleIProtect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newGuardianService(newMockDatabase(db), &fakeGateway{})

	userID := uuid.New()
	protectorID := uuid.New()
	now := time.Now()

	expectSender(mock, userID, "0912345678")
	mock.ExpectQuery(`SELECT (.+) FROM guardians g JOIN users u ON u.id = g.user_id WHERE g.guardian_phone = \$1`).
		WithArgs("0912345678").
		WillReturnRows(sqlmock.NewRows([]string{
			"guardian_id", "status", "protector_id", "protector_name", "protector_phone", "created_at",
		}).AddRow(uuid.New(), models.GuardianStatusAccepted, protectorID, "Lan Tran", "0911111111", now))

	people, err := service.GetPeopleIProtect(userID)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, protectorID, people[0].ProtectorID)
	assert.Equal(t, models.GuardianStatusAccepted, people[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
