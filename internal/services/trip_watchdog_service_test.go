package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
)

func newWatchdog(db *mockDatabase, gateway *fakeGateway) *TripWatchdogService {
	return NewTripWatchdogService(
		database.NewTripRepository(db),
		database.NewUserRepository(db),
		database.NewNotificationRepository(db),
		gateway,
		newTestLogger(),
		time.Minute,
		50,
	)
}

func TestWatchdogSweep(t *testing.T) {
	overdueRow := func(tripID, userID uuid.UUID) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(tripCols).AddRow(
			tripID, userID, 30, nil, now.Add(-10*time.Minute),
			models.TripStatusActive, false, nil, now.Add(-40*time.Minute), now.Add(-40*time.Minute),
		)
	}

	t.Run("Reminds Once And Marks The Trip", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{}
		watchdog := newWatchdog(newMockDatabase(db), gateway)

		tripID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = \$1 AND expected_end_time < \$2 AND overdue_notified = false`).
			WillReturnRows(overdueRow(tripID, userID))
		mock.ExpectExec(`INSERT INTO notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// Marked before the push so the reminder cannot repeat.
		mock.ExpectExec(`UPDATE trips SET overdue_notified = true`).
			WithArgs(sqlmock.AnyArg(), tripID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				userID, "0912345678", nil, "Lan Tran", "pwhash",
				nil, nil, "owner-token", nil, nil, now, now,
			))

		watchdog.sweep()

		assert.Equal(t, []string{"owner-token"}, gateway.sentTokens)
		assert.NoError(t, mock.ExpectationsWereMet())

		// Next sweep sees nothing: the marked trip is filtered by the query.
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = \$1 AND expected_end_time < \$2 AND overdue_notified = false`).
			WillReturnRows(sqlmock.NewRows(tripCols))

		watchdog.sweep()

		assert.Len(t, gateway.sentTokens, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Owner Without Token Still Gets Inbox Entry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{}
		watchdog := newWatchdog(newMockDatabase(db), gateway)

		tripID := uuid.New()
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = \$1 AND expected_end_time < \$2 AND overdue_notified = false`).
			WillReturnRows(overdueRow(tripID, userID))
		mock.ExpectExec(`INSERT INTO notifications`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE trips SET overdue_notified = true`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(
				userID, "0912345678", nil, nil, "pwhash",
				nil, nil, nil, nil, nil, now, now,
			))

		watchdog.sweep()

		assert.Empty(t, gateway.sentTokens)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failed Inbox Write Leaves Trip Unmarked", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		gateway := &fakeGateway{}
		watchdog := newWatchdog(newMockDatabase(db), gateway)

		tripID := uuid.New()
		userID := uuid.New()

		// No mark, no push: the trip stays eligible for the next sweep.
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = \$1 AND expected_end_time < \$2 AND overdue_notified = false`).
			WillReturnRows(overdueRow(tripID, userID))
		mock.ExpectExec(`INSERT INTO notifications`).
			WillReturnError(fmt.Errorf("database error"))

		watchdog.sweep()

		assert.Empty(t, gateway.sentTokens)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
