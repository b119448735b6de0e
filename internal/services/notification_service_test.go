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

var notificationCols = []string{"id", "user_id", "title", "body", "type", "data", "read", "created_at"}

func newNotificationService(db *mockDatabase) *NotificationService {
	return NewNotificationService(
		database.NewNotificationRepository(db),
		database.NewGuardianRepository(db),
		newTestLogger(),
	)
}

func TestGetUserNotifications(t *testing.T) {
	t.Run("Guardian Requests Carry Live Status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newNotificationService(newMockDatabase(db))

		userID := uuid.New()
		guardianID := uuid.New()
		now := time.Now()

		// The request was created while PENDING; the relation has since been
		// accepted. The view must show ACCEPTED.
		payload := fmt.Sprintf(`{"guardian_id":"%s"}`, guardianID)

		mock.ExpectQuery(`SELECT (.+) FROM notifications WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(notificationCols).
				AddRow(uuid.New(), userID, "Guardian request", "Lan wants to add you as a guardian.",
					models.NotificationTypeGuardianRequest, payload, false, now).
				AddRow(uuid.New(), userID, "Are you safe?", "Check in please",
					models.NotificationTypeNormalMessage, nil, true, now.Add(-time.Hour)))
		mock.ExpectQuery(`SELECT id, status FROM guardians WHERE id = ANY\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
				AddRow(guardianID, models.GuardianStatusAccepted))

		views, err := service.GetUserNotifications(userID)
		require.NoError(t, err)
		require.Len(t, views, 2)

		require.NotNil(t, views[0].CurrentGuardianStatus)
		assert.Equal(t, models.GuardianStatusAccepted, *views[0].CurrentGuardianStatus)
		assert.Nil(t, views[1].CurrentGuardianStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted Relation Leaves Status Empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newNotificationService(newMockDatabase(db))

		userID := uuid.New()
		guardianID := uuid.New()
		now := time.Now()

		payload := fmt.Sprintf(`{"guardian_id":"%s"}`, guardianID)

		mock.ExpectQuery(`SELECT (.+) FROM notifications WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(notificationCols).
				AddRow(uuid.New(), userID, "Guardian request", "Lan wants to add you as a guardian.",
					models.NotificationTypeGuardianRequest, payload, false, now))
		mock.ExpectQuery(`SELECT id, status FROM guardians WHERE id = ANY\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

		views, err := service.GetUserNotifications(userID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Nil(t, views[0].CurrentGuardianStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Malformed Payload Skipped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newNotificationService(newMockDatabase(db))

		userID := uuid.New()
		now := time.Now()

		// No status lookup happens when every payload fails to decode.
		mock.ExpectQuery(`SELECT (.+) FROM notifications WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(notificationCols).
				AddRow(uuid.New(), userID, "Guardian request", "Broken entry",
					models.NotificationTypeGuardianRequest, "{not json", false, now))

		views, err := service.GetUserNotifications(userID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Nil(t, views[0].CurrentGuardianStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Inbox", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newNotificationService(newMockDatabase(db))

		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM notifications WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(notificationCols))

		views, err := service.GetUserNotifications(userID)
		require.NoError(t, err)
		assert.Empty(t, views)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkAllAsReadService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newNotificationService(newMockDatabase(db))

	userID := uuid.New()

	mock.ExpectExec(`UPDATE notifications SET read = true`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	updated, err := service.MarkAllAsRead(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}
