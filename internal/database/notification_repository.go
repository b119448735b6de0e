package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/models"
)

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// CreateNotification inserts a new unread inbox entry
func (r *NotificationRepository) CreateNotification(userID uuid.UUID, title, body string, notifType models.NotificationType, data models.NullString) (*models.Notification, error) {
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      notifType,
		Data:      data,
		Read:      false,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO notifications (id, user_id, title, body, type, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Body,
		notification.Type,
		notification.Data,
		notification.Read,
		notification.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// ListByUser retrieves a user's inbox, newest first
func (r *NotificationRepository) ListByUser(userID uuid.UUID) ([]*models.Notification, error) {
	var notifications []*models.Notification

	query := `
		SELECT id, user_id, title, body, type, data, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&notifications, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// CountUnreadByUser returns the number of unread inbox entries for a user
func (r *NotificationRepository) CountUnreadByUser(userID uuid.UUID) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`

	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAllAsRead flips every unread entry for a user to read. Returns the
// number of entries updated; zero on a repeat call.
func (r *NotificationRepository) MarkAllAsRead(userID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET read = true
		WHERE user_id = $1 AND read = false
	`

	result, err := r.db.Exec(query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
