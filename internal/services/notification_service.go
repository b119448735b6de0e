package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// NotificationService serves the per-user inbox
type NotificationService struct {
	notificationRepo *database.NotificationRepository
	guardianRepo     *database.GuardianRepository
	logger           *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo *database.NotificationRepository,
	guardianRepo *database.GuardianRepository,
	logger *logrus.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		guardianRepo:     guardianRepo,
		logger:           logger,
	}
}

// GetUserNotifications returns the inbox, newest first. GUARDIAN_REQUEST
// entries are enriched with the relation's status as of this fetch, so the
// client sees the live state rather than the state at creation time.
func (s *NotificationService) GetUserNotifications(userID uuid.UUID) ([]*models.NotificationView, error) {
	notifications, err := s.notificationRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	// Collect guardian IDs from request payloads for one bulk status lookup.
	guardianIDs := make([]uuid.UUID, 0)
	decoded := make(map[uuid.UUID]uuid.UUID) // notification ID -> guardian ID
	for _, n := range notifications {
		if n.Type != models.NotificationTypeGuardianRequest || !n.Data.Valid {
			continue
		}
		data, err := n.DecodeGuardianRequest()
		if err != nil {
			s.logger.WithError(err).WithField("notification_id", n.ID).
				Warn("Malformed guardian request payload")
			continue
		}
		guardianIDs = append(guardianIDs, data.GuardianID)
		decoded[n.ID] = data.GuardianID
	}

	statuses := map[uuid.UUID]models.GuardianStatus{}
	if len(guardianIDs) > 0 {
		statuses, err = s.guardianRepo.GetStatusesByIDs(guardianIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to enrich guardian requests: %w", err)
		}
	}

	views := make([]*models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := &models.NotificationView{Notification: *n}
		if guardianID, ok := decoded[n.ID]; ok {
			if status, ok := statuses[guardianID]; ok {
				current := status
				view.CurrentGuardianStatus = &current
			}
		}
		views = append(views, view)
	}

	return views, nil
}

// GetUnreadCount returns the number of unread inbox entries
func (s *NotificationService) GetUnreadCount(userID uuid.UUID) (int, error) {
	return s.notificationRepo.CountUnreadByUser(userID)
}

// MarkAllAsRead flips all unread entries to read. Safe to repeat; a second
// call updates nothing.
func (s *NotificationService) MarkAllAsRead(userID uuid.UUID) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"updated": updated,
		}).Debug("Marked notifications as read")
	}

	return updated, nil
}
