package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/pkg/push"
	"github.com/sirupsen/logrus"
)

// PanicResult reports the outcome of an escalation fan-out. The alert record
// and inbox entries are authoritative; the counts only describe push delivery.
type PanicResult struct {
	NotifiedCount int `json:"notified_count"`
	FailedCount   int `json:"failed_count"`
}

// SendResult reports the outcome of a manual single-target notification
type SendResult struct {
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason,omitempty"`
}

// EmergencyService dispatches panic escalations: it resolves recipients via
// the guardian graph, persists alert and notification records, and calls the
// push gateway. It reads guardian and user state but never mutates it.
type EmergencyService struct {
	userRepo         *database.UserRepository
	guardianRepo     *database.GuardianRepository
	tripRepo         *database.TripRepository
	alertRepo        *database.AlertRepository
	notificationRepo *database.NotificationRepository
	pushGateway      push.Gateway
	logger           *logrus.Logger
}

// NewEmergencyService creates a new emergency service
func NewEmergencyService(
	userRepo *database.UserRepository,
	guardianRepo *database.GuardianRepository,
	tripRepo *database.TripRepository,
	alertRepo *database.AlertRepository,
	notificationRepo *database.NotificationRepository,
	pushGateway push.Gateway,
	logger *logrus.Logger,
) *EmergencyService {
	return &EmergencyService{
		userRepo:         userRepo,
		guardianRepo:     guardianRepo,
		tripRepo:         tripRepo,
		alertRepo:        alertRepo,
		notificationRepo: notificationRepo,
		pushGateway:      pushGateway,
		logger:           logger,
	}
}

// TriggerPanic runs the escalation fan-out for a user-initiated emergency.
// The alert record is written unconditionally; inbox entries are persisted
// before any push attempt; push failures are absorbed here and only reflected
// in the returned counts. Having zero accepted guardians is a success with
// zero notified, not an error.
func (s *EmergencyService) TriggerPanic(userID uuid.UUID, lat, lng float64, tripID *uuid.UUID, batteryLevel *float64) (*PanicResult, error) {
	sender, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	// Best-effort location bookkeeping; never aborts the escalation.
	if err := s.userRepo.UpdateLastLocation(userID, lat, lng); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).
			Warn("Failed to update last known location")
	}
	if tripID != nil {
		battery := models.NullFloat64{}
		if batteryLevel != nil {
			battery.Valid = true
			battery.Float64 = *batteryLevel
		}
		if err := s.tripRepo.AppendLocation(*tripID, lat, lng, battery); err != nil {
			s.logger.WithError(err).WithField("trip_id", *tripID).
				Warn("Failed to append panic location to trip path")
		}
	}

	// The audit record exists regardless of delivery outcome.
	nullTripID := uuid.NullUUID{}
	if tripID != nil {
		nullTripID = uuid.NullUUID{UUID: *tripID, Valid: true}
	}
	if _, err := s.alertRepo.CreateAlert(userID, nullTripID, models.AlertTypePanic); err != nil {
		return nil, fmt.Errorf("failed to record alert: %w", err)
	}

	guardians, err := s.guardianRepo.ListByUserAndStatus(userID, models.GuardianStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guardians: %w", err)
	}
	if len(guardians) == 0 {
		s.logger.WithField("user_id", userID).Info("Panic triggered with no accepted guardians")
		return &PanicResult{}, nil
	}

	phones := make([]string, 0, len(guardians))
	for _, g := range guardians {
		phones = append(phones, g.GuardianPhone)
	}

	recipients, err := s.userRepo.GetUsersByPhones(phones)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	title := "Emergency alert"
	body := fmt.Sprintf("%s may be in danger! Tap to view their location.", sender.DisplayName())

	payload, _ := json.Marshal(models.EmergencyData{
		Latitude:     lat,
		Longitude:    lng,
		TripID:       tripID,
		BatteryLevel: batteryLevel,
	})

	// Persist every recipient's inbox entry before touching the gateway:
	// the inbox stays authoritative even when delivery fails.
	tokens := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		if _, err := s.notificationRepo.CreateNotification(
			recipient.ID, title, body,
			models.NotificationTypeEmergency,
			models.NewNullString(string(payload)),
		); err != nil {
			s.logger.WithError(err).WithField("recipient_id", recipient.ID).
				Error("Failed to persist emergency notification")
			continue
		}
		if recipient.FCMToken.Valid {
			tokens = append(tokens, recipient.FCMToken.String)
		}
	}

	result := &PanicResult{}
	if len(tokens) > 0 {
		data := map[string]string{
			"type":         "EMERGENCY_PANIC",
			"lat":          strconv.FormatFloat(lat, 'f', -1, 64),
			"lng":          strconv.FormatFloat(lng, 'f', -1, 64),
			"sender_phone": sender.Phone,
		}
		if tripID != nil {
			data["trip_id"] = tripID.String()
		}

		multicast, err := s.pushGateway.SendToMany(tokens, title, body, data)
		if err != nil {
			// Gateway failures never surface past the dispatcher.
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"tokens":  len(tokens),
				"gateway": s.pushGateway.GetName(),
			}).Error("Emergency multicast push failed")
			result.FailedCount = len(tokens)
		} else {
			result.NotifiedCount = multicast.SuccessCount
			result.FailedCount = multicast.FailureCount
			if multicast.FailureCount > 0 {
				s.logger.WithFields(logrus.Fields{
					"user_id": userID,
					"failed":  multicast.FailureCount,
				}).Warn("Emergency push partially failed")
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"notified": result.NotifiedCount,
		"failed":   result.FailedCount,
	}).Info("Panic escalation dispatched")

	return result, nil
}

// SendManualNotification persists a NORMAL_MESSAGE inbox entry for the user
// and attempts a single push. A missing push token is an explicit result,
// not an error.
func (s *EmergencyService) SendManualNotification(userID uuid.UUID, title, body string) (*SendResult, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.notificationRepo.CreateNotification(
		userID, title, body,
		models.NotificationTypeNormalMessage,
		models.NullString{},
	); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	if !user.FCMToken.Valid {
		return &SendResult{Delivered: false, Reason: "user has no push token"}, nil
	}

	if err := s.pushGateway.SendToToken(user.FCMToken.String, title, body, map[string]string{
		"type": string(models.NotificationTypeNormalMessage),
	}); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Manual push failed")
		return &SendResult{Delivered: false, Reason: "push delivery failed"}, nil
	}

	return &SendResult{Delivered: true}, nil
}
