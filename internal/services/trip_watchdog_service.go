package services

import (
	"time"

	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/pkg/push"
	"github.com/sirupsen/logrus"
)

// TripWatchdogService periodically scans for ACTIVE trips past their
// expected end time and sends a single check-in reminder per trip. Trips are
// never auto-terminated; only the owner's explicit end call (or a panic)
// changes trip state.
type TripWatchdogService struct {
	tripRepo         *database.TripRepository
	userRepo         *database.UserRepository
	notificationRepo *database.NotificationRepository
	pushGateway      push.Gateway
	logger           *logrus.Logger
	interval         time.Duration
	batchSize        int
	stopCh           chan struct{}
}

// NewTripWatchdogService creates a new trip watchdog service
func NewTripWatchdogService(
	tripRepo *database.TripRepository,
	userRepo *database.UserRepository,
	notificationRepo *database.NotificationRepository,
	pushGateway push.Gateway,
	logger *logrus.Logger,
	interval time.Duration,
	batchSize int,
) *TripWatchdogService {
	return &TripWatchdogService{
		tripRepo:         tripRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		pushGateway:      pushGateway,
		logger:           logger,
		interval:         interval,
		batchSize:        batchSize,
		stopCh:           make(chan struct{}),
	}
}

// Start begins the background sweep
func (s *TripWatchdogService) Start() {
	s.logger.WithField("interval", s.interval).Info("Starting trip watchdog")
	go s.run()
}

// Stop stops the background sweep
func (s *TripWatchdogService) Stop() {
	s.logger.Info("Stopping trip watchdog")
	close(s.stopCh)
}

func (s *TripWatchdogService) run() {
	// Run immediately on start
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.logger.Info("Trip watchdog stopped")
			return
		}
	}
}

// sweep finds overdue trips and nudges their owners once each
func (s *TripWatchdogService) sweep() {
	trips, err := s.tripRepo.ListOverdueActiveTrips(s.batchSize)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list overdue trips")
		return
	}

	for _, trip := range trips {
		s.remind(trip)
	}
}

func (s *TripWatchdogService) remind(trip *models.Trip) {
	title := "Are you safe?"
	body := "Your trip has passed its expected end time. Open the app to check in."

	if _, err := s.notificationRepo.CreateNotification(
		trip.UserID, title, body,
		models.NotificationTypeNormalMessage,
		models.NullString{},
	); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).
			Error("Failed to persist overdue reminder")
		return
	}

	// Marked before the push attempt: the reminder fires at most once even
	// when delivery fails.
	if err := s.tripRepo.MarkOverdueNotified(trip.ID); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).
			Error("Failed to mark trip overdue notified")
		return
	}

	owner, err := s.userRepo.GetUserByID(trip.UserID)
	if err != nil || owner == nil || !owner.FCMToken.Valid {
		return
	}

	if err := s.pushGateway.SendToToken(owner.FCMToken.String, title, body, map[string]string{
		"type":    "TRIP_OVERDUE",
		"trip_id": trip.ID.String(),
	}); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Warn("Overdue reminder push failed")
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": trip.ID,
		"user_id": trip.UserID,
	}).Info("Overdue trip reminder sent")
}
