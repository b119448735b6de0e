package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/middleware"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/internal/services"
)

// TripHandler handles trip lifecycle HTTP requests
type TripHandler struct {
	tripService  *services.TripService
	pinService   *services.PinService
	auditService *services.AuditService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *services.TripService, pinService *services.PinService, auditService *services.AuditService) *TripHandler {
	return &TripHandler{
		tripService:  tripService,
		pinService:   pinService,
		auditService: auditService,
	}
}

// StartTripRequest represents the request to start a trip
type StartTripRequest struct {
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	Destination     string `json:"destination"`
}

// EndTripRequest represents the request to end a trip
type EndTripRequest struct {
	Status string `json:"status"`
}

// VerifyPinRequest represents a PIN classification request
type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// VerifyPinResponse represents a PIN classification response. The shape is
// identical for every outcome; only the status value differs.
type VerifyPinResponse struct {
	Status services.PinStatus `json:"status"`
}

// StartTrip handles POST /api/v1/trips
func (h *TripHandler) StartTrip(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	trip, err := h.tripService.StartTrip(userCtx.UserID, req.DurationMinutes, models.NewNullString(req.Destination))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// EndTrip handles PATCH /api/v1/trips/:id/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid trip ID",
		})
		return
	}

	var req EndTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	trip, err := h.tripService.EndTrip(tripID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// GetTrip handles GET /api/v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid trip ID",
		})
		return
	}

	trip, err := h.tripService.GetTrip(tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// GetTripPath handles GET /api/v1/trips/:id/path
func (h *TripHandler) GetTripPath(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid trip ID",
		})
		return
	}

	path, err := h.tripService.GetTripPath(tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "path": path})
}

// VerifyPin handles POST /api/v1/trips/verify-pin. The response for a duress
// match is byte-identical in shape to a safe match; the caller's UI must not
// branch visibly on it.
func (h *TripHandler) VerifyPin(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	status, err := h.pinService.VerifyPin(userCtx.UserID, req.Pin)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogPinVerification(userCtx.UserID, c.ClientIP(), c.Request.UserAgent(), status != services.PinStatusInvalid)

	c.JSON(http.StatusOK, VerifyPinResponse{Status: status})
}
