package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safetrek/safety-backend/internal/middleware"
	"github.com/safetrek/safety-backend/internal/models"
	"github.com/safetrek/safety-backend/internal/services"
)

// EmergencyHandler handles guardian management and panic escalation
type EmergencyHandler struct {
	guardianService  *services.GuardianService
	emergencyService *services.EmergencyService
	alertRepo        AlertLister
	auditService     *services.AuditService
}

// AlertLister is the slice of the alert repository the handler needs.
type AlertLister interface {
	ListByUser(userID uuid.UUID) ([]*models.Alert, error)
}

// NewEmergencyHandler creates a new emergency handler
func NewEmergencyHandler(
	guardianService *services.GuardianService,
	emergencyService *services.EmergencyService,
	alertRepo AlertLister,
	auditService *services.AuditService,
) *EmergencyHandler {
	return &EmergencyHandler{
		guardianService:  guardianService,
		emergencyService: emergencyService,
		alertRepo:        alertRepo,
		auditService:     auditService,
	}
}

// AddGuardianRequest represents the request to invite a guardian
type AddGuardianRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// RespondGuardianRequest represents a decision on a pending guardian request
type RespondGuardianRequest struct {
	Status models.GuardianStatus `json:"status" binding:"required"`
}

// PanicRequest represents a panic trigger payload
type PanicRequest struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	TripID       *string  `json:"trip_id"`
	BatteryLevel *float64 `json:"battery_level"`
}

// ListGuardians handles GET /api/v1/guardians
func (h *EmergencyHandler) ListGuardians(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	guardians, err := h.guardianService.GetGuardians(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"guardians": guardians, "max_guardians": models.MaxGuardiansPerUser})
}

// AddGuardian handles POST /api/v1/guardians
func (h *EmergencyHandler) AddGuardian(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req AddGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	guardian, err := h.guardianService.AddGuardian(userCtx.UserID, req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, guardian)
}

// DeleteGuardian handles DELETE /api/v1/guardians/:id
func (h *EmergencyHandler) DeleteGuardian(c *gin.Context) {
	guardianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid guardian ID",
		})
		return
	}

	if err := h.guardianService.DeleteGuardian(guardianID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Guardian removed"})
}

// RespondToRequest handles PATCH /api/v1/guardians/:id/respond
func (h *EmergencyHandler) RespondToRequest(c *gin.Context) {
	guardianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid guardian ID",
		})
		return
	}

	var req RespondGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	guardian, err := h.guardianService.RespondToRequest(guardianID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, guardian)
}

// ListProtecting handles GET /api/v1/guardians/protecting
func (h *EmergencyHandler) ListProtecting(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	people, err := h.guardianService.GetPeopleIProtect(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"protecting": people})
}

// TriggerPanic handles POST /api/v1/emergency/panic
func (h *EmergencyHandler) TriggerPanic(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req PanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	var tripID *uuid.UUID
	if req.TripID != nil && *req.TripID != "" {
		id, err := uuid.Parse(*req.TripID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid trip ID",
			})
			return
		}
		tripID = &id
	}

	result, err := h.emergencyService.TriggerPanic(userCtx.UserID, req.Latitude, req.Longitude, tripID, req.BatteryLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogPanic(userCtx.UserID, c.ClientIP(), c.Request.UserAgent(), result.NotifiedCount, result.FailedCount)

	c.JSON(http.StatusOK, result)
}

// ListAlerts handles GET /api/v1/emergency/alerts
func (h *EmergencyHandler) ListAlerts(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	alerts, err := h.alertRepo.ListByUser(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
