package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safetrek/safety-backend/internal/middleware"
	"github.com/safetrek/safety-backend/internal/services"
)

// UserHandler handles profile and PIN management HTTP requests
type UserHandler struct {
	authService *services.AuthService
	pinService  *services.PinService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService, pinService *services.PinService) *UserHandler {
	return &UserHandler{
		authService: authService,
		pinService:  pinService,
	}
}

// UpdateProfileRequest represents the profile update request
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ChangePinRequest represents the PIN change request. OldPin is required
// only when the account already has a PIN set.
type ChangePinRequest struct {
	OldPin    string `json:"old_pin"`
	SafePin   string `json:"safe_pin" binding:"required,len=4"`
	DuressPin string `json:"duress_pin" binding:"required,len=4"`
}

// UpdateProfile handles PATCH /api/v1/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.authService.UpdateProfile(userCtx.UserID, req.FullName, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Profile())
}

// ChangePin handles PATCH /api/v1/users/pin
func (h *UserHandler) ChangePin(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Not authenticated"})
		return
	}

	var req ChangePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.pinService.ChangePin(userCtx.UserID, req.OldPin, req.SafePin, req.DuressPin); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "PINs updated"})
}
