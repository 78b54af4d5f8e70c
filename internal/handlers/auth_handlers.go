package handlers

import (
	"errors"
	"net/http"

	"resto_ops_backend/internal/services"
	"resto_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves admin authentication.
type AuthHandler struct {
	authSvc services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: as}
}

// Login authenticates an admin and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	resp, err := h.authSvc.Login(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password", ""))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Login failed", err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
