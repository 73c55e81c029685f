// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/config"
	"github.com/watch4deal/admin-backend/internal/panel"
	"github.com/watch4deal/admin-backend/internal/utils"
)

type AuthHandler struct {
	cfg    *config.Config
	panels *panel.Manager
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthHandler(cfg *config.Config, panels *panel.Manager) *AuthHandler {
	return &AuthHandler{cfg: cfg, panels: panels}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid login payload", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if !h.credentialsValid(req.Username, req.Password) {
		logrus.WithField("username", req.Username).Warn("Failed admin login")
		utils.UnauthorizedResponse(c, "Invalid username or password")
		return
	}

	sessionID := uuid.NewString()
	token, err := utils.GenerateJWT(req.Username, sessionID, h.cfg.Auth.TokenTTL)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to issue session token")
		return
	}

	logrus.WithField("username", req.Username).Info("Admin logged in")
	utils.SuccessResponse(c, gin.H{
		"token":    token,
		"username": req.Username,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, exists := utils.GetSessionIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	h.panels.Close(sessionID)
	utils.SuccessResponse(c, gin.H{
		"message": "Logged out",
	})
}

func (h *AuthHandler) credentialsValid(username, password string) bool {
	if username != h.cfg.Auth.AdminUsername {
		return false
	}
	if h.cfg.Auth.AdminPasswordHash != "" {
		return utils.CheckPassword(h.cfg.Auth.AdminPasswordHash, password)
	}
	return h.cfg.Auth.AdminPassword != "" && h.cfg.Auth.AdminPassword == password
}
