package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/beauty-meet/internal/config"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/middleware"
)

const adminTokenTTL = 12 * time.Hour

type AuthHandler struct {
	config *config.Config
	now    func() time.Time
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg, now: time.Now}
}

// --------- Requests ---------

type LoginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	if h.config.AdminPINHash == "" {
		httperr.Write(c, http.StatusServiceUnavailable, "admin_login_disabled", "Admin login is not configured.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPINHash), []byte(req.PIN)); err != nil {
		httperr.Unauthorized(c, "invalid_pin", "Invalid PIN.")
		return
	}

	now := h.now()
	token, err := middleware.IssueAdminToken(h.config.JWTSecret, adminTokenTTL, now)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not issue a session.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": now.Add(adminTokenTTL),
	})
}
