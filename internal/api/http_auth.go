package api

import (
	"errors"
	"net/http"

	"luvv/internal/auth"
	"luvv/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminLogin exchanges the dashboard password for a bearer token.
func (h *HTTPHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		MissingField(c, "password")
		return
	}

	token, expiresAt, err := h.admin.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAdminDisabled):
			ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeAdminDisabled, "admin login is not configured")
		case errors.Is(err, auth.ErrInvalidCredentials):
			logrus.WithField("client_ip", c.ClientIP()).Warn("admin login failed")
			ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid password")
		default:
			logrus.WithError(err).Error("failed to generate token")
			InternalError(c, "failed to create session")
		}
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// AdminSession reports the current token's subject and expiry.
func (h *HTTPHandler) AdminSession(c *gin.Context) {
	claims := CurrentClaims(c)
	if claims == nil {
		Unauthorized(c, "authentication required")
		return
	}
	resp := gin.H{"subject": claims.Subject, "role": claims.Role}
	if claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
