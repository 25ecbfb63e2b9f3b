package api

import (
	"net/http"
	"strings"

	"luvv/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const adminClaimsContextKey = "admin-claims"

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// AdminAuthMiddleware 校验 JWT，只放行 admin 角色
func (h *HTTPHandler) AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Error: problem, Code: ErrCodeUnauthorized})
			return
		}

		claims, err := h.admin.Manager().ParseToken(token)
		if err != nil {
			logrus.WithContext(c.Request.Context()).WithError(err).Warn("admin_token_rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{Error: "token is invalid or expired", Code: ErrCodeSessionExpired})
			return
		}
		if claims.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{Error: "admin role required", Code: ErrCodeForbidden})
			return
		}

		c.Set(adminClaimsContextKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by AdminAuthMiddleware, or nil.
func CurrentClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(adminClaimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}
