package api

import (
	"errors"
	"net/http"

	"luvv/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码
const (
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 管理员会话
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeAdminDisabled      = "ERR_ADMIN_DISABLED"

	// 生成与卡片
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeGenerationFailed = "ERR_GENERATION_FAILED"
	ErrCodePayloadTooLarge  = "ERR_PAYLOAD_TOO_LARGE"
)

const generationUnavailableMessage = "message generation is temporarily unavailable, please try again"

// APIError is the body of every non-2xx response. Error is always set.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, APIError{Error: message, Code: code, Details: details})
}

// ErrorResponse writes an error body without details.
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	writeError(c, status, code, message, nil)
}

func BadRequest(c *gin.Context, code string, message string) {
	writeError(c, http.StatusBadRequest, code, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	writeError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message, nil)
}

func InternalError(c *gin.Context, message string) {
	writeError(c, http.StatusInternalServerError, ErrCodeInternalError, message, nil)
}

func ServiceUnavailable(c *gin.Context, message string) {
	writeError(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, nil)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	writeError(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 请求体不是合法 JSON
func InvalidPayload(c *gin.Context) {
	writeError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload", nil)
}

// ServiceError maps a service failure onto a response. Validation is a 400 and
// exhaustion a 503; every other kind is logged and hidden behind a 500.
func ServiceError(c *gin.Context, err error, fallbackMessage string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case service.KindValidation:
			writeError(c, http.StatusBadRequest, ErrCodeValidation, svcErr.Message, svcErr.Details)
			return
		case service.KindGenerationFailed:
			writeError(c, http.StatusServiceUnavailable, ErrCodeGenerationFailed, generationUnavailableMessage, nil)
			return
		}
	}
	logrus.WithContext(c.Request.Context()).WithError(err).Error("request_failed")
	InternalError(c, fallbackMessage)
}
