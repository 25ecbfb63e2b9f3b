package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"luvv/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

// UploadCard handles POST /api/cards with a data URL of the rendered card.
func (h *HTTPHandler) UploadCard(c *gin.Context) {
	if h.cards == nil {
		ServiceUnavailable(c, "card storage is not available")
		return
	}

	if h.cfg.CardMaxBytes > 0 {
		// base64 inflates by 4/3; leave room for the JSON envelope
		limit := int64(h.cfg.CardMaxBytes)*4/3 + 4096
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var req dto.CardUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "card image is too large")
			return
		}
		MissingField(c, "image")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.cards.Save(ctx, req)
	if err != nil {
		ServiceError(c, err, "failed to store card")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
