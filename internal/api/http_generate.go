package api

import (
	"net/http"

	"luvv/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

// GenerateLuvv handles POST /api/generate-luvv.
func (h *HTTPHandler) GenerateLuvv(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	resp, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err, "failed to generate messages")
		return
	}
	c.JSON(http.StatusOK, resp)
}
