package api

import (
	"context"
	"net/http"
	"time"

	"luvv/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RecordVisit handles POST /api/visits. The body is ignored.
func (h *HTTPHandler) RecordVisit(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.stats.RecordVisit(ctx); err != nil {
		logrus.WithContext(ctx).WithError(err).Error("failed to record visit")
		InternalError(c, "failed to record visit")
		return
	}
	c.JSON(http.StatusCreated, dto.VisitResponse{Recorded: true})
}
