package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"luvv/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminStats handles GET /api/admin/stats.
func (h *HTTPHandler) AdminStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.stats.Dashboard(ctx)
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Error("failed to load dashboard stats")
		InternalError(c, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsageLogs handles GET /api/admin/usage-logs.
func (h *HTTPHandler) ListUsageLogs(c *gin.Context) {
	var params dto.UsageLogQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	params.Model = strings.TrimSpace(params.Model)
	params.Status = strings.ToLower(strings.TrimSpace(params.Status))
	params.Normalise(20, 100)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	resp, err := h.stats.ListUsageLogs(ctx, &params)
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Error("failed to list usage logs")
		InternalError(c, "failed to load usage logs")
		return
	}
	if resp.Records == nil {
		resp.Records = []dto.UsageLogItem{}
	}
	c.JSON(http.StatusOK, resp)
}
