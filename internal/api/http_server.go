package api

import (
	"context"
	"net/http"
	"strings"

	"luvv/internal/auth"
	"luvv/internal/config"
	"luvv/internal/entity/dto"
	"luvv/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Generator produces greeting messages.
type Generator interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
}

// StatsService records visits and serves the admin dashboard.
type StatsService interface {
	RecordVisit(ctx context.Context) error
	Dashboard(ctx context.Context) (*dto.DashboardStats, error)
	ListUsageLogs(ctx context.Context, query *dto.UsageLogQuery) (*dto.UsageLogListResponse, error)
}

// CardService stores shared greeting cards.
type CardService interface {
	Save(ctx context.Context, req dto.CardUploadRequest) (*dto.CardUploadResponse, error)
}

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg       config.Config
	generator Generator
	stats     StatsService
	cards     CardService
	admin     *auth.Admin
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, generator Generator, stats StatsService, cards CardService, admin *auth.Admin) *HTTPHandler {
	return &HTTPHandler{
		cfg:       cfg,
		generator: generator,
		stats:     stats,
		cards:     cards,
		admin:     admin,
	}
}

// Router builds the gin engine with middleware and every route. store may be nil; when it is
// a local backend its directory is served under the public base path.
func (h *HTTPHandler) Router(store storage.Storage) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(h.cfg.CORSAllowedOrigins))
	r.Use(RequestIDMiddleware())
	if h.cfg.OTelEnabled {
		r.Use(otelgin.Middleware(h.cfg.OTelServiceName))
	}
	r.Use(MetricsMiddleware())
	r.Use(LoggingMiddleware())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.POST("/generate-luvv", h.GenerateLuvv)
	apiGroup.POST("/visits", h.RecordVisit)
	apiGroup.POST("/cards", h.UploadCard)

	adminGroup := apiGroup.Group("/admin")
	adminGroup.POST("/login", h.AdminLogin)

	protected := adminGroup.Group("")
	protected.Use(h.AdminAuthMiddleware())
	protected.GET("/session", h.AdminSession)
	protected.GET("/stats", h.AdminStats)
	protected.GET("/usage-logs", h.ListUsageLogs)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		if prefix := localFilesPrefix(h.cfg.StoragePublicBaseURL); prefix != "" {
			r.Static(prefix, localProvider.LocalBaseDir())
		}
	}

	return r
}

// localFilesPrefix returns the route prefix for local files, or "" when the public base is an absolute URL.
func localFilesPrefix(value string) string {
	publicPrefix := normalisePublicBase(value)
	if strings.HasPrefix(publicPrefix, "http://") || strings.HasPrefix(publicPrefix, "https://") {
		return ""
	}
	return publicPrefix
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
