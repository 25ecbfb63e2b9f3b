package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luvv/internal/api"
	"luvv/internal/auth"
	"luvv/internal/config"
	"luvv/internal/llm"
	"luvv/internal/model"
	"luvv/internal/rotation"
	"luvv/internal/service"
	"luvv/internal/storage"
	"luvv/internal/tracer"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		os.Exit(1)
	}

	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
		SampleRate:  cfg.OTelSampleRate,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logrus.WithError(err).Warn("failed to flush traces")
		}
	}()

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repo.Close()

	if cfg.SeedTemplates {
		if err := model.SeedDefaultTemplates(ctx, repo); err != nil {
			logrus.WithError(err).Warn("failed to seed default templates")
		}
	}

	providers, err := llm.NewProviders(cfg)
	if err != nil {
		return fmt.Errorf("init providers: %w", err)
	}
	if len(providers) == 0 {
		logrus.Warn("no llm providers configured, answering from the message library only")
	}

	cursor, closeCursor := newRotationCursor(cfg, repo)
	defer closeCursor()

	gateway := service.NewGateway(providers, repo, repo, cursor, service.GatewayOptionsFromConfig(cfg))
	stats := service.NewStatsService(repo, providers, cfg.DailyLimitFor, cfg.QuotaLocation())

	store, err := storage.NewStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	cards := service.NewCardService(store, cfg.StoragePublicBaseURL, cfg.CardMaxBytes)

	jwtManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	if err != nil {
		return fmt.Errorf("init jwt manager: %w", err)
	}
	admin, err := auth.NewAdmin(cfg.AdminPasswordHash, cfg.AdminPassword, jwtManager)
	if err != nil {
		return fmt.Errorf("init admin auth: %w", err)
	}
	if !admin.Enabled() {
		logrus.Warn("ADMIN_PASSWORD_HASH and ADMIN_PASSWORD are empty, admin dashboard disabled")
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHTTPHandler(cfg, gateway, stats, cards, admin)

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:              serverHost,
		Handler:           handler.Router(store),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"host":      serverHost,
			"providers": len(providers),
			"policy":    rotation.NormalisePolicy(cfg.ProviderPolicy),
		}).Info("服务器启动")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http server shutdown incomplete")
	}
	gateway.Wait()
	return nil
}

// newRotationCursor prefers Redis and falls back to the rotation_cursor table.
func newRotationCursor(cfg config.Config, repo model.Repository) (rotation.Cursor, func()) {
	noop := func() {}
	if rotation.NormalisePolicy(cfg.ProviderPolicy) != rotation.PolicyRoundRobin {
		return nil, noop
	}
	if cfg.RedisAddr != "" {
		rdb, err := rotation.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			return rotation.NewRedisCursor(rdb, cfg.RotationCursorKey), func() { _ = rdb.Close() }
		}
		logrus.WithError(err).Warn("redis unavailable, using database rotation cursor")
	}
	return rotation.NewRepositoryCursor(repo, cfg.RotationCursorKey), noop
}
