package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"luvv/internal/config"
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
	"luvv/internal/llm"
	"luvv/internal/message"
	"luvv/internal/metrics"
	"luvv/internal/rotation"
	"luvv/internal/tracer"
	"luvv/internal/utils"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxNameRunes = 60

// TemplateStore is the message library as seen by the gateway.
type TemplateStore interface {
	CreateTemplates(ctx context.Context, templates []db.MessageTemplate) error
	ListRecentTemplates(ctx context.Context, relationship, tone string, limit int) ([]db.MessageTemplate, error)
	ListAnyTemplates(ctx context.Context, limit int) ([]db.MessageTemplate, error)
}

// UsageLedger appends and counts provider outcomes.
type UsageLedger interface {
	UsageCounter
	CreateUsageLog(ctx context.Context, entry *db.UsageLog) error
}

// GatewayOptions tunes the generation pipeline.
type GatewayOptions struct {
	Policy            string
	MaxAttempts       int
	Backoff           Backoff
	AttemptTimeout    time.Duration
	GenerationTimeout time.Duration
	PersistTimeout    time.Duration
	CacheMinTemplates int
	CacheScanLimit    int
	Location          *time.Location
	DailyLimit        func(driver string) int
}

// GatewayOptionsFromConfig maps env configuration onto gateway options.
func GatewayOptionsFromConfig(cfg config.Config) GatewayOptions {
	return GatewayOptions{
		Policy:            cfg.ProviderPolicy,
		MaxAttempts:       cfg.ProviderMaxAttempts,
		Backoff:           Backoff{Base: cfg.ProviderBackoffBase, Max: cfg.ProviderBackoffMax},
		AttemptTimeout:    cfg.ProviderAttemptTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		PersistTimeout:    cfg.PersistTimeout,
		CacheMinTemplates: cfg.CacheMinTemplates,
		CacheScanLimit:    cfg.CacheScanLimit,
		Location:          cfg.QuotaLocation(),
		DailyLimit:        cfg.DailyLimitFor,
	}
}

func (o GatewayOptions) withDefaults() GatewayOptions {
	o.Policy = rotation.NormalisePolicy(o.Policy)
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 20 * time.Second
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = 45 * time.Second
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	// a cache hit must be able to fill a full result
	if o.CacheMinTemplates < message.MaxMessages {
		o.CacheMinTemplates = message.MaxMessages
	}
	if o.CacheScanLimit < o.CacheMinTemplates {
		o.CacheScanLimit = 50
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Gateway answers generation requests from the cache, the providers or the safety net.
type Gateway struct {
	providers []llm.Provider
	templates TemplateStore
	ledger    UsageLedger
	cursor    rotation.Cursor
	quota     *QuotaChecker
	opts      GatewayOptions

	pending sync.WaitGroup
}

// NewGateway wires the pipeline. cursor may be nil when the policy is priority.
func NewGateway(providers []llm.Provider, templates TemplateStore, ledger UsageLedger, cursor rotation.Cursor, opts GatewayOptions) *Gateway {
	opts = opts.withDefaults()
	return &Gateway{
		providers: providers,
		templates: templates,
		ledger:    ledger,
		cursor:    cursor,
		quota:     NewQuotaChecker(ledger, opts.DailyLimit, opts.Location),
		opts:      opts,
	}
}

// Providers returns the configured providers in priority order.
func (g *Gateway) Providers() []llm.Provider {
	return append([]llm.Provider(nil), g.providers...)
}

// Wait blocks until background writes have finished.
func (g *Gateway) Wait() {
	g.pending.Wait()
}

// Generate returns 1-3 personalized messages or a generation_failed error.
func (g *Gateway) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	req, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "gateway.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("luvv.relationship", req.Relationship),
		attribute.String("luvv.tone", req.Tone),
	)

	logger := logrus.WithContext(ctx).WithFields(logrus.Fields{
		"relationship": req.Relationship,
		"tone":         req.Tone,
		"request_id":   utils.RequestIDFromContext(ctx),
	})

	if cached := g.fromCache(ctx, logger, req); cached != nil {
		span.SetAttributes(attribute.String("luvv.path", dto.ProviderTagCache))
		metrics.GenerationsTotal.WithLabelValues("cache").Inc()
		return cached, nil
	}

	resp, providerErr := g.fromProviders(ctx, logger, req)
	if resp != nil {
		span.SetAttributes(attribute.String("luvv.path", resp.Provider))
		metrics.GenerationsTotal.WithLabelValues("provider").Inc()
		return resp, nil
	}

	if rescued := g.fromSafetyNet(ctx, logger, req); rescued != nil {
		span.SetAttributes(attribute.String("luvv.path", dto.ProviderTagSafetyNet))
		metrics.GenerationsTotal.WithLabelValues("safety_net").Inc()
		return rescued, nil
	}

	metrics.GenerationsTotal.WithLabelValues("failed").Inc()
	failure := newGenerationFailedError(providerErr)
	span.RecordError(failure)
	span.SetStatus(codes.Error, string(KindGenerationFailed))
	logger.WithError(providerErr).Error("gateway_generation_failed")
	return nil, failure
}

func validateRequest(req dto.GenerateRequest) (dto.GenerateRequest, error) {
	req.Relationship = strings.TrimSpace(req.Relationship)
	req.Tone = strings.TrimSpace(req.Tone)
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Sender = strings.TrimSpace(req.Sender)

	missing := make([]string, 0, 4)
	for _, field := range []struct{ name, value string }{
		{"relationship", req.Relationship},
		{"tone", req.Tone},
		{"recipient", req.Recipient},
		{"sender", req.Sender},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return req, newValidationError("missing required fields: "+strings.Join(missing, ", "), map[string]interface{}{"fields": missing})
	}
	if !dto.IsValidRelationship(req.Relationship) {
		return req, newValidationError("unsupported relationship", map[string]interface{}{"relationship": req.Relationship})
	}
	if !dto.IsValidTone(req.Tone) {
		return req, newValidationError("unsupported tone", map[string]interface{}{"tone": req.Tone})
	}
	if utf8.RuneCountInString(req.Recipient) > maxNameRunes {
		return req, newValidationError(fmt.Sprintf("recipient must be at most %d characters", maxNameRunes), map[string]interface{}{"field": "recipient"})
	}
	if utf8.RuneCountInString(req.Sender) > maxNameRunes {
		return req, newValidationError(fmt.Sprintf("sender must be at most %d characters", maxNameRunes), map[string]interface{}{"field": "sender"})
	}
	return req, nil
}

func (g *Gateway) fromCache(ctx context.Context, logger *logrus.Entry, req dto.GenerateRequest) *dto.GenerateResponse {
	if g.templates == nil {
		return nil
	}
	rows, err := g.templates.ListRecentTemplates(ctx, req.Relationship, req.Tone, g.opts.CacheScanLimit)
	if err != nil {
		logger.WithError(err).Warn("gateway_cache_read_failed")
		return nil
	}
	texts := distinctTexts(rows)
	if len(texts) < g.opts.CacheMinTemplates {
		logger.WithField("available", len(texts)).Debug("gateway_cache_miss")
		return nil
	}

	picked := pickRandom(texts, message.MaxMessages)
	logger.WithField("available", len(texts)).Info("gateway_cache_hit")
	return &dto.GenerateResponse{
		Messages: message.ToPersonalized(picked, req.Recipient, req.Sender),
		Provider: dto.ProviderTagCache,
	}
}

func (g *Gateway) fromProviders(ctx context.Context, logger *logrus.Entry, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if len(g.providers) == 0 {
		return nil, errors.New("no providers configured")
	}

	phaseCtx, cancel := context.WithTimeout(ctx, g.opts.GenerationTimeout)
	defer cancel()

	prompt := BuildPrompt(req.Relationship, req.Tone)
	var lastErr error
	for _, provider := range g.orderedProviders(phaseCtx, logger) {
		if phaseCtx.Err() != nil {
			lastErr = errors.Join(lastErr, phaseCtx.Err())
			break
		}
		plog := logger.WithField("provider", provider.ID())

		if ok, used := g.quota.Allow(phaseCtx, provider); !ok {
			metrics.QuotaSkipsTotal.WithLabelValues(provider.ID()).Inc()
			plog.WithField("used_today", used).Info("gateway_provider_quota_exhausted")
			continue
		}

		raw, err := g.callWithRetry(phaseCtx, plog, provider, prompt)
		if err != nil {
			lastErr = newProviderError(provider.ID(), err)
			plog.WithError(err).Warn("gateway_provider_failed")
			g.recordUsage(ctx, provider.ID(), db.UsageStatusFailure)
			continue
		}

		messages := message.ExtractMessages(raw)
		if len(messages) == 0 {
			lastErr = newNormalizationEmptyError(provider.ID())
			plog.Warn("gateway_provider_unusable_response")
			metrics.ProviderCallsTotal.WithLabelValues(provider.ID(), "unusable").Inc()
			g.recordUsage(ctx, provider.ID(), db.UsageStatusFailure)
			continue
		}

		templates := message.ToTemplate(messages, req.Recipient, req.Sender)
		g.persistTemplates(ctx, provider.ID(), req, templates)
		plog.WithField("count", len(templates)).Info("gateway_provider_success")
		return &dto.GenerateResponse{
			Messages: message.ToPersonalized(templates, req.Recipient, req.Sender),
			Provider: provider.ID(),
		}, nil
	}
	if lastErr == nil {
		lastErr = errors.New("all providers skipped")
	}
	return nil, lastErr
}

func (g *Gateway) orderedProviders(ctx context.Context, logger *logrus.Entry) []llm.Provider {
	if g.opts.Policy != rotation.PolicyRoundRobin || g.cursor == nil || len(g.providers) < 2 {
		return g.providers
	}
	position, err := g.cursor.Next(ctx)
	if err != nil {
		logger.WithError(err).Warn("gateway_rotation_cursor_failed")
		return g.providers
	}
	return rotation.Rotate(g.providers, position-1)
}

func (g *Gateway) callWithRetry(ctx context.Context, logger *logrus.Entry, provider llm.Provider, prompt llm.Prompt) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		raw, err := g.attempt(ctx, provider, prompt)
		if err == nil {
			metrics.ProviderCallsTotal.WithLabelValues(provider.ID(), "success").Inc()
			return raw, nil
		}
		lastErr = err
		metrics.ProviderCallsTotal.WithLabelValues(provider.ID(), "error").Inc()

		if !llm.IsRetryable(err) || attempt == g.opts.MaxAttempts {
			break
		}
		delay := g.opts.Backoff.Delay(attempt)
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Info("gateway_provider_retry")
		if err := sleepContext(ctx, delay); err != nil {
			return "", errors.Join(lastErr, err)
		}
	}
	return "", lastErr
}

func (g *Gateway) attempt(ctx context.Context, provider llm.Provider, prompt llm.Prompt) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.opts.AttemptTimeout)
	defer cancel()

	attemptCtx, span := tracer.Start(attemptCtx, "provider.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("luvv.provider", provider.ID()))

	started := time.Now()
	raw, err := provider.Generate(attemptCtx, prompt)
	metrics.ProviderCallDuration.WithLabelValues(provider.ID()).Observe(time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
	}
	return raw, err
}

func (g *Gateway) fromSafetyNet(ctx context.Context, logger *logrus.Entry, req dto.GenerateRequest) *dto.GenerateResponse {
	if g.templates == nil {
		return nil
	}

	var texts []string
	rows, err := g.templates.ListRecentTemplates(ctx, req.Relationship, req.Tone, g.opts.CacheScanLimit)
	if err != nil {
		logger.WithError(err).Warn("gateway_safety_net_scoped_read_failed")
	}
	texts = distinctTexts(rows)
	if len(texts) == 0 {
		rows, err = g.templates.ListAnyTemplates(ctx, g.opts.CacheScanLimit)
		if err != nil {
			logger.WithError(err).Error("gateway_safety_net_read_failed")
			return nil
		}
		texts = distinctTexts(rows)
	}
	if len(texts) == 0 {
		return nil
	}

	picked := pickRandom(texts, message.MaxMessages)
	g.recordUsage(ctx, dto.ProviderTagSafetyNet, db.UsageStatusFallback)
	logger.WithField("count", len(picked)).Warn("gateway_safety_net_used")
	return &dto.GenerateResponse{
		Messages: message.ToPersonalized(picked, req.Recipient, req.Sender),
		Provider: dto.ProviderTagSafetyNet,
	}
}

// persistTemplates stores accepted templates and the success entry off the request path.
func (g *Gateway) persistTemplates(ctx context.Context, providerID string, req dto.GenerateRequest, templates []string) {
	rows := make([]db.MessageTemplate, 0, len(templates))
	for _, text := range templates {
		rows = append(rows, db.MessageTemplate{
			Relationship: req.Relationship,
			Tone:         req.Tone,
			MessageText:  text,
			Provider:     providerID,
		})
	}

	g.background(ctx, func(bgCtx context.Context) {
		if g.templates == nil {
			return
		}
		if err := g.templates.CreateTemplates(bgCtx, rows); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("templates").Inc()
			logrus.WithContext(bgCtx).WithError(newPersistenceError("templates", err)).
				WithField("provider", providerID).Error("gateway_persist_failed")
		}
	})
	g.recordUsage(ctx, providerID, db.UsageStatusSuccess)
}

func (g *Gateway) recordUsage(ctx context.Context, modelName, status string) {
	entry := &db.UsageLog{
		ModelName: modelName,
		Status:    status,
		RequestID: utils.RequestIDFromContext(ctx),
	}
	g.background(ctx, func(bgCtx context.Context) {
		if g.ledger == nil {
			return
		}
		if err := g.ledger.CreateUsageLog(bgCtx, entry); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("ledger").Inc()
			logrus.WithContext(bgCtx).WithError(newPersistenceError("usage log", err)).
				WithFields(logrus.Fields{"provider": modelName, "status": status}).Error("gateway_persist_failed")
		}
	})
}

// background runs fn detached from the request's cancellation but bounded by PersistTimeout.
func (g *Gateway) background(ctx context.Context, fn func(context.Context)) {
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opts.PersistTimeout)
		defer cancel()
		fn(bgCtx)
	}()
}

func distinctTexts(rows []db.MessageTemplate) []string {
	out := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		text := strings.TrimSpace(row.MessageText)
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

func pickRandom(texts []string, n int) []string {
	shuffled := append([]string(nil), texts...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}
