package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"luvv/internal/entity/common"
	"luvv/internal/entity/converter"
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
	"luvv/internal/llm"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const dailyHistoryDays = 7

// StatsStore is the read side used by the admin dashboard.
type StatsStore interface {
	CreateSiteVisit(ctx context.Context) error
	CountSiteVisits(ctx context.Context, from, to time.Time) (int64, error)
	CountTemplates(ctx context.Context) (int64, error)
	CountTemplatesBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountTemplatesByRelationship(ctx context.Context) ([]dto.RelationshipCount, error)
	CountUsageSince(ctx context.Context, modelName, status string, since time.Time) (int64, error)
	CountUsageByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)
	ListUsageLogs(ctx context.Context, params *dto.UsageLogQuery) ([]db.UsageLog, *common.Meta, error)
}

// StatsService builds dashboard figures and records visits.
type StatsService struct {
	store     StatsStore
	providers []llm.Provider
	limit     func(driver string) int
	loc       *time.Location
	now       func() time.Time
}

func NewStatsService(store StatsStore, providers []llm.Provider, limit func(driver string) int, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	if limit == nil {
		limit = func(string) int { return 0 }
	}
	return &StatsService{store: store, providers: providers, limit: limit, loc: loc, now: time.Now}
}

// RecordVisit appends one site visit.
func (s *StatsService) RecordVisit(ctx context.Context) error {
	if err := s.store.CreateSiteVisit(ctx); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// ListUsageLogs pages through the usage ledger.
func (s *StatsService) ListUsageLogs(ctx context.Context, query *dto.UsageLogQuery) (*dto.UsageLogListResponse, error) {
	if query == nil {
		query = &dto.UsageLogQuery{}
	}
	records, meta, err := s.store.ListUsageLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return &dto.UsageLogListResponse{Records: converter.UsageLogsToItems(records), Meta: meta}, nil
}

type dashboardWindows struct {
	now       time.Time
	today     time.Time
	tomorrow  time.Time
	yesterday time.Time
	week      time.Time
	lastWeek  time.Time
	month     time.Time
}

func windowsAt(now time.Time, loc *time.Location) dashboardWindows {
	today := StartOfDay(now, loc)
	local := now.In(loc)
	return dashboardWindows{
		now:       now,
		today:     today,
		tomorrow:  today.AddDate(0, 0, 1),
		yesterday: today.AddDate(0, 0, -1),
		week:      today.AddDate(0, 0, -7),
		lastWeek:  today.AddDate(0, 0, -14),
		month:     time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc),
	}
}

// Dashboard runs every dashboard query concurrently and assembles the result.
func (s *StatsService) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	started := time.Now()
	w := windowsAt(s.now(), s.loc)

	var (
		stats          dto.DashboardStats
		successesToday int64
		daily          = make([]dto.DailyCount, dailyHistoryDays)
		health         = make([]dto.ProviderHealth, len(s.providers))
	)

	g, gctx := errgroup.WithContext(ctx)
	visit := func(dst *int64, from, to time.Time) {
		g.Go(func() error {
			n, err := s.store.CountSiteVisits(gctx, from, to)
			*dst = n
			return err
		})
	}
	visit(&stats.Visits.Today, w.today, w.tomorrow)
	visit(&stats.Visits.Yesterday, w.yesterday, w.today)
	visit(&stats.Visits.Week, w.week, w.tomorrow)
	visit(&stats.Visits.LastWeek, w.lastWeek, w.week)
	visit(&stats.Visits.Month, w.month, w.tomorrow)

	g.Go(func() error {
		n, err := s.store.CountTemplates(gctx)
		stats.Generations.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountTemplatesBetween(gctx, w.today, w.tomorrow)
		stats.Generations.Today = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountTemplatesBetween(gctx, w.yesterday, w.today)
		stats.Generations.Yesterday = n
		return err
	})
	g.Go(func() error {
		rows, err := s.store.CountTemplatesByRelationship(gctx)
		stats.Generations.ByRelationship = rows
		return err
	})
	for i := 0; i < dailyHistoryDays; i++ {
		day := w.today.AddDate(0, 0, i-dailyHistoryDays+1)
		g.Go(func() error {
			n, err := s.store.CountTemplatesBetween(gctx, day, day.AddDate(0, 0, 1))
			daily[i] = dto.DailyCount{Date: day.Format(time.DateOnly), Count: n}
			return err
		})
	}

	g.Go(func() error {
		n, err := s.store.CountUsageByStatusSince(gctx, db.UsageStatusSuccess, w.today)
		successesToday = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountUsageByStatusSince(gctx, db.UsageStatusFallback, w.today)
		stats.Fallbacks = n
		return err
	})
	for i, provider := range s.providers {
		health[i] = dto.ProviderHealth{
			Provider: provider.ID(),
			Driver:   provider.Name(),
			Limit:    s.limit(provider.Name()),
		}
		g.Go(func() error {
			n, err := s.store.CountUsageSince(gctx, provider.ID(), db.UsageStatusSuccess, w.today)
			health[i].Successes = n
			return err
		})
		g.Go(func() error {
			n, err := s.store.CountUsageSince(gctx, provider.ID(), db.UsageStatusFailure, w.today)
			health[i].Failures = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logrus.WithContext(ctx).WithError(err).Error("dashboard_stats_failed")
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	if stats.Generations.ByRelationship == nil {
		stats.Generations.ByRelationship = []dto.RelationshipCount{}
	}
	stats.Generations.Daily = daily

	capacity := 0
	for i := range health {
		health[i].Exhausted = health[i].Limit > 0 && health[i].Successes >= int64(health[i].Limit)
		capacity += health[i].Limit
	}
	stats.Providers = health
	stats.LoadPercent = loadPercent(successesToday, capacity)
	stats.AIStatus = aiStatus(stats.Visits.Today, health)
	stats.QueryLatencyMs = time.Since(started).Milliseconds()
	return &stats, nil
}

func loadPercent(used int64, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	pct := float64(used) / float64(capacity) * 100
	return math.Min(math.Round(pct*10)/10, 100)
}

func aiStatus(visitsToday int64, health []dto.ProviderHealth) string {
	if len(health) == 0 {
		return dto.AIStatusDegraded
	}
	var successes, failures int64
	allExhausted := true
	for _, h := range health {
		successes += h.Successes
		failures += h.Failures
		if !h.Exhausted {
			allExhausted = false
		}
	}
	if allExhausted || failures > successes {
		return dto.AIStatusDegraded
	}
	if visitsToday > 0 {
		return dto.AIStatusOperational
	}
	return dto.AIStatusIdle
}
