package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"luvv/internal/entity/common"
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
	"luvv/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countCall struct {
	from time.Time
	to   time.Time
}

type fakeStatsStore struct {
	mu         sync.Mutex
	visitCalls []countCall
	visits     int64

	templateTotal  int64
	byRelationship []dto.RelationshipCount

	usage       map[string]int64
	statusTotal map[string]int64
	failWith    error
	logs        []db.UsageLog
}

func (f *fakeStatsStore) CreateSiteVisit(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits++
	return f.failWith
}

func (f *fakeStatsStore) CountSiteVisits(_ context.Context, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitCalls = append(f.visitCalls, countCall{from: from, to: to})
	return int64(to.Sub(from) / (24 * time.Hour)), f.failWith
}

func (f *fakeStatsStore) CountTemplates(context.Context) (int64, error) {
	return f.templateTotal, nil
}

func (f *fakeStatsStore) CountTemplatesBetween(_ context.Context, from, _ time.Time) (int64, error) {
	return int64(from.Day()), nil
}

func (f *fakeStatsStore) CountTemplatesByRelationship(context.Context) ([]dto.RelationshipCount, error) {
	return f.byRelationship, nil
}

func (f *fakeStatsStore) CountUsageSince(_ context.Context, modelName, status string, _ time.Time) (int64, error) {
	return f.usage[modelName+"/"+status], nil
}

func (f *fakeStatsStore) CountUsageByStatusSince(_ context.Context, status string, _ time.Time) (int64, error) {
	return f.statusTotal[status], nil
}

func (f *fakeStatsStore) ListUsageLogs(_ context.Context, params *dto.UsageLogQuery) ([]db.UsageLog, *common.Meta, error) {
	return f.logs, &common.Meta{Page: params.Page, PageSize: params.PageSize, Total: int64(len(f.logs))}, nil
}

func TestDashboard(t *testing.T) {
	store := &fakeStatsStore{
		templateTotal:  42,
		byRelationship: []dto.RelationshipCount{{Relationship: dto.RelationshipSpouse, Count: 30}},
		usage: map[string]int64{
			"a/" + db.UsageStatusSuccess: 2,
			"a/" + db.UsageStatusFailure: 1,
			"b/" + db.UsageStatusSuccess: 4,
		},
		statusTotal: map[string]int64{
			db.UsageStatusSuccess:  6,
			db.UsageStatusFallback: 3,
		},
	}
	providers := []llm.Provider{
		&fakeProvider{id: "a", name: "gemini"},
		&fakeProvider{id: "b", name: "groq"},
	}
	limits := map[string]int{"gemini": 10, "groq": 4}
	svc := NewStatsService(store, providers, func(driver string) int { return limits[driver] }, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC) }

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	// the fake answers visit counts with the window length in days
	assert.Equal(t, dto.VisitStats{Today: 1, Yesterday: 1, Week: 8, LastWeek: 7, Month: 14}, stats.Visits)
	assert.Equal(t, int64(42), stats.Generations.Total)
	assert.Equal(t, int64(14), stats.Generations.Today)
	assert.Equal(t, int64(13), stats.Generations.Yesterday)
	assert.Equal(t, stats.Generations.ByRelationship, store.byRelationship)
	require.Len(t, stats.Generations.Daily, 7)
	assert.Equal(t, dto.DailyCount{Date: "2026-02-08", Count: 8}, stats.Generations.Daily[0])
	assert.Equal(t, "2026-02-14", stats.Generations.Daily[6].Date)

	require.Len(t, stats.Providers, 2)
	assert.Equal(t, dto.ProviderHealth{Provider: "a", Driver: "gemini", Successes: 2, Failures: 1, Limit: 10}, stats.Providers[0])
	assert.Equal(t, dto.ProviderHealth{Provider: "b", Driver: "groq", Successes: 4, Limit: 4, Exhausted: true}, stats.Providers[1])
	assert.Equal(t, int64(3), stats.Fallbacks)
	assert.InDelta(t, 42.9, stats.LoadPercent, 0.001)
	assert.Equal(t, dto.AIStatusOperational, stats.AIStatus)
}

func TestDashboardPropagatesErrors(t *testing.T) {
	store := &fakeStatsStore{failWith: errors.New("db down")}
	svc := NewStatsService(store, nil, nil, nil)

	_, err := svc.Dashboard(context.Background())
	assert.Error(t, err)
}

func TestAIStatus(t *testing.T) {
	healthy := []dto.ProviderHealth{{Successes: 3, Failures: 1, Limit: 10}}
	tests := []struct {
		name   string
		visits int64
		health []dto.ProviderHealth
		want   string
	}{
		{name: "busy", visits: 5, health: healthy, want: dto.AIStatusOperational},
		{name: "quiet", visits: 0, health: healthy, want: dto.AIStatusIdle},
		{name: "no providers", visits: 5, want: dto.AIStatusDegraded},
		{name: "failing", visits: 5, health: []dto.ProviderHealth{{Successes: 1, Failures: 4}}, want: dto.AIStatusDegraded},
		{name: "all exhausted", visits: 5, health: []dto.ProviderHealth{{Successes: 10, Limit: 10, Exhausted: true}}, want: dto.AIStatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aiStatus(tt.visits, tt.health))
		})
	}
}

func TestLoadPercent(t *testing.T) {
	assert.Equal(t, 0.0, loadPercent(10, 0))
	assert.Equal(t, 50.0, loadPercent(125, 250))
	assert.Equal(t, 100.0, loadPercent(400, 250))
}

func TestRecordVisitAndListUsageLogs(t *testing.T) {
	store := &fakeStatsStore{logs: []db.UsageLog{{ID: 7, ModelName: "a", Status: db.UsageStatusSuccess}}}
	svc := NewStatsService(store, nil, nil, nil)

	require.NoError(t, svc.RecordVisit(context.Background()))
	assert.Equal(t, int64(1), store.visits)

	resp, err := svc.ListUsageLogs(context.Background(), &dto.UsageLogQuery{BaseParams: common.BaseParams{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, uint(7), resp.Records[0].ID)
	assert.Equal(t, int64(1), resp.Meta.Total)
}
