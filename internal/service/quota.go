package service

import (
	"context"
	"time"

	"luvv/internal/entity/db"
	"luvv/internal/llm"

	"github.com/sirupsen/logrus"
)

// UsageCounter counts ledger entries for one provider since a point in time.
type UsageCounter interface {
	CountUsageSince(ctx context.Context, modelName, status string, since time.Time) (int64, error)
}

// QuotaChecker admits a provider while its successes for the current calendar day stay
// below the configured ceiling. Reads are not synchronised with writers, so a provider
// may go slightly past its ceiling under concurrent load.
type QuotaChecker struct {
	ledger UsageCounter
	limit  func(driver string) int
	loc    *time.Location
	now    func() time.Time
}

func NewQuotaChecker(ledger UsageCounter, limit func(driver string) int, loc *time.Location) *QuotaChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaChecker{ledger: ledger, limit: limit, loc: loc, now: time.Now}
}

// Allow reports whether provider may be called. Ledger read failures admit the provider.
func (q *QuotaChecker) Allow(ctx context.Context, provider llm.Provider) (bool, int64) {
	if q == nil || q.ledger == nil || q.limit == nil {
		return true, 0
	}
	limit := q.limit(provider.Name())
	if limit <= 0 {
		return true, 0
	}

	used, err := q.ledger.CountUsageSince(ctx, provider.ID(), db.UsageStatusSuccess, StartOfDay(q.now(), q.loc))
	if err != nil {
		logrus.WithContext(ctx).WithError(err).WithField("provider", provider.ID()).Warn("quota_check_failed_open")
		return true, 0
	}
	return used < int64(limit), used
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
