package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"foreclosure-assist/internal/model"
)

const responsesPerDayWindow = 30

type AnalyticsStore interface {
	Count(ctx context.Context, metric string) (int, error)
	AssessmentsByLevel(ctx context.Context) (map[string]int, error)
	ResponsesPerDay(ctx context.Context, days int) ([]model.DailyCount, error)
}

type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// StatusCounters are the per-table group-bys shown on the dashboard; nil entries are skipped.
type StatusCounters struct {
	Responses     StatusCounter
	Comments      StatusCounter
	Subscriptions StatusCounter
	Campaigns     StatusCounter
}

type AnalyticsService struct {
	store    AnalyticsStore
	counters StatusCounters
	metrics  []string
	logger   *zap.Logger
	now      func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, counters StatusCounters, metrics []string, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		counters: counters,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Master fans out every dashboard query. A failing query only produces an Errors entry.
func (s *AnalyticsService) Master(ctx context.Context) *model.MasterAnalytics {
	out := &model.MasterAnalytics{
		Counts: make(map[string]int, len(s.metrics)),
		Errors: map[string]string{},
	}

	var mu sync.Mutex
	fail := func(name string, err error) {
		s.logger.Warn("Analytics query failed", zap.String("metric", name), zap.Error(err))
		mu.Lock()
		out.Errors[name] = "unavailable"
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range s.metrics {
		name := name
		g.Go(func() error {
			n, err := s.store.Count(gctx, name)
			if err != nil {
				fail(name, err)
				return nil
			}
			mu.Lock()
			out.Counts[name] = n
			mu.Unlock()
			return nil
		})
	}

	grouped := []struct {
		name string
		fn   func(context.Context) (map[string]int, error)
		dst  *map[string]int
	}{
		{"risk_levels", s.store.AssessmentsByLevel, &out.RiskLevels},
		{"responses_by_status", countFn(s.counters.Responses), &out.ResponsesByStatus},
		{"comments_by_status", countFn(s.counters.Comments), &out.CommentsByStatus},
		{"subscriptions_by_status", countFn(s.counters.Subscriptions), &out.SubscriptionStatus},
		{"campaigns_by_status", countFn(s.counters.Campaigns), &out.CampaignsByStatus},
	}
	for _, q := range grouped {
		q := q
		if q.fn == nil {
			continue
		}
		g.Go(func() error {
			m, err := q.fn(gctx)
			if err != nil {
				fail(q.name, err)
				return nil
			}
			mu.Lock()
			*q.dst = m
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		days, err := s.store.ResponsesPerDay(gctx, responsesPerDayWindow)
		if err != nil {
			fail("responses_per_day", err)
			return nil
		}
		mu.Lock()
		out.ResponsesPerDay = days
		mu.Unlock()
		return nil
	})

	_ = g.Wait()

	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	out.GeneratedAt = s.now().UTC().Format(time.RFC3339)
	return out
}

func countFn(c StatusCounter) func(context.Context) (map[string]int, error) {
	if c == nil {
		return nil
	}
	return c.CountByStatus
}
