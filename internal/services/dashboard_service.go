package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"atlas/internal/ai"
	"atlas/internal/cache"
	"atlas/internal/core"
	"atlas/internal/storage"
)

const overviewKey = "overview"

// SummaryPeriod is the free-text range shown in the generated summary.
type SummaryPeriod struct {
	StartDate string
	EndDate   string
}

// DashboardService derives every dashboard figure from one consistent
// snapshot of orders and capital entries.
type DashboardService struct {
	orders     storage.OrderStore
	capital    storage.CapitalStore
	cache      cache.Cache[core.Overview]
	summarizer ai.Summarizer
	guard      *ai.Guard
	// generation changes on every Invalidate so a rebuild racing a write is not cached.
	generation atomic.Uint64
}

// NewDashboardService wires the dashboard. summarizer may be nil, in which
// case summary requests fail with ai.ErrSummaryUnavailable.
func NewDashboardService(orders storage.OrderStore, capital storage.CapitalStore, c cache.Cache[core.Overview], summarizer ai.Summarizer) *DashboardService {
	return &DashboardService{
		orders:     orders,
		capital:    capital,
		cache:      c,
		summarizer: summarizer,
		guard:      ai.NewGuard(),
	}
}

// Invalidate implements Invalidator.
func (s *DashboardService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Overview returns the cached overview or rebuilds it from a fresh snapshot.
func (s *DashboardService) Overview(ctx context.Context) (core.Overview, error) {
	if s.cache != nil {
		if ov, ok := s.cache.Get(overviewKey); ok {
			return ov, nil
		}
	}

	gen := s.generation.Load()
	var (
		orders  []core.Order
		entries []core.CapitalEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.ListOrders(gctx, storage.OrderFilter{})
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.capital.ListCapitalEntries(gctx, storage.CapitalFilter{})
		if err != nil {
			return fmt.Errorf("load capital entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}

	ov := core.BuildOverview(orders, entries)
	if s.cache != nil && s.generation.Load() == gen {
		s.cache.Set(overviewKey, ov)
	}
	slog.DebugContext(ctx, "Dashboard overview rebuilt",
		"orders", ov.Orders.TotalOrders,
		"months", len(ov.Monthly),
		"capital_entries", len(entries))
	return ov, nil
}

func (s *DashboardService) CapitalSummary(ctx context.Context) (core.CapitalSummary, error) {
	ov, err := s.Overview(ctx)
	if err != nil {
		return core.CapitalSummary{}, err
	}
	return ov.Capital, nil
}

// RevenueChart renders the monthly revenue series as a PNG. It returns
// ErrNoRevenue when there is nothing to draw.
func (s *DashboardService) RevenueChart(ctx context.Context) ([]byte, error) {
	ov, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return RenderRevenueChart(ov.Monthly)
}

// GenerateSummary asks the summarizer for prose about the current order
// metrics. Only one request runs at a time; a concurrent call fails with
// ai.ErrInFlight. Every other failure is ai.ErrSummaryUnavailable.
func (s *DashboardService) GenerateSummary(ctx context.Context, period SummaryPeriod) (ai.Response, error) {
	if s.summarizer == nil {
		return ai.Response{}, ai.ErrSummaryUnavailable
	}
	ov, err := s.Overview(ctx)
	if err != nil {
		return ai.Response{}, ai.Unavailable(err)
	}
	req := ai.NewRequest(ov.Orders, period.StartDate, period.EndDate)

	// The model call outlives a disconnected caller so its result still
	// lands in SummaryStatus.
	return s.guard.Run(context.WithoutCancel(ctx), overviewKey, func(ctx context.Context) (ai.Response, error) {
		resp, err := s.summarizer.Summarize(ctx, req)
		if err != nil {
			return ai.Response{}, ai.Unavailable(err)
		}
		return resp, nil
	})
}

// SummaryStatus reports the state of the most recent summary request.
func (s *DashboardService) SummaryStatus() ai.Status {
	return s.guard.Status(overviewKey)
}
