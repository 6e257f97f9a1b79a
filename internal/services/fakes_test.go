package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"atlas/internal/ai"
	"atlas/internal/core"
	"atlas/internal/storage"
)

type published struct {
	kind storage.Kind
	id   string
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishSync(_ context.Context, kind storage.Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{kind: kind, id: id})
	return nil
}

func (f *fakePublisher) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	last    ai.Request
	resp    ai.Response
	err     error
	ctxErr  error
	release chan struct{}
	started chan struct{}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req ai.Request) (ai.Response, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return f.resp, f.err
}

type fakeTracker struct {
	pending []storage.PendingRecord
	err     error
	limits  []int
}

func (f *fakeTracker) PendingSync(_ context.Context, limit int) ([]storage.PendingRecord, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeTracker) SyncVersion(context.Context, storage.Kind, string) (int64, error) {
	return 0, errors.New("not used")
}

func (f *fakeTracker) MarkSynced(context.Context, storage.Kind, string, int64) error {
	return nil
}

func (f *fakeTracker) MarkSyncError(context.Context, storage.Kind, string) error {
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newOrder(ref string, status core.OrderStatus, price, cost, shipping, fees int64, when time.Time) core.Order {
	return core.Order{
		ExternalID: ref,
		OrderDate:  when,
		Status:     status,
		Price:      core.Money{Cents: price},
		Cost:       core.Money{Cents: cost},
		Shipping:   core.Money{Cents: shipping},
		Fees:       core.Money{Cents: fees},
	}
}
