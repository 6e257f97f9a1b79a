package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"atlas/internal/storage"
)

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
	if config.BatchSize != 10 {
		t.Errorf("expected BatchSize 10, got %d", config.BatchSize)
	}
}

func TestSyncProcessor_Sweep(t *testing.T) {
	tracker := &fakeTracker{pending: []storage.PendingRecord{
		{Kind: storage.KindOrder, ID: "o1", Version: 2},
		{Kind: storage.KindCapital, ID: "c1", Version: 1},
		{Kind: storage.KindOrder, ID: "o2", Version: 5},
	}}
	pub := &fakePublisher{}
	processor := NewSyncProcessor(tracker, pub, SyncProcessorConfig{PollInterval: time.Minute, BatchSize: 2})

	sent := processor.Sweep(context.Background())

	if sent != 2 {
		t.Fatalf("expected 2 records republished, got %d", sent)
	}
	if len(tracker.limits) != 1 || tracker.limits[0] != 2 {
		t.Errorf("expected PendingSync called once with limit 2, got %v", tracker.limits)
	}
	want := []published{{storage.KindOrder, "o1"}, {storage.KindCapital, "c1"}}
	got := pub.messages()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSyncProcessor_SweepErrors(t *testing.T) {
	t.Run("tracker failure", func(t *testing.T) {
		processor := NewSyncProcessor(&fakeTracker{err: errors.New("db locked")}, &fakePublisher{}, DefaultSyncProcessorConfig())
		if sent := processor.Sweep(context.Background()); sent != 0 {
			t.Errorf("expected 0, got %d", sent)
		}
	})

	t.Run("publisher failure", func(t *testing.T) {
		tracker := &fakeTracker{pending: []storage.PendingRecord{{Kind: storage.KindOrder, ID: "o1"}}}
		processor := NewSyncProcessor(tracker, &fakePublisher{err: errors.New("circuit breaker is open")}, DefaultSyncProcessorConfig())
		if sent := processor.Sweep(context.Background()); sent != 0 {
			t.Errorf("expected 0, got %d", sent)
		}
	})
}

func TestSyncProcessor_IsRunning(t *testing.T) {
	processor := NewSyncProcessor(&fakeTracker{}, &fakePublisher{}, DefaultSyncProcessorConfig())

	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	processor := NewSyncProcessor(&fakeTracker{}, &fakePublisher{}, SyncProcessorConfig{PollInterval: 10 * time.Millisecond, BatchSize: 5})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := processor.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor should be running after Start")
	}
	if err := processor.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := processor.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	processor := NewSyncProcessor(&fakeTracker{}, &fakePublisher{}, DefaultSyncProcessorConfig())

	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle processor should not fail: %v", err)
	}
}
