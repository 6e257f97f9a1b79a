package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"atlas/internal/amqp"
	"atlas/internal/core"
	"atlas/internal/sheets"
	"atlas/internal/storage"
)

// SyncWorker mirrors orders and capital entries from the database to the
// spreadsheet. Messages carry only identities; the current row is always
// reloaded so stale or duplicate messages converge on the latest state.
type SyncWorker struct {
	orders  storage.OrderStore
	capital storage.CapitalStore
	tracker storage.SyncTracker
	mirror  sheets.Mirror
}

func NewSyncWorker(orders storage.OrderStore, capital storage.CapitalStore, tracker storage.SyncTracker, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{
		orders:  orders,
		capital: capital,
		tracker: tracker,
		mirror:  mirror,
	}
}

// HandleSyncMessage processes a single sync message from AMQP. Storage
// failures are returned so the message is requeued; mirror failures are
// recorded on the row and left to the periodic sweep.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"kind", msg.Kind,
		"id", msg.ID,
		"published_at", msg.Timestamp)

	return w.syncRecord(ctx, msg.Kind, msg.ID)
}

// StartupSyncCheck mirrors rows left pending while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context, limit int) error {
	pending, err := w.tracker.PendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending records for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending records on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, rec := range pending {
		if err := w.syncRecord(ctx, rec.Kind, rec.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record during startup",
				"kind", rec.Kind, "id", rec.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) syncRecord(ctx context.Context, kind storage.Kind, id string) error {
	// Read the version before the row so a concurrent update is never acknowledged.
	version, err := w.tracker.SyncVersion(ctx, kind, id)
	if errors.Is(err, core.ErrNotFound) {
		return w.remove(ctx, kind, id)
	}
	if err != nil {
		return fmt.Errorf("get sync version: %w", err)
	}

	var mirrorErr error
	switch kind {
	case storage.KindOrder:
		o, err := w.orders.GetOrder(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			return w.remove(ctx, kind, id)
		}
		if err != nil {
			return fmt.Errorf("get order from storage: %w", err)
		}
		mirrorErr = w.mirror.UpsertOrder(ctx, o)
	case storage.KindCapital:
		e, err := w.capital.GetCapitalEntry(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			return w.remove(ctx, kind, id)
		}
		if err != nil {
			return fmt.Errorf("get capital entry from storage: %w", err)
		}
		mirrorErr = w.mirror.UpsertCapital(ctx, e)
	default:
		return fmt.Errorf("unsupported record kind %q", kind)
	}

	if mirrorErr != nil {
		slog.ErrorContext(ctx, "Failed to mirror record",
			"kind", kind, "id", id, "version", version, "error", mirrorErr)
		if err := w.tracker.MarkSyncError(ctx, kind, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "kind", kind, "id", id, "error", err)
		}
		return nil
	}

	if err := w.tracker.MarkSynced(ctx, kind, id, version); err != nil {
		// The mirror already holds the row; the next sweep rewrites it harmlessly.
		slog.ErrorContext(ctx, "Failed to mark as synced", "kind", kind, "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored record",
		"kind", kind,
		"id", id,
		"version", version)
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, kind storage.Kind, id string) error {
	if err := w.mirror.Remove(ctx, kind, id); err != nil {
		return fmt.Errorf("remove %s %s from mirror: %w", kind, id, err)
	}
	slog.InfoContext(ctx, "Removed deleted record from mirror", "kind", kind, "id", id)
	return nil
}
