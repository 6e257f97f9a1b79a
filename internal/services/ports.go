package services

import (
	"context"
	"log/slog"

	"atlas/internal/storage"
)

// SyncPublisher announces that a mirrored record changed.
type SyncPublisher interface {
	PublishSync(ctx context.Context, kind storage.Kind, id string) error
}

// Invalidator drops derived data after a write.
type Invalidator interface {
	Invalidate()
}

// publishSync never fails the caller: the row is already stored locally and
// the periodic sweep republishes anything left pending.
func publishSync(ctx context.Context, p SyncPublisher, kind storage.Kind, id string) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping sync message", "kind", kind, "id", id)
		return
	}
	if err := p.PublishSync(ctx, kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "kind", kind, "id", id, "error", err)
	}
}

func invalidate(inv Invalidator) {
	if inv != nil {
		inv.Invalidate()
	}
}
