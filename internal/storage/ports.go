package storage

import (
	"context"
	"time"

	"atlas/internal/core"
)

// Kind names a mirrored collection.
type Kind string

const (
	KindOrder   Kind = "order"
	KindCapital Kind = "capital"
)

func (k Kind) Valid() bool {
	return k == KindOrder || k == KindCapital
}

type (
	// OrderFilter narrows ListOrders; zero value lists everything.
	OrderFilter struct {
		Status core.OrderStatus
	}

	CapitalFilter struct {
		Type core.CapitalType
	}

	UserFilter struct {
		Role core.Role
	}

	// PendingRecord is the minimal data needed to enqueue a sync message.
	PendingRecord struct {
		Kind      Kind
		ID        string
		Version   int64
		UpdatedAt time.Time
	}
)

// Ports implemented by every store.
type (
	OrderStore interface {
		CreateOrder(ctx context.Context, o core.Order) (core.Order, error)
		GetOrder(ctx context.Context, id string) (core.Order, error)
		// ListOrders returns orders newest order date first.
		ListOrders(ctx context.Context, f OrderFilter) ([]core.Order, error)
		UpdateOrder(ctx context.Context, o core.Order) (core.Order, error)
		DeleteOrder(ctx context.Context, id string) error
	}

	CapitalStore interface {
		CreateCapitalEntry(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error)
		GetCapitalEntry(ctx context.Context, id string) (core.CapitalEntry, error)
		// ListCapitalEntries returns entries most recently created first.
		ListCapitalEntries(ctx context.Context, f CapitalFilter) ([]core.CapitalEntry, error)
		UpdateCapitalEntry(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error)
		DeleteCapitalEntry(ctx context.Context, id string) error
	}

	UserStore interface {
		// CreateUser fails with core.ErrDuplicateEmail when the address is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		ListUsers(ctx context.Context, f UserFilter) ([]core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	// SyncTracker records which rows still need mirroring.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]PendingRecord, error)
		// SyncVersion returns the current version of a row, core.ErrNotFound if deleted.
		SyncVersion(ctx context.Context, kind Kind, id string) (int64, error)
		MarkSynced(ctx context.Context, kind Kind, id string, version int64) error
		MarkSyncError(ctx context.Context, kind Kind, id string) error
	}
)
