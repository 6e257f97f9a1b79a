package sheets

import (
	"context"

	"atlas/internal/core"
	"atlas/internal/storage"
)

// Mirror keeps a spreadsheet copy of orders and capital entries. Rows are
// keyed by record ID in the first column; upserts replace the whole row.
type Mirror interface {
	UpsertOrder(ctx context.Context, o core.Order) error
	UpsertCapital(ctx context.Context, e core.CapitalEntry) error
	// Remove deletes the row for id. A missing row is not an error.
	Remove(ctx context.Context, kind storage.Kind, id string) error
}
