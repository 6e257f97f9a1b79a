package memory

import (
	"context"
	"fmt"
	"sync"

	"atlas/internal/core"
	ports "atlas/internal/sheets"
	"atlas/internal/storage"
)

var _ ports.Mirror = (*Mirror)(nil)

// Mirror keeps mirrored rows in memory. It stands in for the spreadsheet
// when the worker runs without Google credentials.
type Mirror struct {
	mu   sync.Mutex
	rows map[storage.Kind]map[string][]any
}

func New() *Mirror {
	return &Mirror{rows: map[storage.Kind]map[string][]any{
		storage.KindOrder:   {},
		storage.KindCapital: {},
	}}
}

func (m *Mirror) UpsertOrder(_ context.Context, o core.Order) error {
	return m.put(storage.KindOrder, o.ID, ports.OrderRow(o))
}

func (m *Mirror) UpsertCapital(_ context.Context, e core.CapitalEntry) error {
	return m.put(storage.KindCapital, e.ID, ports.CapitalRow(e))
}

func (m *Mirror) Remove(_ context.Context, kind storage.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.rows[kind]
	if !ok {
		return fmt.Errorf("no sheet for kind %q", kind)
	}
	delete(tab, id)
	return nil
}

// Row returns a copy of the mirrored row for id.
func (m *Mirror) Row(kind storage.Kind, id string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[kind][id]
	return append([]any(nil), row...), ok
}

// Len returns the number of mirrored rows of kind.
func (m *Mirror) Len(kind storage.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[kind])
}

func (m *Mirror) put(kind storage.Kind, id string, row []any) error {
	if id == "" {
		return fmt.Errorf("cannot mirror a %s without an ID", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[kind][id] = row
	return nil
}
