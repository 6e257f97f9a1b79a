package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"atlas/internal/core"
	"atlas/internal/storage"
)

type CapitalPatch struct {
	Type            *core.CapitalType
	Source          *core.CapitalSource
	Amount          *core.Money
	TransactionDate *time.Time
	SubmittedBy     *string
	Notes           *string
}

func (p CapitalPatch) apply(e *core.CapitalEntry) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.TransactionDate != nil {
		e.TransactionDate = *p.TransactionDate
	}
	if p.SubmittedBy != nil {
		e.SubmittedBy = strings.TrimSpace(*p.SubmittedBy)
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}

type CapitalService struct {
	store     storage.CapitalStore
	publisher SyncPublisher
	derived   Invalidator
}

func NewCapitalService(store storage.CapitalStore, publisher SyncPublisher, derived Invalidator) *CapitalService {
	return &CapitalService{store: store, publisher: publisher, derived: derived}
}

func (s *CapitalService) Create(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error) {
	e.SubmittedBy = strings.TrimSpace(e.SubmittedBy)
	if err := e.Validate(); err != nil {
		return core.CapitalEntry{}, err
	}
	created, err := s.store.CreateCapitalEntry(ctx, e)
	if err != nil {
		return core.CapitalEntry{}, fmt.Errorf("save capital entry: %w", err)
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindCapital, created.ID)
	return created, nil
}

func (s *CapitalService) Get(ctx context.Context, id string) (core.CapitalEntry, error) {
	return s.store.GetCapitalEntry(ctx, id)
}

func (s *CapitalService) List(ctx context.Context, f storage.CapitalFilter) ([]core.CapitalEntry, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.ErrInvalidType
	}
	return s.store.ListCapitalEntries(ctx, f)
}

func (s *CapitalService) Update(ctx context.Context, id string, patch CapitalPatch) (core.CapitalEntry, error) {
	e, err := s.store.GetCapitalEntry(ctx, id)
	if err != nil {
		return core.CapitalEntry{}, err
	}
	patch.apply(&e)
	if err := e.Validate(); err != nil {
		return core.CapitalEntry{}, err
	}
	updated, err := s.store.UpdateCapitalEntry(ctx, e)
	if err != nil {
		return core.CapitalEntry{}, fmt.Errorf("update capital entry: %w", err)
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindCapital, id)
	return updated, nil
}

func (s *CapitalService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCapitalEntry(ctx, id); err != nil {
		return err
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindCapital, id)
	return nil
}
