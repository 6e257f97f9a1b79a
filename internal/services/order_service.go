package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"atlas/internal/core"
	"atlas/internal/storage"
)

// OrderPatch carries a partial update; nil fields are left unchanged.
type OrderPatch struct {
	ExternalID     *string
	OrderDate      *time.Time
	Status         *core.OrderStatus
	Price          *core.Money
	Cost           *core.Money
	Shipping       *core.Money
	Fees           *core.Money
	TrackingNumber *string
	Notes          *string
}

func (p OrderPatch) apply(o *core.Order) {
	if p.ExternalID != nil {
		o.ExternalID = strings.TrimSpace(*p.ExternalID)
	}
	if p.OrderDate != nil {
		o.OrderDate = *p.OrderDate
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	if p.Cost != nil {
		o.Cost = *p.Cost
	}
	if p.Shipping != nil {
		o.Shipping = *p.Shipping
	}
	if p.Fees != nil {
		o.Fees = *p.Fees
	}
	if p.TrackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*p.TrackingNumber)
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}

// OrderService validates and stores orders, then announces the change.
type OrderService struct {
	store     storage.OrderStore
	publisher SyncPublisher
	derived   Invalidator
}

func NewOrderService(store storage.OrderStore, publisher SyncPublisher, derived Invalidator) *OrderService {
	return &OrderService{store: store, publisher: publisher, derived: derived}
}

func (s *OrderService) Create(ctx context.Context, o core.Order) (core.Order, error) {
	o.ExternalID = strings.TrimSpace(o.ExternalID)
	o.TrackingNumber = strings.TrimSpace(o.TrackingNumber)
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	created, err := s.store.CreateOrder(ctx, o)
	if err != nil {
		return core.Order{}, fmt.Errorf("save order: %w", err)
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindOrder, created.ID)
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (core.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f storage.OrderFilter) ([]core.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, core.ErrInvalidStatus
	}
	return s.store.ListOrders(ctx, f)
}

func (s *OrderService) Update(ctx context.Context, id string, patch OrderPatch) (core.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return core.Order{}, err
	}
	patch.apply(&o)
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	updated, err := s.store.UpdateOrder(ctx, o)
	if err != nil {
		return core.Order{}, fmt.Errorf("update order: %w", err)
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindOrder, id)
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	invalidate(s.derived)
	publishSync(ctx, s.publisher, storage.KindOrder, id)
	return nil
}
