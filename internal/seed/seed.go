// Package seed fills an empty database with sample users and orders.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atlas/internal/core"
	"atlas/internal/services"
	"atlas/internal/storage"
)

// ErrNotEmpty is returned when users or orders already exist.
var ErrNotEmpty = errors.New("database already contains data")

type (
	OrderWriter interface {
		Create(ctx context.Context, o core.Order) (core.Order, error)
		List(ctx context.Context, f storage.OrderFilter) ([]core.Order, error)
	}

	UserWriter interface {
		Create(ctx context.Context, u core.User) (core.User, error)
		List(ctx context.Context, f storage.UserFilter) ([]core.User, error)
	}

	// Result counts what was inserted.
	Result struct {
		Users  int
		Orders int
	}
)

var (
	_ OrderWriter = (*services.OrderService)(nil)
	_ UserWriter  = (*services.UserService)(nil)
)

// SampleUsers are the accounts inserted by Run.
func SampleUsers() []core.User {
	return []core.User{
		{Name: "Admin User", Email: "admin@etsyatlas.com", Role: core.RoleAdmin},
		{Name: "Sophia Williams", Email: "sophia.w@example.com", Role: core.RoleUser},
	}
}

// SampleOrders are the orders inserted by Run, without dates.
func SampleOrders() []core.Order {
	return []core.Order{
		{
			ExternalID: "ORD12345", Status: core.StatusDelivered,
			Price: cents(12050), Cost: cents(4500), Shipping: cents(1250), Fees: cents(300),
			TrackingNumber: "1Z999AA10123456789",
			Notes:          "Customer requested gift wrapping.",
		},
		{
			ExternalID: "ORD54321", Status: core.StatusShipped,
			Price: cents(7500), Cost: cents(2500), Shipping: cents(1000), Fees: cents(150),
			TrackingNumber: "1Z999AA10198765432",
		},
		{
			ExternalID: "ORD67890", Status: core.StatusPending,
			Price: cents(25000), Cost: cents(11000), Shipping: cents(2500), Fees: cents(1000),
		},
		{
			ExternalID: "ORD09876", Status: core.StatusCancelled,
			Price: cents(5000), Cost: cents(2000), Shipping: cents(800),
			Notes: "Customer cancelled, accidental purchase.",
		},
	}
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

// Run inserts the sample data only when both users and orders are empty.
// Order i is dated i weeks before now.
func Run(ctx context.Context, users UserWriter, orders OrderWriter, now time.Time) (Result, error) {
	existingUsers, err := users.List(ctx, storage.UserFilter{})
	if err != nil {
		return Result{}, fmt.Errorf("list users: %w", err)
	}
	existingOrders, err := orders.List(ctx, storage.OrderFilter{})
	if err != nil {
		return Result{}, fmt.Errorf("list orders: %w", err)
	}
	if len(existingUsers) > 0 || len(existingOrders) > 0 {
		return Result{}, ErrNotEmpty
	}

	var res Result
	for _, u := range SampleUsers() {
		if _, err := users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		res.Users++
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i, o := range SampleOrders() {
		o.OrderDate = day.AddDate(0, 0, -7*i)
		if _, err := orders.Create(ctx, o); err != nil {
			return res, fmt.Errorf("create order %s: %w", o.ExternalID, err)
		}
		res.Orders++
	}
	return res, nil
}
