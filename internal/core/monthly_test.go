package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datedOrder(status OrderStatus, date time.Time, price int64) Order {
	return Order{ExternalID: "ORD", Status: status, OrderDate: date, Price: Money{Cents: price}}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestMonthlyRevenueSingleMonth(t *testing.T) {
	got := MonthlyRevenue([]Order{
		datedOrder(StatusDelivered, day(2024, time.March, 3), 10000),
		datedOrder(StatusPending, day(2024, time.March, 28), 5000),
	})
	assert.Equal(t, []MonthRevenue{{Month: "Mar", Revenue: Money{Cents: 15000}}}, got)
}

func TestMonthlyRevenueCalendarOrderRegardlessOfInput(t *testing.T) {
	got := MonthlyRevenue([]Order{
		datedOrder(StatusShipped, day(2024, time.December, 1), 100),
		datedOrder(StatusShipped, day(2024, time.February, 1), 200),
		datedOrder(StatusShipped, day(2024, time.July, 1), 300),
		datedOrder(StatusShipped, day(2024, time.January, 1), 400),
	})

	var months []string
	for _, m := range got {
		months = append(months, m.Month)
	}
	assert.Equal(t, []string{"Jan", "Feb", "Jul", "Dec"}, months)
}

func TestMonthlyRevenueCollapsesYears(t *testing.T) {
	got := MonthlyRevenue([]Order{
		datedOrder(StatusDelivered, day(2023, time.May, 10), 1000),
		datedOrder(StatusDelivered, day(2024, time.May, 10), 2500),
	})
	assert.Equal(t, []MonthRevenue{{Month: "May", Revenue: Money{Cents: 3500}}}, got)
}

func TestMonthlyRevenueSkipsCancelledAndUndatedOrders(t *testing.T) {
	got := MonthlyRevenue([]Order{
		datedOrder(StatusCancelled, day(2024, time.April, 1), 9999),
		datedOrder(StatusDelivered, time.Time{}, 5000),
		datedOrder(StatusDelivered, day(2024, time.June, 1), 700),
	})
	assert.Equal(t, []MonthRevenue{{Month: "Jun", Revenue: Money{Cents: 700}}}, got)
}

func TestMonthlyRevenueOmitsZeroMonths(t *testing.T) {
	got := MonthlyRevenue([]Order{
		datedOrder(StatusPending, day(2024, time.August, 1), 0),
		datedOrder(StatusPending, day(2024, time.September, 1), 100),
	})
	for _, m := range got {
		assert.Positive(t, m.Revenue.Cents)
	}
	assert.Len(t, got, 1)
}

func TestMonthlyRevenueEmptyAndIdempotent(t *testing.T) {
	assert.Empty(t, MonthlyRevenue(nil))

	orders := []Order{
		datedOrder(StatusDelivered, day(2024, time.October, 1), 1200),
		datedOrder(StatusShipped, day(2024, time.November, 1), 800),
	}
	assert.Equal(t, MonthlyRevenue(orders), MonthlyRevenue(orders))
}
