package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func order(status OrderStatus, price, cost, shipping, fees int64) Order {
	return Order{
		ExternalID: "ORD",
		OrderDate:  time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
		Status:     status,
		Price:      Money{Cents: price},
		Cost:       Money{Cents: cost},
		Shipping:   Money{Cents: shipping},
		Fees:       Money{Cents: fees},
	}
}

func sampleOrders() []Order {
	return []Order{
		order(StatusDelivered, 12050, 4500, 1250, 300),
		order(StatusShipped, 7500, 2500, 1000, 150),
		order(StatusPending, 25000, 11000, 2500, 1000),
		order(StatusCancelled, 5000, 2000, 800, 0),
	}
}

func TestSummarizeSampleOrders(t *testing.T) {
	s := Summarize(sampleOrders())

	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, Money{Cents: 44550}, s.TotalRevenue)
	assert.Equal(t, Money{Cents: 23500}, s.TotalExpenses)
	assert.Equal(t, Money{Cents: 21050}, s.TotalProfit)
	assert.InDelta(t, 47.25, s.ProfitMargin, 0.01)
}

func TestSummarizeIgnoresCancelledOrders(t *testing.T) {
	base := Summarize(sampleOrders())

	for _, extra := range []Order{
		order(StatusCancelled, 1, 0, 0, 0),
		order(StatusCancelled, 999999, 5, 5, 5),
		order(StatusCancelled, 0, 123456, 0, 0),
	} {
		got := Summarize(append(sampleOrders(), extra))
		assert.Equal(t, base, got)
	}
}

func TestSummarizeZeroRevenueHasZeroMargin(t *testing.T) {
	cases := [][]Order{
		nil,
		{},
		{order(StatusCancelled, 5000, 100, 0, 0)},
		{order(StatusPending, 0, 1000, 500, 20)},
	}
	for _, orders := range cases {
		s := Summarize(orders)
		assert.Zero(t, s.ProfitMargin)
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	orders := sampleOrders()
	before := append([]Order(nil), orders...)
	Summarize(orders)
	assert.Equal(t, before, orders)
}

func TestComputeOrderProfit(t *testing.T) {
	o := order(StatusDelivered, 12050, 4500, 1250, 300)
	assert.Equal(t, Money{Cents: 6000}, ComputeOrderProfit(o))

	// defined regardless of status
	o.Status = StatusCancelled
	assert.Equal(t, Money{Cents: 6000}, ComputeOrderProfit(o))

	// losses are negative
	assert.Equal(t, Money{Cents: -500}, ComputeOrderProfit(order(StatusPending, 1000, 1000, 400, 100)))
}

func TestComputeOrderProfitIsLinearInCosts(t *testing.T) {
	base := order(StatusShipped, 7500, 2500, 1000, 150)
	baseProfit := ComputeOrderProfit(base)
	const delta = 375

	bumps := []func(o *Order){
		func(o *Order) { o.Cost.Cents += delta },
		func(o *Order) { o.Shipping.Cents += delta },
		func(o *Order) { o.Fees.Cents += delta },
	}
	for _, bump := range bumps {
		o := base
		bump(&o)
		assert.Equal(t, baseProfit.Cents-delta, ComputeOrderProfit(o).Cents)
	}
}
