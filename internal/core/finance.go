package core

// ComputeOrderProfit returns price minus every cost component. It is defined
// for any status; cancelled orders are only excluded from aggregates.
func ComputeOrderProfit(o Order) Money {
	return o.Price.Sub(o.Expenses())
}

// Counted reports whether the order takes part in dashboard aggregates.
func (o Order) Counted() bool {
	return o.Status != StatusCancelled
}

// Summarize aggregates revenue, expenses, profit and margin over the
// non-cancelled orders. The input slice is not modified.
func Summarize(orders []Order) OrderSummary {
	var s OrderSummary
	for _, o := range orders {
		if !o.Counted() {
			continue
		}
		s.TotalOrders++
		s.TotalRevenue = s.TotalRevenue.Add(o.Price)
		s.TotalExpenses = s.TotalExpenses.Add(o.Expenses())
	}
	s.TotalProfit = s.TotalRevenue.Sub(s.TotalExpenses)
	if s.TotalRevenue.Cents > 0 {
		s.ProfitMargin = float64(s.TotalProfit.Cents) / float64(s.TotalRevenue.Cents) * 100
	}
	return s
}
