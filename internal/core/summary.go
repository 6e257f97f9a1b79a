package core

// OrderSummary aggregates the non-cancelled orders of a snapshot.
type OrderSummary struct {
	TotalOrders   int
	TotalRevenue  Money
	TotalExpenses Money
	TotalProfit   Money
	// ProfitMargin is a percentage; 0 when there is no revenue.
	ProfitMargin float64
}

// MonthRevenue is one bar of the revenue chart.
type MonthRevenue struct {
	Month   string // Jan..Dec
	Revenue Money
}

// CapitalSummary is the net position of the capital ledger.
type CapitalSummary struct {
	TotalDeposits    Money
	TotalWithdrawals Money
	NetCapital       Money
}

// Overview is everything the dashboard derives from one snapshot.
type Overview struct {
	Orders  OrderSummary
	Monthly []MonthRevenue
	Capital CapitalSummary
}

// BuildOverview derives every dashboard figure from one snapshot.
func BuildOverview(orders []Order, entries []CapitalEntry) Overview {
	return Overview{
		Orders:  Summarize(orders),
		Monthly: MonthlyRevenue(orders),
		Capital: SummarizeCapital(entries),
	}
}
