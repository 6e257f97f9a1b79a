package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

const rowDateLayout = "2006-01-02"

var (
	OrderHeader = []any{
		"ID", "Order", "Date", "Status", "Price", "Cost", "Shipping", "Fees",
		"Profit", "Tracking", "Notes", "Updated",
	}
	CapitalHeader = []any{
		"ID", "Type", "Source", "Amount", "Signed Amount", "Date", "Submitted By",
		"Notes", "Updated",
	}
)

// OrderRow renders an order in OrderHeader column order.
func OrderRow(o core.Order) []any {
	return []any{
		o.ID,
		o.ExternalID,
		rowDate(o.OrderDate),
		string(o.Status),
		amount(o.Price),
		amount(o.Cost),
		amount(o.Shipping),
		amount(o.Fees),
		amount(core.ComputeOrderProfit(o)),
		o.TrackingNumber,
		o.Notes,
		rowTimestamp(o.UpdatedAt),
	}
}

// CapitalRow renders a capital entry in CapitalHeader column order.
// Withdrawals carry a negative signed amount so the column sums to net capital.
func CapitalRow(e core.CapitalEntry) []any {
	signed := e.Amount
	if e.Type == core.Withdrawal {
		signed = core.Money{Cents: -signed.Cents}
	}
	return []any{
		e.ID,
		string(e.Type),
		string(e.Source),
		amount(e.Amount),
		amount(signed),
		rowDate(e.TransactionDate),
		e.SubmittedBy,
		e.Notes,
		rowTimestamp(e.UpdatedAt),
	}
}

func amount(m core.Money) string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

func rowDate(t time.Time) string {
	d, ok := core.NormalizeDate(t)
	if !ok {
		return ""
	}
	return d.Format(rowDateLayout)
}

func rowTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
