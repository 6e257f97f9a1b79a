package core

import "time"

// MonthNames are the chart labels in calendar order.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlyRevenue buckets the revenue of non-cancelled orders by month name,
// collapsing years. Orders whose date did not normalize are skipped. Months
// without positive revenue are omitted; the rest come out Jan to Dec.
func MonthlyRevenue(orders []Order) []MonthRevenue {
	var buckets [12]int64
	for _, o := range orders {
		if !o.Counted() {
			continue
		}
		date, ok := NormalizeDate(o.OrderDate)
		if !ok {
			continue
		}
		buckets[date.Month()-time.January] += o.Price.Cents
	}

	out := make([]MonthRevenue, 0, 12)
	for i, cents := range buckets {
		if cents <= 0 {
			continue
		}
		out = append(out, MonthRevenue{Month: MonthNames[i], Revenue: Money{Cents: cents}})
	}
	return out
}
