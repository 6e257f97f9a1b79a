package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(t CapitalType, cents int64) CapitalEntry {
	return CapitalEntry{Type: t, Source: SourceInvestment, Amount: Money{Cents: cents}}
}

func TestSummarizeCapital(t *testing.T) {
	got := SummarizeCapital([]CapitalEntry{
		entry(Deposit, 100000),
		entry(Withdrawal, 30000),
		entry(Deposit, 5000),
	})
	assert.Equal(t, CapitalSummary{
		TotalDeposits:    Money{Cents: 105000},
		TotalWithdrawals: Money{Cents: 30000},
		NetCapital:       Money{Cents: 75000},
	}, got)
}

func TestSummarizeCapitalEmpty(t *testing.T) {
	assert.Equal(t, CapitalSummary{}, SummarizeCapital(nil))
	assert.Equal(t, CapitalSummary{}, SummarizeCapital([]CapitalEntry{}))
}

func TestSummarizeCapitalNetIdentity(t *testing.T) {
	sets := [][]CapitalEntry{
		{entry(Withdrawal, 500)},
		{entry(Deposit, 1), entry(Deposit, 2), entry(Withdrawal, 3)},
		{entry(Withdrawal, 40000), entry(Deposit, 100), entry(Withdrawal, 1)},
	}
	for _, set := range sets {
		s := SummarizeCapital(set)
		assert.Equal(t, s.TotalDeposits.Cents-s.TotalWithdrawals.Cents, s.NetCapital.Cents)
	}
}

func TestBuildOverview(t *testing.T) {
	ov := BuildOverview(sampleOrders(), []CapitalEntry{entry(Deposit, 1000)})
	assert.Equal(t, 3, ov.Orders.TotalOrders)
	assert.Equal(t, []MonthRevenue{{Month: "May", Revenue: Money{Cents: 44550}}}, ov.Monthly)
	assert.Equal(t, Money{Cents: 1000}, ov.Capital.NetCapital)
}
