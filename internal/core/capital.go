package core

// SummarizeCapital totals deposits and withdrawals and derives the net
// position. Stored amounts are positive; the entry type decides the sign.
func SummarizeCapital(entries []CapitalEntry) CapitalSummary {
	var s CapitalSummary
	for _, e := range entries {
		switch e.Type {
		case Deposit:
			s.TotalDeposits = s.TotalDeposits.Add(e.Amount)
		case Withdrawal:
			s.TotalWithdrawals = s.TotalWithdrawals.Add(e.Amount)
		}
	}
	s.NetCapital = s.TotalDeposits.Sub(s.TotalWithdrawals)
	return s
}

