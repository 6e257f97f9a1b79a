package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderValidate(t *testing.T) {
	good := order(StatusPending, 100, 0, 0, 0)
	assert.NoError(t, good.Validate())

	cases := []struct {
		mutate func(o *Order)
		want   error
	}{
		{func(o *Order) { o.ExternalID = " " }, ErrEmptyExternalID},
		{func(o *Order) { o.OrderDate = time.Time{} }, ErrMissingDate},
		{func(o *Order) { o.Status = "Lost" }, ErrInvalidStatus},
		{func(o *Order) { o.Price = Money{} }, ErrInvalidAmount},
		{func(o *Order) { o.Shipping = Money{Cents: -1} }, ErrNegativeComponent},
	}
	for i, tc := range cases {
		o := good
		tc.mutate(&o)
		assert.ErrorIs(t, o.Validate(), tc.want, "case %d", i)
		assert.True(t, IsValidationError(o.Validate()), "case %d", i)
	}
}

func TestCapitalEntryValidate(t *testing.T) {
	good := CapitalEntry{
		Type:            Deposit,
		Source:          SourceEtsyPayout,
		Amount:          Money{Cents: 5000},
		TransactionDate: day(2024, time.May, 1),
		SubmittedBy:     "admin@example.com",
	}
	assert.NoError(t, good.Validate())

	repayment := good
	repayment.Source = SourceLoanRepayment
	assert.ErrorIs(t, repayment.Validate(), ErrSourceNotAllowed)
	repayment.Type = Withdrawal
	assert.NoError(t, repayment.Validate())

	noAmount := good
	noAmount.Amount = Money{}
	assert.ErrorIs(t, noAmount.Validate(), ErrInvalidAmount)

	noSubmitter := good
	noSubmitter.SubmittedBy = ""
	assert.ErrorIs(t, noSubmitter.Validate(), ErrEmptySubmitter)

	badType := good
	badType.Type = "Transfer"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidType)
}

func TestUserValidate(t *testing.T) {
	good := User{Name: "Admin User", Email: "admin@etsyatlas.com", Role: RoleAdmin}
	assert.NoError(t, good.Validate())

	for _, email := range []string{"", "no-at-sign", "@example.com", "user@", "a b@example.com"} {
		u := good
		u.Email = email
		assert.ErrorIs(t, u.Validate(), ErrInvalidEmail, email)
	}

	u := good
	u.Role = "owner"
	assert.ErrorIs(t, u.Validate(), ErrInvalidRole)
}

func TestEnumsAreClosed(t *testing.T) {
	assert.Len(t, OrderStatuses(), 4)
	for _, s := range OrderStatuses() {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("pending").Valid())
	assert.Len(t, CapitalSources(), 5)
	assert.True(t, SourceDividend.AllowedFor(Deposit))
	assert.False(t, CapitalSource("Gift").AllowedFor(Deposit))
}
