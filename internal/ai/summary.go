// Package ai packages dashboard metrics into a generation request and
// returns the prose summary produced by an external text model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

// Period descriptors used when the caller does not narrow the range.
const (
	DefaultStartDate = "the beginning of time"
	DefaultEndDate   = "today"
)

// ErrSummaryUnavailable is the single failure surfaced to callers. The
// underlying cause is wrapped for logging only.
var ErrSummaryUnavailable = errors.New("could not generate summary")

type (
	// Request is the fixed input schema of the summary call.
	Request struct {
		TotalOrders   int     `json:"totalOrders"`
		ProfitMargin  float64 `json:"profitMargin"`
		TotalRevenue  float64 `json:"totalRevenue"`
		TotalExpenses float64 `json:"totalExpenses"`
		StartDate     string  `json:"startDate"`
		EndDate       string  `json:"endDate"`
	}

	// Response is the fixed output schema: one string field.
	Response struct {
		Summary string `json:"summary"`
	}

	// Summarizer is the external generative text service.
	Summarizer interface {
		Summarize(ctx context.Context, req Request) (Response, error)
	}
)

// NewRequest rounds the aggregate metrics to two decimals and attaches the
// period descriptors. Empty descriptors fall back to the defaults.
func NewRequest(s core.OrderSummary, startDate, endDate string) Request {
	if strings.TrimSpace(startDate) == "" {
		startDate = DefaultStartDate
	}
	if strings.TrimSpace(endDate) == "" {
		endDate = DefaultEndDate
	}
	return Request{
		TotalOrders:   s.TotalOrders,
		ProfitMargin:  round2(decimal.NewFromFloat(s.ProfitMargin)),
		TotalRevenue:  round2(decimal.New(s.TotalRevenue.Cents, -2)),
		TotalExpenses: round2(decimal.New(s.TotalExpenses.Cents, -2)),
		StartDate:     startDate,
		EndDate:       endDate,
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Prompt renders the request as the instruction sent to the model.
func (r Request) Prompt() string {
	return fmt.Sprintf(`You are an expert in summarizing business metrics for Etsy store owners.
Given the following metrics for the period between %s and %s, generate a concise summary of the Etsy business performance.

Total Orders: %d
Profit Margin: %s%%
Total Revenue: %s
Total Expenses: %s

Summary:`,
		r.StartDate, r.EndDate,
		r.TotalOrders,
		decimal.NewFromFloat(r.ProfitMargin).StringFixed(2),
		decimal.NewFromFloat(r.TotalRevenue).StringFixed(2),
		decimal.NewFromFloat(r.TotalExpenses).StringFixed(2),
	)
}

// Unavailable wraps cause so that errors.Is(err, ErrSummaryUnavailable) holds.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrSummaryUnavailable
	}
	return fmt.Errorf("%w: %w", ErrSummaryUnavailable, cause)
}
