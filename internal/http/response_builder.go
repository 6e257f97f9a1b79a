// Package http exposes the dashboard as a JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/ai"
	"atlas/internal/core"
	"atlas/internal/log"
)

// ResponseBuilder provides a fluent API for writing JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

type errorBody struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// writeError maps err onto a status code and a client-safe message.
// Unexpected failures are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		NewResponse().
			Status(http.StatusUnprocessableEntity).
			JSON(errorBody{Error: "validation failed", Fields: fields}).
			Write(w)
	case errors.Is(err, errBadJSON):
		ErrorResponse(http.StatusBadRequest, "malformed JSON body").Write(w)
	case errors.Is(err, core.ErrNotFound):
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	case errors.Is(err, core.ErrDuplicateEmail):
		ErrorResponse(http.StatusConflict, core.ErrDuplicateEmail.Error()).Write(w)
	case core.IsValidationError(err):
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
	case errors.Is(err, ai.ErrInFlight):
		ErrorResponse(http.StatusConflict, "a summary is already being generated").Write(w)
	case errors.Is(err, ai.ErrSummaryUnavailable):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Summary generation failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "Could not generate summary").Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		ErrorResponse(http.StatusInternalServerError, "internal error").Write(w)
	}
}

// moneyJSON carries an exact decimal value alongside its display text.
type moneyJSON struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

func money(m core.Money) moneyJSON {
	return moneyJSON{
		Value:   decimal.New(m.Cents, -2).StringFixed(2),
		Display: core.FormatCurrency(m),
	}
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

type (
	orderResponse struct {
		ID             string    `json:"id"`
		ExternalID     string    `json:"externalId"`
		OrderDate      string    `json:"orderDate"`
		DisplayDate    string    `json:"displayDate"`
		Status         string    `json:"status"`
		Price          moneyJSON `json:"price"`
		Cost           moneyJSON `json:"cost"`
		Shipping       moneyJSON `json:"shipping"`
		Fees           moneyJSON `json:"fees"`
		Profit         moneyJSON `json:"profit"`
		TrackingNumber string    `json:"trackingNumber,omitempty"`
		Notes          string    `json:"notes,omitempty"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}

	capitalResponse struct {
		ID              string    `json:"id"`
		Type            string    `json:"type"`
		Source          string    `json:"source"`
		Amount          moneyJSON `json:"amount"`
		TransactionDate string    `json:"transactionDate"`
		DisplayDate     string    `json:"displayDate"`
		SubmittedBy     string    `json:"submittedBy"`
		Notes           string    `json:"notes,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}

	userResponse struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	orderSummaryResponse struct {
		TotalOrders   int       `json:"totalOrders"`
		TotalRevenue  moneyJSON `json:"totalRevenue"`
		TotalExpenses moneyJSON `json:"totalExpenses"`
		TotalProfit   moneyJSON `json:"totalProfit"`
		ProfitMargin  string    `json:"profitMargin"`
	}

	monthResponse struct {
		Month   string    `json:"month"`
		Revenue moneyJSON `json:"revenue"`
	}

	capitalSummaryResponse struct {
		TotalDeposits    moneyJSON `json:"totalDeposits"`
		TotalWithdrawals moneyJSON `json:"totalWithdrawals"`
		NetCapital       moneyJSON `json:"netCapital"`
	}

	overviewResponse struct {
		Orders  orderSummaryResponse   `json:"orders"`
		Monthly []monthResponse        `json:"monthly"`
		Capital capitalSummaryResponse `json:"capital"`
	}

	summaryResponse struct {
		Summary string `json:"summary"`
	}

	summaryStatusResponse struct {
		State   string `json:"state"`
		Summary string `json:"summary,omitempty"`
	}
)

func newOrderResponse(o core.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		ExternalID:     o.ExternalID,
		OrderDate:      isoDate(o.OrderDate),
		DisplayDate:    core.FormatDate(o.OrderDate),
		Status:         string(o.Status),
		Price:          money(o.Price),
		Cost:           money(o.Cost),
		Shipping:       money(o.Shipping),
		Fees:           money(o.Fees),
		Profit:         money(core.ComputeOrderProfit(o)),
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func newCapitalResponse(e core.CapitalEntry) capitalResponse {
	return capitalResponse{
		ID:              e.ID,
		Type:            string(e.Type),
		Source:          string(e.Source),
		Amount:          money(e.Amount),
		TransactionDate: isoDate(e.TransactionDate),
		DisplayDate:     core.FormatDate(e.TransactionDate),
		SubmittedBy:     e.SubmittedBy,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func newUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newCapitalSummaryResponse(c core.CapitalSummary) capitalSummaryResponse {
	return capitalSummaryResponse{
		TotalDeposits:    money(c.TotalDeposits),
		TotalWithdrawals: money(c.TotalWithdrawals),
		NetCapital:       money(c.NetCapital),
	}
}

func newOverviewResponse(ov core.Overview) overviewResponse {
	monthly := make([]monthResponse, 0, len(ov.Monthly))
	for _, m := range ov.Monthly {
		monthly = append(monthly, monthResponse{Month: m.Month, Revenue: money(m.Revenue)})
	}
	return overviewResponse{
		Orders: orderSummaryResponse{
			TotalOrders:   ov.Orders.TotalOrders,
			TotalRevenue:  money(ov.Orders.TotalRevenue),
			TotalExpenses: money(ov.Orders.TotalExpenses),
			TotalProfit:   money(ov.Orders.TotalProfit),
			ProfitMargin:  decimal.NewFromFloat(ov.Orders.ProfitMargin).StringFixed(2),
		},
		Monthly: monthly,
		Capital: newCapitalSummaryResponse(ov.Capital),
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
