// Package http exposes the dashboard as a JSON API.
//
// This file decodes and validates request bodies and converts them into
// domain values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"atlas/internal/core"
	"atlas/internal/services"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a JSON field name to the reason it was rejected.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// ProcessValidationErrors turns validator output into FieldErrors keyed by
// JSON name with the failing tag as the reason.
func ProcessValidationErrors(err error) FieldErrors {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return FieldErrors{"body": err.Error()}
	}
	out := make(FieldErrors, len(ves))
	for _, ve := range ves {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

// errBadJSON marks a body that could not be decoded at all.
var errBadJSON = errors.New("malformed JSON body")

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after object", errBadJSON)
	}
	if err := validate.Struct(dst); err != nil {
		return ProcessValidationErrors(err)
	}
	return nil
}

// Amount accepts a JSON number or a string, so "12,50" works as well as 12.5.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errors.New("amount must be a number or a string")
		}
		*a = Amount(n.String())
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	t, ok := core.NormalizeDate(s)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

type (
	orderRequest struct {
		ExternalID     string `json:"externalId" validate:"required,max=100"`
		OrderDate      string `json:"orderDate" validate:"required"`
		Status         string `json:"status" validate:"required,oneof=Pending Shipped Delivered Cancelled"`
		Price          Amount `json:"price" validate:"required"`
		Cost           Amount `json:"cost"`
		Shipping       Amount `json:"shipping"`
		Fees           Amount `json:"fees"`
		TrackingNumber string `json:"trackingNumber" validate:"max=100"`
		Notes          string `json:"notes" validate:"max=1000"`
	}

	orderPatchRequest struct {
		ExternalID     *string `json:"externalId" validate:"omitempty,min=1,max=100"`
		OrderDate      *string `json:"orderDate" validate:"omitempty,min=1"`
		Status         *string `json:"status" validate:"omitempty,oneof=Pending Shipped Delivered Cancelled"`
		Price          *Amount `json:"price"`
		Cost           *Amount `json:"cost"`
		Shipping       *Amount `json:"shipping"`
		Fees           *Amount `json:"fees"`
		TrackingNumber *string `json:"trackingNumber" validate:"omitempty,max=100"`
		Notes          *string `json:"notes" validate:"omitempty,max=1000"`
	}

	capitalRequest struct {
		Type            string `json:"type" validate:"required,oneof=Deposit Withdrawal"`
		Source          string `json:"source" validate:"required"`
		Amount          Amount `json:"amount" validate:"required"`
		TransactionDate string `json:"transactionDate" validate:"required"`
		SubmittedBy     string `json:"submittedBy" validate:"required,max=100"`
		Notes           string `json:"notes" validate:"max=1000"`
	}

	capitalPatchRequest struct {
		Type            *string `json:"type" validate:"omitempty,oneof=Deposit Withdrawal"`
		Source          *string `json:"source" validate:"omitempty,min=1"`
		Amount          *Amount `json:"amount"`
		TransactionDate *string `json:"transactionDate" validate:"omitempty,min=1"`
		SubmittedBy     *string `json:"submittedBy" validate:"omitempty,min=1,max=100"`
		Notes           *string `json:"notes" validate:"omitempty,max=1000"`
	}

	userRequest struct {
		Name  string `json:"name" validate:"required,max=100"`
		Email string `json:"email" validate:"required,email"`
		Role  string `json:"role" validate:"required,oneof=admin user"`
	}

	userPatchRequest struct {
		Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
		Email *string `json:"email" validate:"omitempty,email"`
		Role  *string `json:"role" validate:"omitempty,oneof=admin user"`
	}

	summaryRequest struct {
		StartDate string `json:"startDate" validate:"max=100"`
		EndDate   string `json:"endDate" validate:"max=100"`
	}
)

// fieldParser collects conversion failures so every bad field is reported at once.
type fieldParser struct {
	errs FieldErrors
}

func (p *fieldParser) fail(field, reason string) {
	if p.errs == nil {
		p.errs = FieldErrors{}
	}
	p.errs[field] = reason
}

func (p *fieldParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}

func (p *fieldParser) date(field, s string) time.Time {
	t, ok := parseDate(s)
	if !ok {
		p.fail(field, "date")
	}
	return t
}

func (p *fieldParser) positive(field string, a Amount) core.Money {
	cents, err := core.ParseDecimalToCents(string(a))
	if err != nil {
		p.fail(field, "amount")
	}
	return core.Money{Cents: cents}
}

func (p *fieldParser) nonNegative(field string, a Amount) core.Money {
	cents, err := core.ParseNonNegativeCents(string(a))
	if err != nil {
		p.fail(field, "amount")
	}
	return core.Money{Cents: cents}
}

func (req orderRequest) toOrder() (core.Order, error) {
	var p fieldParser
	o := core.Order{
		ExternalID:     strings.TrimSpace(req.ExternalID),
		OrderDate:      p.date("orderDate", req.OrderDate),
		Status:         core.OrderStatus(req.Status),
		Price:          p.positive("price", req.Price),
		Cost:           p.nonNegative("cost", req.Cost),
		Shipping:       p.nonNegative("shipping", req.Shipping),
		Fees:           p.nonNegative("fees", req.Fees),
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Notes:          strings.TrimSpace(req.Notes),
	}
	return o, p.err()
}

// toPatch sets every field, so a PUT replaces the whole record.
func (req orderRequest) toPatch() (services.OrderPatch, error) {
	o, err := req.toOrder()
	if err != nil {
		return services.OrderPatch{}, err
	}
	return services.OrderPatch{
		ExternalID:     &o.ExternalID,
		OrderDate:      &o.OrderDate,
		Status:         &o.Status,
		Price:          &o.Price,
		Cost:           &o.Cost,
		Shipping:       &o.Shipping,
		Fees:           &o.Fees,
		TrackingNumber: &o.TrackingNumber,
		Notes:          &o.Notes,
	}, nil
}

func (req orderPatchRequest) toPatch() (services.OrderPatch, error) {
	var p fieldParser
	var patch services.OrderPatch
	if req.ExternalID != nil {
		v := strings.TrimSpace(*req.ExternalID)
		patch.ExternalID = &v
	}
	if req.OrderDate != nil {
		v := p.date("orderDate", *req.OrderDate)
		patch.OrderDate = &v
	}
	if req.Status != nil {
		v := core.OrderStatus(*req.Status)
		patch.Status = &v
	}
	if req.Price != nil {
		v := p.positive("price", *req.Price)
		patch.Price = &v
	}
	if req.Cost != nil {
		v := p.nonNegative("cost", *req.Cost)
		patch.Cost = &v
	}
	if req.Shipping != nil {
		v := p.nonNegative("shipping", *req.Shipping)
		patch.Shipping = &v
	}
	if req.Fees != nil {
		v := p.nonNegative("fees", *req.Fees)
		patch.Fees = &v
	}
	if req.TrackingNumber != nil {
		v := strings.TrimSpace(*req.TrackingNumber)
		patch.TrackingNumber = &v
	}
	if req.Notes != nil {
		v := strings.TrimSpace(*req.Notes)
		patch.Notes = &v
	}
	return patch, p.err()
}

func (req capitalRequest) toEntry() (core.CapitalEntry, error) {
	var p fieldParser
	e := core.CapitalEntry{
		Type:            core.CapitalType(req.Type),
		Source:          core.CapitalSource(strings.TrimSpace(req.Source)),
		Amount:          p.positive("amount", req.Amount),
		TransactionDate: p.date("transactionDate", req.TransactionDate),
		SubmittedBy:     strings.TrimSpace(req.SubmittedBy),
		Notes:           strings.TrimSpace(req.Notes),
	}
	if !e.Source.Valid() {
		p.fail("source", "oneof")
	}
	return e, p.err()
}

func (req capitalRequest) toPatch() (services.CapitalPatch, error) {
	e, err := req.toEntry()
	if err != nil {
		return services.CapitalPatch{}, err
	}
	return services.CapitalPatch{
		Type:            &e.Type,
		Source:          &e.Source,
		Amount:          &e.Amount,
		TransactionDate: &e.TransactionDate,
		SubmittedBy:     &e.SubmittedBy,
		Notes:           &e.Notes,
	}, nil
}

func (req capitalPatchRequest) toPatch() (services.CapitalPatch, error) {
	var p fieldParser
	var patch services.CapitalPatch
	if req.Type != nil {
		v := core.CapitalType(*req.Type)
		patch.Type = &v
	}
	if req.Source != nil {
		v := core.CapitalSource(strings.TrimSpace(*req.Source))
		if !v.Valid() {
			p.fail("source", "oneof")
		}
		patch.Source = &v
	}
	if req.Amount != nil {
		v := p.positive("amount", *req.Amount)
		patch.Amount = &v
	}
	if req.TransactionDate != nil {
		v := p.date("transactionDate", *req.TransactionDate)
		patch.TransactionDate = &v
	}
	if req.SubmittedBy != nil {
		v := strings.TrimSpace(*req.SubmittedBy)
		patch.SubmittedBy = &v
	}
	if req.Notes != nil {
		v := strings.TrimSpace(*req.Notes)
		patch.Notes = &v
	}
	return patch, p.err()
}

func (req userRequest) toUser() core.User {
	return core.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Role:  core.Role(req.Role),
	}
}

func (req userRequest) toPatch() services.UserPatch {
	u := req.toUser()
	return services.UserPatch{Name: &u.Name, Email: &u.Email, Role: &u.Role}
}

func (req userPatchRequest) toPatch() services.UserPatch {
	var patch services.UserPatch
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		patch.Name = &v
	}
	if req.Email != nil {
		v := strings.TrimSpace(*req.Email)
		patch.Email = &v
	}
	if req.Role != nil {
		v := core.Role(*req.Role)
		patch.Role = &v
	}
	return patch
}
