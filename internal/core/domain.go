package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

const (
	Deposit    CapitalType = "Deposit"
	Withdrawal CapitalType = "Withdrawal"
)

const (
	SourceEtsyPayout    CapitalSource = "Etsy Payout"
	SourceLoan          CapitalSource = "Loan"
	SourceDividend      CapitalSource = "Dividend"
	SourceInvestment    CapitalSource = "Investment"
	SourceLoanRepayment CapitalSource = "Loan Repayment"
)

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type (
	OrderStatus   string
	CapitalType   string
	CapitalSource string
	Role          string

	Money struct {
		Cents int64
	}

	// Order is a single customer purchase. OrderDate is the canonical calendar
	// date; a zero value means the stored date was missing or unparseable.
	Order struct {
		ID             string
		ExternalID     string
		OrderDate      time.Time
		Status         OrderStatus
		Price          Money
		Cost           Money
		Shipping       Money
		Fees           Money
		TrackingNumber string
		Notes          string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// CapitalEntry is a ledger line. Amount is always positive, Type carries the sign.
	CapitalEntry struct {
		ID              string
		Type            CapitalType
		Source          CapitalSource
		Amount          Money
		TransactionDate time.Time
		SubmittedBy     string
		Notes           string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	User struct {
		ID        string
		Name      string
		Email     string
		Role      Role
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidType       = errors.New("invalid capital entry type")
	ErrInvalidSource     = errors.New("invalid capital entry source")
	ErrInvalidRole       = errors.New("invalid role")
	ErrEmptyExternalID   = errors.New("order reference is required")
	ErrMissingDate       = errors.New("date is required")
	ErrEmptySubmitter    = errors.New("submitter is required")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrSourceNotAllowed  = errors.New("source not allowed for deposits")
	ErrNegativeComponent = errors.New("cost components must not be negative")
)

var (
	orderStatuses  = []OrderStatus{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}
	capitalSources = []CapitalSource{SourceEtsyPayout, SourceLoan, SourceDividend, SourceInvestment, SourceLoanRepayment}
)

// OrderStatuses returns the closed set of order statuses in display order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (t CapitalType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

// CapitalSources returns every provenance tag, including the withdrawal-only one.
func CapitalSources() []CapitalSource {
	return append([]CapitalSource(nil), capitalSources...)
}

func (s CapitalSource) Valid() bool {
	for _, v := range capitalSources {
		if s == v {
			return true
		}
	}
	return false
}

// AllowedFor reports whether the source may be used with the given entry type.
// Loan repayments only ever leave the business.
func (s CapitalSource) AllowedFor(t CapitalType) bool {
	if s == SourceLoanRepayment {
		return t == Withdrawal
	}
	return s.Valid()
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Expenses is the sum of every cost component of the order.
func (o Order) Expenses() Money {
	return o.Cost.Add(o.Shipping).Add(o.Fees)
}

func (o Order) Validate() error {
	if strings.TrimSpace(o.ExternalID) == "" {
		return ErrEmptyExternalID
	}
	if o.OrderDate.IsZero() {
		return ErrMissingDate
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := o.Price.Validate(); err != nil {
		return err
	}
	if o.Cost.Cents < 0 || o.Shipping.Cents < 0 || o.Fees.Cents < 0 {
		return ErrNegativeComponent
	}
	return nil
}

func (e CapitalEntry) Validate() error {
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if !e.Source.Valid() {
		return ErrInvalidSource
	}
	if !e.Source.AllowedFor(e.Type) {
		return ErrSourceNotAllowed
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.TransactionDate.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.SubmittedBy) == "" {
		return ErrEmptySubmitter
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	email := strings.TrimSpace(u.Email)
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// IsValidationError reports whether err came from one of the Validate methods.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidStatus, ErrInvalidType, ErrInvalidSource,
		ErrInvalidRole, ErrEmptyExternalID, ErrMissingDate, ErrEmptySubmitter,
		ErrEmptyName, ErrInvalidEmail, ErrSourceNotAllowed, ErrNegativeComponent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
