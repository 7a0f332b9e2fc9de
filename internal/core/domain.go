package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCanceled  TransactionStatus = "canceled"
)

const maxDescriptionLen = 255

type (
	TransactionType   string
	TransactionStatus string

	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	Account struct {
		ID        string
		UserID    string
		Name      string
		Balance   Money
		Color     string
		Archived  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Type      TransactionType
		Icon      string
		Color     string
		IsDefault bool
	}

	Transaction struct {
		ID          string
		UserID      string
		AccountID   string
		CategoryID  string // empty when uncategorized
		Amount      Money
		Description string
		Date        Date
		Type        TransactionType
		Status      TransactionStatus
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// Denormalized for display
		AccountName  string
		CategoryName string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidStatus = errors.New("invalid transaction status")
	ErrEmptyAccount  = errors.New("account id is required")
	ErrDescription   = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	ErrEmptyName     = errors.New("name is required")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (s TransactionStatus) Validate() error {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return nil
	}
	return ErrInvalidStatus
}

// Signed returns the balance effect of amount for this transaction type:
// income adds, expense subtracts.
func (t TransactionType) Signed(amount Money) Money {
	if t == Expense {
		return Money{Cents: -amount.Cents}
	}
	return amount
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Month returns the calendar month containing d.
func (d Date) Month() Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Amount      Money
	Description string
	Date        Date
	Type        TransactionType
	Status      TransactionStatus // defaults to completed
	AccountID   string
	CategoryID  string // optional
}

// Normalize applies defaults and trims free text.
func (in TransactionInput) Normalize() TransactionInput {
	in.Description = strings.TrimSpace(in.Description)
	in.AccountID = strings.TrimSpace(in.AccountID)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	return in
}

func (in TransactionInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if len(in.Description) > maxDescriptionLen {
		return ErrDescription
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if err := in.Status.Validate(); err != nil {
		return err
	}
	if in.AccountID == "" {
		return ErrEmptyAccount
	}
	return nil
}

// TransactionPatch is a partial update. Nil fields are left unchanged.
// A CategoryID pointing at the empty string detaches the category.
type TransactionPatch struct {
	Amount      *Money
	Description *string
	Date        *Date
	Type        *TransactionType
	Status      *TransactionStatus
	AccountID   *string
	CategoryID  *string
}

func (p TransactionPatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil && len(strings.TrimSpace(*p.Description)) > maxDescriptionLen {
		return ErrDescription
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := p.Type.Validate(); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	if p.AccountID != nil && strings.TrimSpace(*p.AccountID) == "" {
		return ErrEmptyAccount
	}
	return nil
}

// Apply returns t with the patch fields overlaid.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AccountID != nil {
		t.AccountID = strings.TrimSpace(*p.AccountID)
	}
	if p.CategoryID != nil {
		t.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	return t
}
