package core

import (
	"errors"
	"fmt"
	"math"
)

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"

	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Offset within int for any page size.
	MaxPageNumber   = math.MaxInt / MaxPageSize
)

type (
	SortField string
	SortOrder string

	// TransactionFilter is the list filter as supplied by the caller. Month
	// and Year must be given together. All criteria combine with AND.
	TransactionFilter struct {
		Type       TransactionType
		AccountID  string
		CategoryID string
		Month      int // 1-12, 0 = unset
		Year       int // 0 = unset
		Search     string
	}

	Sort struct {
		Field SortField
		Order SortOrder
	}

	// Page is 1-indexed.
	Page struct {
		Number int
		Size   int
	}

	PageMeta struct {
		CurrentPage  int
		ItemsPerPage int
		TotalItems   int64
		TotalPages   int
	}

	TransactionPage struct {
		Items []Transaction
		Meta  PageMeta
	}

	// DateRange bounds a query by calendar day, inclusive on both ends. Zero
	// bounds are open.
	DateRange struct {
		From Date
		To   Date
	}

	// TransactionQuery is the validated form of a list request handed to the store.
	TransactionQuery struct {
		Type       TransactionType
		AccountID  string
		CategoryID string
		Range      DateRange
		Search     string
		Sort       Sort
		Limit      int
		Offset     int
	}
)

var (
	ErrInvalidSort  = errors.New("invalid sort: field must be date, amount or description and order asc or desc")
	ErrInvalidPage  = errors.New("invalid page: must be 1 or greater")
	ErrPageTooLarge = fmt.Errorf("invalid page: must be at most %d", MaxPageNumber)
)

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortByDate, Order: Desc}

func (s Sort) Validate() error {
	switch s.Field {
	case SortByDate, SortByAmount, SortByDescription:
	default:
		return ErrInvalidSort
	}
	switch s.Order {
	case Asc, Desc:
	default:
		return ErrInvalidSort
	}
	return nil
}

// Normalize fills defaults for an unset sort.
func (s Sort) Normalize() Sort {
	if s.Field == "" {
		s.Field = DefaultSort.Field
	}
	if s.Order == "" {
		s.Order = DefaultSort.Order
	}
	return s
}

// Normalize applies the default size and clamps the size to MaxPageSize.
func (p Page) Normalize() Page {
	if p.Number == 0 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Validate() error {
	if p.Number < 1 {
		return ErrInvalidPage
	}
	if p.Number > MaxPageNumber {
		return ErrPageTooLarge
	}
	return nil
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Meta computes page metadata for a total count.
func (p Page) Meta(total int64) PageMeta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	return PageMeta{
		CurrentPage:  p.Number,
		ItemsPerPage: p.Size,
		TotalItems:   total,
		TotalPages:   pages,
	}
}
