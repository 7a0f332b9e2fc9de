package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month, rendered as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

var (
	ErrInvalidMonth     = errors.New("invalid month: expected YYYY-MM")
	ErrMonthWithoutYear = errors.New("month and year must be supplied together")
)

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// NewMonth validates a month/year pair as supplied by list filters.
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing t in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First is the first day of the month.
func (m Month) First() Date {
	return Date{Time: time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)}
}

// Last is the last day of the month. Ranges built from First and Last are
// inclusive on both ends.
func (m Month) Last() Date {
	return Date{Time: m.First().AddDate(0, 1, -1)}
}

// Add shifts the month by n (negative goes back).
func (m Month) Add(n int) Month {
	t := m.First().AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// TrailingWindow returns the n months ending at m, oldest first.
func (m Month) TrailingWindow(n int) []Month {
	out := make([]Month, n)
	for i := 0; i < n; i++ {
		out[i] = m.Add(i - n + 1)
	}
	return out
}
