package domain

import (
	"fmt"
	"time"
)

// Period is a ledger request window. Year is mandatory, Day requires Month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// Validate checks the period shape.
func (p Period) Validate() error {
	if p.Year < 2003 || p.Year > 9999 {
		return &ErrValidation{Field: "year", Message: "must be between 2003 and 9999"}
	}
	if p.Month < 0 || p.Month > 12 {
		return &ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	if p.Day != 0 {
		if p.Month == 0 {
			return &ErrValidation{Field: "day", Message: "requires month"}
		}
		if p.Day < 0 || p.Day > DaysIn(p.Year, time.Month(p.Month)) {
			return &ErrValidation{Field: "day", Message: "out of range for month"}
		}
	}
	if p.Day < 0 {
		return &ErrValidation{Field: "day", Message: "must be positive"}
	}
	return nil
}

// Range returns the half-open UTC interval [from, to) covered by the period.
func (p Period) Range() (from, to time.Time) {
	switch {
	case p.Day > 0:
		from = time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 0, 1)
	case p.Month > 0:
		from = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	default:
		from = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	}
	return from, to
}

func (p Period) String() string {
	switch {
	case p.Day > 0:
		return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
	case p.Month > 0:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// DaysIn returns the calendar length of a month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
