package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var daysPerYear = decimal.NewFromInt(365)

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if raw == "" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(raw); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", raw, err)
	}
	*d = DateOf(t)
	return nil
}

// Period is an inclusive range of billing days.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Validate rejects periods whose end is not after the start.
func (p Period) Validate() error {
	if !p.End.After(p.Start.Time) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPeriod, p.Start, p.End)
	}
	return nil
}

// Days counts the billed days, both ends included. Never below 1.
func (p Period) Days() int {
	days := int(math.Ceil(p.End.Sub(p.Start.Time).Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether the day falls inside the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// YearlyMultiplier is 365 divided by the billed days.
func (p Period) YearlyMultiplier() decimal.Decimal {
	return daysPerYear.Div(decimal.NewFromInt(int64(p.Days())))
}

// Annualize scales a period amount to a 365-day basis.
func (p Period) Annualize(v decimal.Decimal) decimal.Decimal {
	return v.Mul(daysPerYear).Div(decimal.NewFromInt(int64(p.Days())))
}

// Monthly scales a period amount to a month of the given length in days.
func (p Period) Monthly(v decimal.Decimal, daysPerMonth int) decimal.Decimal {
	if daysPerMonth <= 0 {
		daysPerMonth = 30
	}
	return v.Mul(decimal.NewFromInt(int64(daysPerMonth))).Div(decimal.NewFromInt(int64(p.Days())))
}
