package ledger

import (
	"fmt"
	"time"

	"canteenledger/internal/core/apperror"
)

// Period is a calendar month, the aggregation boundary of the ledger.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod validates and builds a Period.
func NewPeriod(year, month int) (Period, error) {
	if year < 1 || year > 9999 {
		return Period{}, apperror.NewValidation("invalid year").WithDetail("year", year)
	}
	if month < 1 || month > 12 {
		return Period{}, apperror.NewValidation("invalid month").WithDetail("month", month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month, handling year rollover.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p precedes other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// String formats the period as "2006-01".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
