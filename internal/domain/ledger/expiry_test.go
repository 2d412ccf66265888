package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
)

func testEntry(entryDate time.Time, quantity, used, damaged int64, expire *time.Time) StockEntry {
	e := NewStockEntry(id.New(), id.New(), entryDate, types.NewQuantityFromInt(quantity))
	e.UsedStock = types.NewQuantityFromInt(used)
	e.DamageStock = types.NewQuantityFromInt(damaged)
	e.ExpireDate = expire
	return *e
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestGraceDeadline(t *testing.T) {
	entry := testEntry(date(2026, time.January, 5), 100, 0, 0, datePtr(2026, time.January, 31))

	// Expire Jan 31 -> write-off instant is Feb 1 at 00:01.
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 1, 0, 0, time.UTC), GraceDeadline(&entry))

	noExpiry := testEntry(date(2026, time.January, 5), 100, 0, 0, nil)
	assert.True(t, GraceDeadline(&noExpiry).IsZero())
}

func TestIsExpired_GraceBoundary(t *testing.T) {
	entry := testEntry(date(2026, time.January, 5), 100, 0, 0, datePtr(2026, time.January, 31))

	tests := []struct {
		name    string
		asOf    time.Time
		expired bool
	}{
		{"end of expire day", time.Date(2026, time.January, 31, 23, 59, 0, 0, time.UTC), false},
		{"midnight after expire day", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), false},
		{"one second before deadline", time.Date(2026, time.February, 1, 0, 0, 59, 0, time.UTC), false},
		{"exactly at deadline", time.Date(2026, time.February, 1, 0, 1, 0, 0, time.UTC), true},
		{"after deadline", time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsExpired(&entry, tt.asOf))
		})
	}
}

func TestIsExpired_NoExpireDate(t *testing.T) {
	entry := testEntry(date(2026, time.January, 5), 100, 0, 0, nil)
	assert.False(t, IsExpired(&entry, time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestRemainingExpired(t *testing.T) {
	afterDeadline := time.Date(2026, time.February, 1, 0, 1, 0, 0, time.UTC)
	beforeDeadline := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		e    StockEntry
		asOf time.Time
		want int64
	}{
		{
			name: "not yet expired",
			e:    testEntry(date(2026, time.January, 5), 100, 30, 0, datePtr(2026, time.January, 31)),
			asOf: beforeDeadline,
			want: 0,
		},
		{
			name: "whole remainder written off",
			e:    testEntry(date(2026, time.January, 5), 100, 30, 10, datePtr(2026, time.January, 31)),
			asOf: afterDeadline,
			want: 60,
		},
		{
			name: "fully consumed before expiry",
			e:    testEntry(date(2026, time.January, 5), 100, 100, 0, datePtr(2026, time.January, 31)),
			asOf: afterDeadline,
			want: 0,
		},
		{
			name: "never expires",
			e:    testEntry(date(2026, time.January, 5), 100, 0, 0, nil),
			asOf: afterDeadline,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, types.NewQuantityFromInt(tt.want), RemainingExpired(&tt.e, tt.asOf))
		})
	}
}
