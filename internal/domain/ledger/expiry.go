package ledger

import (
	"time"

	"canteenledger/internal/core/types"
)

// Expiry policy: an entry is considered expired only once the query instant
// has passed 00:01 of the day *following* ExpireDate. The one-day grace
// window lets same-day sales of expiring stock go through before the
// write-off takes effect.

// GraceDeadline returns the instant at which the entry's remaining stock is
// written off, or the zero time if the entry never expires.
func GraceDeadline(e *StockEntry) time.Time {
	if e.ExpireDate == nil {
		return time.Time{}
	}
	y, m, d := e.ExpireDate.Date()
	return time.Date(y, m, d+1, 0, 1, 0, 0, e.ExpireDate.Location())
}

// IsExpired reports whether the entry's grace deadline has passed at asOf.
func IsExpired(e *StockEntry, asOf time.Time) bool {
	deadline := GraceDeadline(e)
	if deadline.IsZero() {
		return false
	}
	return !asOf.Before(deadline)
}

// RemainingExpired computes how much of the entry's remaining quantity has
// crossed into expired state at asOf. Expiry is all-or-nothing per entry:
// once the grace deadline passes, the entire remaining quantity
// (quantityAdded - usedStock - damageStock, floored at 0) is written off.
//
// Pure function of (entry, asOf). Expired state is never stored; callers
// must evaluate it with the query time so that the same entries answer
// consistently for any asOf.
func RemainingExpired(e *StockEntry, asOf time.Time) types.Quantity {
	if !IsExpired(e, asOf) {
		return 0
	}
	return e.Remaining()
}
