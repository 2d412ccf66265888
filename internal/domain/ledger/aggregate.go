package ledger

import (
	"bytes"
	"sort"
	"time"

	"canteenledger/internal/core/types"
)

// MonthlySummary is the derived per-month view of a ledger. It is never
// stored; every query reconstructs it from the entry set so there is no
// stale-cache invalidation problem.
type MonthlySummary struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	// OpeningBalance equals the previous period's closing balance
	// (0 for the first period).
	OpeningBalance types.Quantity `json:"openingBalance"`

	TotalAdded   types.Quantity `json:"totalAdded"`
	TotalUsed    types.Quantity `json:"totalUsed"`
	TotalDamaged types.Quantity `json:"totalDamaged"`

	// TotalExpired counts write-offs of entries added in this period.
	TotalExpired types.Quantity `json:"totalExpired"`

	// ExpiredCarryover counts write-offs that land in this period but
	// originate from entries added in a prior period. Kept separate so
	// carryover expiry reduces the opening-balance contribution rather
	// than the current month's gross figures.
	ExpiredCarryover types.Quantity `json:"expiredCarryover"`

	ClosingBalance types.Quantity `json:"closingBalance"`
}

// Period returns the summary's period.
func (s MonthlySummary) Period() Period {
	return Period{Year: s.Year, Month: s.Month}
}

// sortEntries orders entries ascending by entry date, then by id as a
// tie-break, keeping same-day aggregation deterministic.
func sortEntries(entries []StockEntry) []StockEntry {
	sorted := make([]StockEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EntryDate.Equal(sorted[j].EntryDate) {
			return sorted[i].EntryDate.Before(sorted[j].EntryDate)
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})
	return sorted
}

// expiryPeriod returns the period a write-off is attributed to: the month of
// the expire date, but never earlier than the month the stock was added.
func expiryPeriod(e *StockEntry) Period {
	entry := PeriodOf(e.EntryDate)
	expire := PeriodOf(*e.ExpireDate)
	if expire.Before(entry) {
		return entry
	}
	return expire
}

// checkIntegrity validates every entry before aggregation.
func checkIntegrity(entries []StockEntry) error {
	for i := range entries {
		if err := entries[i].CheckIntegrity(); err != nil {
			return err
		}
	}
	return nil
}

// Summarize computes the MonthlySummary for the given period, evaluating
// expiry at asOf. The opening balance is reconstructed by replaying the full
// entry history month by month from the earliest entry, so
// Summarize(M).ClosingBalance == Summarize(M+1).OpeningBalance always holds.
func Summarize(entries []StockEntry, year int, month time.Month, asOf time.Time) (MonthlySummary, error) {
	target := Period{Year: year, Month: month}

	if err := checkIntegrity(entries); err != nil {
		return MonthlySummary{}, err
	}

	sorted := sortEntries(entries)

	var opening types.Quantity
	if len(sorted) > 0 {
		p := PeriodOf(sorted[0].EntryDate)
		for p.Before(target) {
			s := summarizePeriod(sorted, p, opening, asOf)
			opening = s.ClosingBalance
			p = p.Next()
		}
	}

	return summarizePeriod(sorted, target, opening, asOf), nil
}

// summarizePeriod computes one period's figures given its opening balance.
func summarizePeriod(sorted []StockEntry, p Period, opening types.Quantity, asOf time.Time) MonthlySummary {
	s := MonthlySummary{
		Year:           p.Year,
		Month:          p.Month,
		OpeningBalance: opening,
	}

	for i := range sorted {
		e := &sorted[i]
		inPeriod := p.Contains(e.EntryDate)

		if inPeriod {
			s.TotalAdded += e.QuantityAdded
			s.TotalUsed += e.UsedStock
			s.TotalDamaged += e.DamageStock
		}

		if e.ExpireDate == nil || !IsExpired(e, asOf) {
			continue
		}
		if expiryPeriod(e) != p {
			continue
		}
		if inPeriod {
			s.TotalExpired += e.Remaining()
		} else {
			s.ExpiredCarryover += e.Remaining()
		}
	}

	closing := s.OpeningBalance + s.TotalAdded - s.TotalUsed - s.TotalDamaged - s.TotalExpired - s.ExpiredCarryover
	if closing < 0 {
		closing = 0
	}
	s.ClosingBalance = closing
	return s
}

// CurrentBalance returns the quantity on hand at asOf: the sum of every
// entry's remaining quantity net of expiry write-offs, over entries dated at
// or before asOf.
func CurrentBalance(entries []StockEntry, asOf time.Time) (types.Quantity, error) {
	if err := checkIntegrity(entries); err != nil {
		return 0, err
	}

	var total types.Quantity
	for i := range entries {
		e := &entries[i]
		if e.EntryDate.After(asOf) {
			continue
		}
		total += e.Remaining() - RemainingExpired(e, asOf)
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}
