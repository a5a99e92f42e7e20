package calculator

import (
	"sort"

	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Reconcile corrects per-participant rounding so that the totals add up to
// target exactly.
//
// drift = target - Σ totals. Positive drift adds one cent to the participants
// that were rounded down with the largest fractional remainder; negative drift
// takes one cent from those rounded up with the smallest remainder. Ties go to
// the lower participant ID. Each participant moves by at most one cent.
//
// The input slice is not modified.
func Reconcile(charges []Charge, target money.Money) ([]Charge, error) {
	out := append([]Charge(nil), charges...)

	var sum money.Money
	for _, c := range out {
		sum = sum.Add(c.Total())
	}
	drift := target.Sub(sum)
	if drift.IsZero() {
		return out, nil
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}

	if drift > 0 {
		// Rounded-down participants first, largest fraction first.
		sort.SliceStable(order, func(x, y int) bool {
			a, b := out[order[x]], out[order[y]]
			if a.roundedUp() != b.roundedUp() {
				return !a.roundedUp()
			}
			if c := a.Fraction.Cmp(b.Fraction); c != 0 {
				return c > 0
			}
			return a.ParticipantID < b.ParticipantID
		})
		for _, idx := range order {
			if drift.IsZero() {
				break
			}
			out[idx].Service++
			out[idx].Adjustment++
			drift--
		}
	} else {
		// Rounded-up participants first, smallest fraction first.
		sort.SliceStable(order, func(x, y int) bool {
			a, b := out[order[x]], out[order[y]]
			if a.roundedUp() != b.roundedUp() {
				return a.roundedUp()
			}
			if c := a.Fraction.Cmp(b.Fraction); c != 0 {
				return c < 0
			}
			return a.ParticipantID < b.ParticipantID
		})
		for _, idx := range order {
			if drift.IsZero() {
				break
			}
			if out[idx].Service <= 0 {
				continue
			}
			out[idx].Service--
			out[idx].Adjustment--
			drift++
		}
	}

	if !drift.IsZero() {
		return nil, errs.Internalf("reconciliation left %s unallocated across %d participants", drift, len(out))
	}
	return out, nil
}
