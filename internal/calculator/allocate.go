// Package calculator computes per-participant totals for a receipt.
//
// The pipeline is Allocate (items → raw subtotals), DistributeCharges
// (service charge and cover on top), then Reconcile (fix rounding drift so the
// totals add up to the receipt total). Settle runs all three. Every function is
// pure and works on integer minor units.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Allocation is one participant's raw share of the items.
type Allocation struct {
	ParticipantID string
	Subtotal      money.Money
	Items         []models.PersonItem
}

// Allocate distributes every item's amount over its assignees.
//
// Algorithm, per item:
//   - equal split: amount / n, remainder one cent at a time to the last
//     assignees in ascending ID order
//   - weighted: floor(amount * w / Σw) each, leftover cents by largest
//     fractional remainder, ties to the higher ID
//
// The raw subtotals add up to the sum of item amounts exactly. Items without
// assignees are skipped; callers reject them before this point.
func Allocate(items []models.Item) map[string]*Allocation {
	allocs := make(map[string]*Allocation)

	for _, item := range items {
		if len(item.Assignments) == 0 {
			continue
		}

		var shares []share
		if item.EqualSplit() {
			shares = equalShares(item)
		} else {
			shares = weightedShares(item)
		}

		for _, s := range shares {
			a, ok := allocs[s.participantID]
			if !ok {
				a = &Allocation{ParticipantID: s.participantID}
				allocs[s.participantID] = a
			}
			a.Subtotal = a.Subtotal.Add(s.amount)
			a.Items = append(a.Items, models.PersonItem{
				ItemID:      item.ID,
				Description: item.Description,
				Amount:      s.amount,
			})
		}
	}

	return allocs
}

type share struct {
	participantID string
	amount        money.Money
	frac          decimal.Decimal
}

func equalShares(item models.Item) []share {
	ids := item.AssigneeIDs()
	sort.Strings(ids)

	// Split only fails for n <= 0 or a negative amount, both rejected upstream.
	q, rem, err := item.Amount().Split(len(ids))
	if err != nil {
		return nil
	}

	shares := make([]share, len(ids))
	for i, id := range ids {
		shares[i] = share{participantID: id, amount: q}
	}
	for i := len(shares) - 1; rem > 0; i-- {
		shares[i].amount++
		rem--
	}
	return shares
}

func weightedShares(item models.Item) []share {
	amount := decimal.NewFromInt(item.Amount().Cents())

	total := decimal.Zero
	for _, a := range item.Assignments {
		total = total.Add(a.Weight)
	}

	shares := make([]share, len(item.Assignments))
	var assigned money.Money
	for i, a := range item.Assignments {
		exact := amount.Mul(a.Weight).Div(total)
		floor := exact.Floor()
		shares[i] = share{
			participantID: a.ParticipantID,
			amount:        money.Money(floor.IntPart()),
			frac:          exact.Sub(floor),
		}
		assigned = assigned.Add(shares[i].amount)
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := shares[order[x]], shares[order[y]]
		if c := a.frac.Cmp(b.frac); c != 0 {
			return c > 0
		}
		return a.participantID > b.participantID
	})

	leftover := item.Amount().Sub(assigned)
	for k := 0; leftover > 0; k++ {
		shares[order[k%len(order)]].amount++
		leftover--
	}
	for k := len(order) - 1; leftover < 0; k-- {
		idx := order[(k%len(order)+len(order))%len(order)]
		if shares[idx].amount > 0 {
			shares[idx].amount--
			leftover++
		}
	}
	return shares
}
