package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/money"
)

// Charge is one participant's amounts after service charge and cover.
type Charge struct {
	ParticipantID string
	Subtotal      money.Money

	// Service is the rounded service charge share, plus Adjustment once
	// reconciled.
	Service money.Money

	// Fraction is the exact service charge share minus its floor. The
	// reconciliation pass ranks participants by it.
	Fraction decimal.Decimal

	Cover money.Money

	// Adjustment is the reconciliation correction (-1, 0 or +1).
	Adjustment money.Money
}

// Total is what the participant owes.
func (c Charge) Total() money.Money {
	return c.Subtotal.Add(c.Service).Add(c.Cover)
}

// roundedUp reports whether half-up rounding moved Service above the exact value.
func (c Charge) roundedUp() bool {
	return c.Fraction.GreaterThanOrEqual(half)
}

var half = decimal.RequireFromString("0.5")

// DistributeCharges applies the service charge percentage to each raw
// subtotal (half-up per participant) and splits cover equally across every
// member, with the cover remainder going one cent at a time to members in
// ascending ID order.
//
// memberIDs must contain every key of raw. Members without items get a zero
// subtotal but still pay their cover share. The result is ordered by ID.
func DistributeCharges(raw map[string]money.Money, memberIDs []string, percent decimal.Decimal, cover money.Money) ([]Charge, error) {
	ids := append([]string(nil), memberIDs...)
	sort.Strings(ids)

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		if known[id] {
			return nil, fmt.Errorf("duplicate participant %s", id)
		}
		known[id] = true
	}
	for id := range raw {
		if !known[id] {
			return nil, fmt.Errorf("subtotal for unknown participant %s", id)
		}
	}

	if len(ids) == 0 {
		if !cover.IsZero() {
			return nil, fmt.Errorf("cannot split cover %s among zero participants", cover)
		}
		return []Charge{}, nil
	}

	coverShare, coverRem, err := cover.Split(len(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to split cover: %w", err)
	}

	charges := make([]Charge, len(ids))
	for i, id := range ids {
		sub := raw[id]
		service, frac := sub.Percent(percent)
		c := Charge{
			ParticipantID: id,
			Subtotal:      sub,
			Service:       service,
			Fraction:      frac,
			Cover:         coverShare,
		}
		if money.Money(i) < coverRem {
			c.Cover++
		}
		charges[i] = c
	}

	return charges, nil
}
