package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// Weights are compared at this many decimal places.
const weightPrecision = 4

var (
	one        = decimal.NewFromInt(1)
	maxPercent = decimal.NewFromInt(100)
)

func requireID(v *errs.Violations, field, id string) {
	if strings.TrimSpace(id) == "" {
		v.Addf(field, "must not be empty")
	}
}

func validateCharges(v *errs.Violations, percent decimal.Decimal, cover money.Money) {
	if percent.IsNegative() || percent.GreaterThan(maxPercent) {
		v.Addf("service_charge_percent", "must be between 0 and 100, got %s", percent)
	}
	if cover.IsNegative() {
		v.Addf("cover", "must not be negative, got %s", cover)
	}
}

func validateItem(v *errs.Violations, description string, unitCost money.Money, quantity int64, assignments []models.Assignment) {
	if strings.TrimSpace(description) == "" {
		v.Addf("description", "must not be empty")
	}
	if unitCost.IsNegative() {
		v.Addf("unit_cost", "must not be negative, got %s", unitCost)
	}
	if quantity < 1 {
		v.Addf("quantity", "must be at least 1, got %d", quantity)
	}
	if _, ok := unitCost.MulWithin(quantity); !ok {
		v.Addf("quantity", "unit cost %s times %d exceeds %s", unitCost, quantity, money.MaxAmount)
	}
	if len(assignments) == 0 {
		v.Addf("assignments", "at least one assignee is required")
		return
	}

	seen := make(map[string]bool, len(assignments))
	zero, positive := 0, 0
	sum := decimal.Zero
	for _, a := range assignments {
		if strings.TrimSpace(a.ParticipantID) == "" {
			v.Addf("assignments", "participant id must not be empty")
			continue
		}
		if seen[a.ParticipantID] {
			v.Addf("assignments", "participant %s assigned twice", a.ParticipantID)
		}
		seen[a.ParticipantID] = true

		switch {
		case a.Weight.IsZero():
			zero++
		case a.Weight.IsNegative():
			v.Addf("assignments", "weight for %s must be positive, got %s", a.ParticipantID, a.Weight)
		default:
			positive++
			sum = sum.Add(a.Weight)
		}
	}

	if zero > 0 && positive > 0 {
		v.Addf("assignments", "weights must be given for every assignee or for none")
		return
	}
	if positive > 0 && !sum.Round(weightPrecision).Equal(one) {
		v.Addf("assignments", "weights must sum to 1, got %s", sum)
	}
}

// CheckRange reports an InvalidInput error when an item amount, the subtotal
// or the total of r falls outside [0, money.MaxAmount].
func CheckRange(r *models.Receipt) error {
	var subtotal money.Money
	for _, it := range r.Items {
		amount, ok := it.UnitCost.MulWithin(it.Quantity)
		if !ok {
			return errs.Invalid("items", fmt.Sprintf("amount of item %s exceeds %s", it.ID, money.MaxAmount))
		}
		subtotal = subtotal.Add(amount)
		if subtotal > money.MaxAmount {
			return errs.Invalid("items", fmt.Sprintf("subtotal exceeds %s", money.MaxAmount))
		}
	}
	if r.Cover > money.MaxAmount || r.ServiceChargePercent.GreaterThan(maxPercent) {
		return errs.Invalid("charges", "service charge or cover out of range")
	}
	charge, _ := subtotal.Percent(r.ServiceChargePercent)
	if subtotal.Add(charge).Add(r.Cover) > money.MaxAmount {
		return errs.Invalid("total", fmt.Sprintf("total exceeds %s", money.MaxAmount))
	}
	return nil
}

// requireMembers reports the first assignee that is neither a participant nor
// a pending participant.
func requireMembers(r *models.Receipt, assignments []models.Assignment) error {
	for _, a := range assignments {
		if _, ok := r.Member(a.ParticipantID); !ok {
			return errs.NotFoundf(a.ParticipantID, "participant not found")
		}
	}
	return nil
}
