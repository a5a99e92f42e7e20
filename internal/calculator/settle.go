package calculator

import (
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// ReceiptTotal computes the receipt total independently of any per-person
// split: subtotal + round_half_up(subtotal * percent / 100) + cover.
func ReceiptTotal(r *models.Receipt) money.Money {
	sub := r.Subtotal()
	service, _ := sub.Percent(r.ServiceChargePercent)
	return sub.Add(service).Add(r.Cover)
}

// Settle computes the settlement for a well-formed receipt. Every item must
// have at least one assignee and every assignee must be a member; a violation
// is an internal error since the engine rejects such input earlier.
func Settle(r *models.Receipt) (models.Settlement, error) {
	members := r.Members()
	ids := make([]string, len(members))
	byID := make(map[string]models.Member, len(members))
	for i, m := range members {
		ids[i] = m.ID
		byID[m.ID] = m
	}

	for _, it := range r.Items {
		if len(it.Assignments) == 0 {
			return models.Settlement{}, errs.Internalf("item %s has no assignees", it.ID)
		}
	}

	allocs := Allocate(r.Items)
	raw := make(map[string]money.Money, len(allocs))
	for id, a := range allocs {
		if _, ok := byID[id]; !ok {
			return models.Settlement{}, errs.Internalf("item assigned to unknown participant %s", id)
		}
		raw[id] = a.Subtotal
	}

	charges, err := DistributeCharges(raw, ids, r.ServiceChargePercent, r.Cover)
	if err != nil {
		return models.Settlement{}, errs.Internalf("failed to distribute charges: %v", err)
	}

	sub := r.Subtotal()
	service, _ := sub.Percent(r.ServiceChargePercent)
	total := sub.Add(service).Add(r.Cover)

	charges, err = Reconcile(charges, total)
	if err != nil {
		return models.Settlement{}, err
	}

	people := make([]models.PersonSettlement, len(charges))
	for i, c := range charges {
		m := byID[c.ParticipantID]
		p := models.PersonSettlement{
			ParticipantID: c.ParticipantID,
			DisplayName:   m.DisplayName,
			Pending:       m.Pending,
			Subtotal:      c.Subtotal,
			ServiceCharge: c.Service,
			Cover:         c.Cover,
			Adjustment:    c.Adjustment,
			Total:         c.Total(),
			Items:         []models.PersonItem{},
		}
		if a, ok := allocs[c.ParticipantID]; ok {
			p.Items = a.Items
		}
		people[i] = p
	}

	return models.Settlement{
		ReceiptID:     r.ID,
		Version:       r.Version,
		Subtotal:      sub,
		ServiceCharge: service,
		Cover:         r.Cover,
		Total:         total,
		People:        people,
	}, nil
}
