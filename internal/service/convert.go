package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/engine"
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/internal/permission"
	"github.com/mmynk/receiptsplit/pkg/api"
)

// parseMoney converts a display string; empty means zero.
func parseMoney(field, s string) (money.Money, error) {
	if strings.TrimSpace(s) == "" {
		return money.Zero, nil
	}
	m, err := money.Parse(s)
	if err != nil {
		return 0, errs.Invalid(field, err.Error())
	}
	return m, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errs.Invalid(field, "not a decimal number")
	}
	return d, nil
}

func parseDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(api.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errs.Invalid(field, "expected YYYY-MM-DD")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(api.DateLayout)
}

func parseAssignments(in []api.Assignment) ([]models.Assignment, error) {
	out := make([]models.Assignment, len(in))
	for i, a := range in {
		w, err := parseDecimal("assignments.weight", a.Weight)
		if err != nil {
			return nil, err
		}
		out[i] = models.Assignment{ParticipantID: a.ParticipantID, Weight: w}
	}
	return out, nil
}

func toAPIReceipt(r *models.Receipt) api.Receipt {
	out := api.Receipt{
		ID:                   r.ID,
		Title:                r.Title,
		Date:                 formatDate(r.Date),
		CreatorID:            r.CreatorID,
		InviteCode:           r.InviteCode,
		ServiceChargePercent: r.ServiceChargePercent.String(),
		Cover:                r.Cover.String(),
		Subtotal:             r.Subtotal().String(),
		Total:                r.Total.String(),
		Closed:               r.Closed,
		Version:              r.Version,
		Participants:         make([]api.Participant, 0, len(r.Participants)+len(r.PendingParticipants)),
		Items:                make([]api.Item, len(r.Items)),
		DeletionRequests:     make([]api.DeletionRequest, len(r.DeletionRequests)),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	for _, m := range r.Members() {
		out.Participants = append(out.Participants, api.Participant{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			UserID:      m.UserID,
			Pending:     m.Pending,
			Closed:      m.Closed,
		})
	}
	for i, it := range r.Items {
		item := api.Item{
			ID:          it.ID,
			Description: it.Description,
			UnitCost:    it.UnitCost.String(),
			Quantity:    it.Quantity,
			Amount:      it.Amount().String(),
			Assignments: make([]api.Assignment, len(it.Assignments)),
		}
		for j, a := range it.Assignments {
			item.Assignments[j] = api.Assignment{ParticipantID: a.ParticipantID}
			if !a.Weight.IsZero() {
				item.Assignments[j].Weight = a.Weight.String()
			}
		}
		out.Items[i] = item
	}
	for i, d := range r.DeletionRequests {
		req := api.DeletionRequest{
			ID:          d.ID,
			ItemID:      d.ItemID,
			RequestedBy: d.RequestedBy,
			Status:      string(d.Status),
			CreatedAt:   d.CreatedAt,
		}
		if !d.ResolvedAt.IsZero() {
			resolved := d.ResolvedAt
			req.ResolvedAt = &resolved
		}
		out.DeletionRequests[i] = req
	}
	return out
}

func toAPISettlement(s models.Settlement) api.Settlement {
	out := api.Settlement{
		ReceiptID:     s.ReceiptID,
		Version:       s.Version,
		Subtotal:      s.Subtotal.String(),
		ServiceCharge: s.ServiceCharge.String(),
		Cover:         s.Cover.String(),
		Total:         s.Total.String(),
		People:        make([]api.PersonSettlement, len(s.People)),
	}
	for i, p := range s.People {
		ps := api.PersonSettlement{
			ParticipantID: p.ParticipantID,
			DisplayName:   p.DisplayName,
			Pending:       p.Pending,
			Subtotal:      p.Subtotal.String(),
			ServiceCharge: p.ServiceCharge.String(),
			Cover:         p.Cover.String(),
			Adjustment:    p.Adjustment.String(),
			Total:         p.Total.String(),
			Items:         make([]api.PersonItem, len(p.Items)),
		}
		for j, it := range p.Items {
			ps.Items[j] = api.PersonItem{ItemID: it.ItemID, Description: it.Description, Amount: it.Amount.String()}
		}
		out.People[i] = ps
	}
	return out
}

func toAPICapabilities(c permission.Capabilities) api.Capabilities {
	return api.Capabilities{
		IsCreator:             c.IsCreator,
		IsParticipant:         c.IsParticipant,
		ParticipantID:         c.ParticipantID,
		CanModifyReceipt:      c.CanModifyReceipt,
		CanAddItems:           c.CanAddItems,
		CanCloseReceipt:       c.CanCloseReceipt,
		CanCloseParticipation: c.CanCloseParticipation,
	}
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   time.Unix(u.CreatedAt, 0).UTC(),
	}
}

func toAPIBalances(balances []calculator.MemberBalance, debts []calculator.DebtEdge, names map[string]string) api.GetBalancesResponse {
	out := api.GetBalancesResponse{
		Balances: make([]api.MemberBalance, len(balances)),
		Debts:    make([]api.Debt, len(debts)),
	}
	for i, b := range balances {
		out.Balances[i] = api.MemberBalance{
			MemberID:    b.MemberID,
			DisplayName: names[b.MemberID],
			NetBalance:  b.NetBalance.String(),
			TotalPaid:   b.TotalPaid.String(),
			TotalOwed:   b.TotalOwed.String(),
		}
	}
	for i, d := range debts {
		out.Debts[i] = api.Debt{From: d.From, To: d.To, Amount: d.Amount.String()}
	}
	return out
}

// ReceiptFromAPI rebuilds a receipt from its wire form. Derived amounts
// (subtotal, total, item amounts) are ignored and recomputed on use.
func ReceiptFromAPI(in api.Receipt) (*models.Receipt, error) {
	percent, err := parseDecimal("service_charge_percent", in.ServiceChargePercent)
	if err != nil {
		return nil, err
	}
	cover, err := parseMoney("cover", in.Cover)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}

	r := &models.Receipt{
		ID:                   in.ID,
		Title:                in.Title,
		Date:                 date,
		CreatorID:            in.CreatorID,
		InviteCode:           in.InviteCode,
		ServiceChargePercent: percent,
		Cover:                cover,
		Closed:               in.Closed,
		Version:              in.Version,
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
	for _, p := range in.Participants {
		if p.Pending {
			r.PendingParticipants = append(r.PendingParticipants, models.PendingParticipant{
				ID: p.ID, DisplayName: p.DisplayName, Closed: p.Closed,
			})
			continue
		}
		r.Participants = append(r.Participants, models.Participant{
			ID: p.ID, DisplayName: p.DisplayName, UserID: p.UserID, Closed: p.Closed,
		})
	}
	for _, it := range in.Items {
		cost, err := parseMoney("items.unit_cost", it.UnitCost)
		if err != nil {
			return nil, err
		}
		assignments, err := parseAssignments(it.Assignments)
		if err != nil {
			return nil, err
		}
		r.Items = append(r.Items, models.Item{
			ID:          it.ID,
			Description: it.Description,
			UnitCost:    cost,
			Quantity:    it.Quantity,
			Assignments: assignments,
		})
	}
	for _, d := range in.DeletionRequests {
		req := models.DeletionRequest{
			ID:          d.ID,
			ItemID:      d.ItemID,
			RequestedBy: d.RequestedBy,
			Status:      models.DeletionStatus(d.Status),
			CreatedAt:   d.CreatedAt,
		}
		if d.ResolvedAt != nil {
			req.ResolvedAt = *d.ResolvedAt
		}
		r.DeletionRequests = append(r.DeletionRequests, req)
	}
	if err := engine.CheckRange(r); err != nil {
		return nil, err
	}
	return r, nil
}
