package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/lifecycle"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/internal/permission"
)

// Kind names a mutation.
type Kind string

const (
	KindAddItem                 Kind = "add_item"
	KindUpdateItem              Kind = "update_item"
	KindRemoveItem              Kind = "remove_item"
	KindSetCharges              Kind = "set_charges"
	KindUpdateDetails           Kind = "update_details"
	KindAddParticipant          Kind = "add_participant"
	KindAddPendingParticipant   Kind = "add_pending_participant"
	KindJoinReceipt             Kind = "join_receipt"
	KindClaimPendingParticipant Kind = "claim_pending_participant"
	KindRemoveParticipant       Kind = "remove_participant"
	KindCloseParticipation      Kind = "close_participation"
	KindCloseReceipt            Kind = "close_receipt"
	KindRequestDeletion         Kind = "request_deletion"
	KindResolveDeletion         Kind = "resolve_deletion"
)

// Mutation is a requested change to a receipt. The set is closed: only the
// types in this package implement it.
type Mutation interface {
	Kind() Kind

	authorize(r *models.Receipt, caps permission.Capabilities) error
	validate(r *models.Receipt, caps permission.Capabilities) error
	apply(r *models.Receipt, ctx *applyContext) error
}

// AddItem adds a purchased line. Assignments without weights split equally.
type AddItem struct {
	ItemID      string
	Description string
	UnitCost    money.Money
	Quantity    int64
	Assignments []models.Assignment
}

func (AddItem) Kind() Kind { return KindAddItem }

func (m AddItem) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckItemChange(r, caps, assigneeIDs(m.Assignments))
}

func (m AddItem) validate(r *models.Receipt, _ permission.Capabilities) error {
	var v errs.Violations
	requireID(&v, "item_id", m.ItemID)
	validateItem(&v, m.Description, m.UnitCost, m.Quantity, m.Assignments)
	if err := v.Err(); err != nil {
		return err
	}
	if r.ItemIndex(m.ItemID) >= 0 {
		return errs.Conflictf(m.ItemID, "item id already in use")
	}
	return requireMembers(r, m.Assignments)
}

func (m AddItem) apply(r *models.Receipt, ctx *applyContext) error {
	item := models.Item{
		ID:          m.ItemID,
		Description: strings.TrimSpace(m.Description),
		UnitCost:    m.UnitCost,
		Quantity:    m.Quantity,
		Assignments: append([]models.Assignment(nil), m.Assignments...),
	}
	r.Items = append(r.Items, item)
	ctx.emit(r, models.EventItemAdded, item.Description, sortedIDs(item.AssigneeIDs())...)
	return nil
}

// UpdateItem replaces an item's description, cost, quantity and assignments.
type UpdateItem struct {
	ItemID      string
	Description string
	UnitCost    money.Money
	Quantity    int64
	Assignments []models.Assignment
}

func (UpdateItem) Kind() Kind { return KindUpdateItem }

func (m UpdateItem) authorize(r *models.Receipt, caps permission.Capabilities) error {
	if err := lifecycle.CheckItemChange(r, caps, assigneeIDs(m.Assignments)); err != nil {
		return err
	}
	if caps.IsCreator {
		return nil
	}
	idx := r.ItemIndex(m.ItemID)
	if idx < 0 {
		return nil // reported as NotFound by validate
	}
	current := r.Items[idx]
	if !current.HasAssignee(caps.ParticipantID) {
		return &errs.Error{Kind: errs.Forbidden, Ref: m.ItemID, Reason: "participants can only edit items they share"}
	}
	for _, id := range current.AssigneeIDs() {
		if mem, ok := r.Member(id); ok && mem.Closed {
			return &errs.Error{Kind: errs.Forbidden, Ref: id, Reason: "item is shared with a participant who closed participation"}
		}
	}
	return nil
}

func (m UpdateItem) validate(r *models.Receipt, _ permission.Capabilities) error {
	var v errs.Violations
	requireID(&v, "item_id", m.ItemID)
	validateItem(&v, m.Description, m.UnitCost, m.Quantity, m.Assignments)
	if err := v.Err(); err != nil {
		return err
	}
	if r.ItemIndex(m.ItemID) < 0 {
		return errs.NotFoundf(m.ItemID, "item not found")
	}
	return requireMembers(r, m.Assignments)
}

func (m UpdateItem) apply(r *models.Receipt, _ *applyContext) error {
	idx := r.ItemIndex(m.ItemID)
	it := &r.Items[idx]
	it.Description = strings.TrimSpace(m.Description)
	it.UnitCost = m.UnitCost
	it.Quantity = m.Quantity
	it.Assignments = append([]models.Assignment(nil), m.Assignments...)
	return nil
}

// RemoveItem deletes an item directly. Pending deletion requests for the
// item are resolved as approved.
type RemoveItem struct {
	ItemID string
}

func (RemoveItem) Kind() Kind { return KindRemoveItem }

func (m RemoveItem) authorize(r *models.Receipt, caps permission.Capabilities) error {
	if err := lifecycle.CheckOpen(r); err != nil {
		return err
	}
	if !caps.IsCreator && !caps.IsParticipant {
		return errs.Forbiddenf("only the creator or a participant can remove items")
	}
	idx := r.ItemIndex(m.ItemID)
	if idx < 0 {
		return errs.NotFoundf(m.ItemID, "item not found")
	}
	return lifecycle.CheckItemRemoval(r, caps, r.Items[idx])
}

func (RemoveItem) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (m RemoveItem) apply(r *models.Receipt, ctx *applyContext) error {
	item := r.Items[r.ItemIndex(m.ItemID)]
	removeItem(r, m.ItemID)

	for i := range r.DeletionRequests {
		d := &r.DeletionRequests[i]
		if d.ItemID == m.ItemID && d.Status == models.DeletionPending {
			d.Status = models.DeletionApproved
			d.ResolvedAt = ctx.at
			ctx.emit(r, models.EventDeletionResolved, string(d.Status), affected(d.RequestedBy, item)...)
		}
	}
	return nil
}

// SetCharges sets the service charge percentage and the cover.
type SetCharges struct {
	ServiceChargePercent decimal.Decimal
	Cover                money.Money
}

func (SetCharges) Kind() Kind { return KindSetCharges }

func (SetCharges) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckCreator(r, caps, "change charges")
}

func (m SetCharges) validate(*models.Receipt, permission.Capabilities) error {
	var v errs.Violations
	validateCharges(&v, m.ServiceChargePercent, m.Cover)
	return v.Err()
}

func (m SetCharges) apply(r *models.Receipt, _ *applyContext) error {
	r.ServiceChargePercent = m.ServiceChargePercent
	r.Cover = m.Cover
	return nil
}

// UpdateDetails changes the title and purchase date.
type UpdateDetails struct {
	Title string
	Date  time.Time
}

func (UpdateDetails) Kind() Kind { return KindUpdateDetails }

func (UpdateDetails) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckCreator(r, caps, "edit receipt details")
}

func (m UpdateDetails) validate(*models.Receipt, permission.Capabilities) error {
	if strings.TrimSpace(m.Title) == "" {
		return errs.Invalid("title", "must not be empty")
	}
	return nil
}

func (m UpdateDetails) apply(r *models.Receipt, _ *applyContext) error {
	r.Title = strings.TrimSpace(m.Title)
	r.Date = m.Date
	return nil
}

// AddParticipant lets the creator add a registered user.
type AddParticipant struct {
	ParticipantID string
	UserID        string
	DisplayName   string
}

func (AddParticipant) Kind() Kind { return KindAddParticipant }

func (AddParticipant) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckCreator(r, caps, "add participants")
}

func (m AddParticipant) validate(r *models.Receipt, _ permission.Capabilities) error {
	var v errs.Violations
	requireID(&v, "participant_id", m.ParticipantID)
	requireID(&v, "user_id", m.UserID)
	if strings.TrimSpace(m.DisplayName) == "" {
		v.Addf("display_name", "must not be empty")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if _, ok := r.Member(m.ParticipantID); ok {
		return errs.Conflictf(m.ParticipantID, "participant id already in use")
	}
	if p, ok := r.ParticipantByUser(m.UserID); ok {
		return errs.Conflictf(p.ID, "user is already a participant")
	}
	return nil
}

func (m AddParticipant) apply(r *models.Receipt, _ *applyContext) error {
	r.Participants = append(r.Participants, models.Participant{
		ID:          m.ParticipantID,
		DisplayName: strings.TrimSpace(m.DisplayName),
		UserID:      m.UserID,
	})
	return nil
}

// AddPendingParticipant lets the creator add someone without an account.
type AddPendingParticipant struct {
	ParticipantID string
	DisplayName   string
}

func (AddPendingParticipant) Kind() Kind { return KindAddPendingParticipant }

func (AddPendingParticipant) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckCreator(r, caps, "add participants")
}

func (m AddPendingParticipant) validate(r *models.Receipt, _ permission.Capabilities) error {
	var v errs.Violations
	requireID(&v, "participant_id", m.ParticipantID)
	if strings.TrimSpace(m.DisplayName) == "" {
		v.Addf("display_name", "must not be empty")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if _, ok := r.Member(m.ParticipantID); ok {
		return errs.Conflictf(m.ParticipantID, "participant id already in use")
	}
	return nil
}

func (m AddPendingParticipant) apply(r *models.Receipt, _ *applyContext) error {
	r.PendingParticipants = append(r.PendingParticipants, models.PendingParticipant{
		ID:          m.ParticipantID,
		DisplayName: strings.TrimSpace(m.DisplayName),
	})
	return nil
}

// JoinReceipt adds the acting user as a participant using the invite code.
type JoinReceipt struct {
	ParticipantID string
	InviteCode    string
	DisplayName   string
}

func (JoinReceipt) Kind() Kind { return KindJoinReceipt }

func (m JoinReceipt) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckJoin(r, caps, m.InviteCode)
}

func (m JoinReceipt) validate(r *models.Receipt, _ permission.Capabilities) error {
	var v errs.Violations
	requireID(&v, "participant_id", m.ParticipantID)
	if strings.TrimSpace(m.DisplayName) == "" {
		v.Addf("display_name", "must not be empty")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if _, ok := r.Member(m.ParticipantID); ok {
		return errs.Conflictf(m.ParticipantID, "participant id already in use")
	}
	return nil
}

func (m JoinReceipt) apply(r *models.Receipt, ctx *applyContext) error {
	r.Participants = append(r.Participants, models.Participant{
		ID:          m.ParticipantID,
		DisplayName: strings.TrimSpace(m.DisplayName),
		UserID:      ctx.actorID,
	})
	return nil
}

// ClaimPendingParticipant binds a pending participant to the acting user.
// The participant keeps its ID, so existing assignments carry over.
type ClaimPendingParticipant struct {
	InviteCode    string
	ParticipantID string
	// DisplayName overrides the placeholder name when set.
	DisplayName string
}

func (ClaimPendingParticipant) Kind() Kind { return KindClaimPendingParticipant }

func (m ClaimPendingParticipant) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckClaim(r, caps, m.InviteCode, m.ParticipantID)
}

func (ClaimPendingParticipant) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (m ClaimPendingParticipant) apply(r *models.Receipt, ctx *applyContext) error {
	for i, p := range r.PendingParticipants {
		if p.ID != m.ParticipantID {
			continue
		}
		name := p.DisplayName
		if n := strings.TrimSpace(m.DisplayName); n != "" {
			name = n
		}
		r.PendingParticipants = append(r.PendingParticipants[:i], r.PendingParticipants[i+1:]...)
		r.Participants = append(r.Participants, models.Participant{
			ID:          p.ID,
			DisplayName: name,
			UserID:      ctx.actorID,
			Closed:      p.Closed,
		})
		return nil
	}
	return errs.NotFoundf(m.ParticipantID, "pending participant not found")
}

// RemoveParticipant removes a participant without item assignments.
type RemoveParticipant struct {
	ParticipantID string
}

func (RemoveParticipant) Kind() Kind { return KindRemoveParticipant }

func (m RemoveParticipant) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckParticipantRemoval(r, caps, m.ParticipantID)
}

func (RemoveParticipant) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (m RemoveParticipant) apply(r *models.Receipt, ctx *applyContext) error {
	for i, p := range r.Participants {
		if p.ID == m.ParticipantID {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			break
		}
	}
	for i, p := range r.PendingParticipants {
		if p.ID == m.ParticipantID {
			r.PendingParticipants = append(r.PendingParticipants[:i], r.PendingParticipants[i+1:]...)
			break
		}
	}
	for i := range r.DeletionRequests {
		d := &r.DeletionRequests[i]
		if d.RequestedBy == m.ParticipantID && d.Status == models.DeletionPending {
			d.Status = models.DeletionRejected
			d.ResolvedAt = ctx.at
		}
	}
	return nil
}

// CloseParticipation stops further item assignments to a participant.
// An empty ParticipantID means the acting user's own participation.
type CloseParticipation struct {
	ParticipantID string
}

func (CloseParticipation) Kind() Kind { return KindCloseParticipation }

func (m CloseParticipation) target(caps permission.Capabilities) string {
	if m.ParticipantID == "" {
		return caps.ParticipantID
	}
	return m.ParticipantID
}

func (m CloseParticipation) authorize(r *models.Receipt, caps permission.Capabilities) error {
	_, err := lifecycle.CheckCloseParticipation(r, caps, m.target(caps))
	return err
}

func (CloseParticipation) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (m CloseParticipation) apply(r *models.Receipt, ctx *applyContext) error {
	id := m.target(ctx.caps)
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			if r.Participants[i].Closed {
				ctx.noop = true
				return nil
			}
			r.Participants[i].Closed = true
		}
	}
	for i := range r.PendingParticipants {
		if r.PendingParticipants[i].ID == id {
			if r.PendingParticipants[i].Closed {
				ctx.noop = true
				return nil
			}
			r.PendingParticipants[i].Closed = true
		}
	}
	ctx.emit(r, models.EventParticipationClosed, "", id)
	return nil
}

// CloseReceipt moves the receipt to its terminal closed state.
type CloseReceipt struct{}

func (CloseReceipt) Kind() Kind { return KindCloseReceipt }

func (CloseReceipt) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckCloseReceipt(r, caps)
}

func (CloseReceipt) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (CloseReceipt) apply(r *models.Receipt, ctx *applyContext) error {
	r.Closed = true
	members := r.Members()
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	ctx.emit(r, models.EventReceiptClosed, "", ids...)
	return nil
}

// RequestDeletion asks the creator to remove an item.
type RequestDeletion struct {
	RequestID string
	ItemID    string
}

func (RequestDeletion) Kind() Kind { return KindRequestDeletion }

func (m RequestDeletion) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckDeletionRequest(r, caps, m.ItemID)
}

func (m RequestDeletion) validate(r *models.Receipt, _ permission.Capabilities) error {
	if strings.TrimSpace(m.RequestID) == "" {
		return errs.Invalid("request_id", "must not be empty")
	}
	if r.RequestIndex(m.RequestID) >= 0 {
		return errs.Conflictf(m.RequestID, "request id already in use")
	}
	return nil
}

func (m RequestDeletion) apply(r *models.Receipt, ctx *applyContext) error {
	item := r.Items[r.ItemIndex(m.ItemID)]
	r.DeletionRequests = append(r.DeletionRequests, models.DeletionRequest{
		ID:          m.RequestID,
		ItemID:      m.ItemID,
		RequestedBy: ctx.caps.ParticipantID,
		Status:      models.DeletionPending,
		CreatedAt:   ctx.at,
	})
	ctx.emit(r, models.EventDeletionRequested, item.Description, affected(ctx.caps.ParticipantID, item)...)
	return nil
}

// ResolveDeletion approves (removing the item) or rejects a pending request.
type ResolveDeletion struct {
	RequestID string
	Approve   bool
}

func (ResolveDeletion) Kind() Kind { return KindResolveDeletion }

func (m ResolveDeletion) authorize(r *models.Receipt, caps permission.Capabilities) error {
	return lifecycle.CheckDeletionResolution(r, caps, m.RequestID)
}

func (ResolveDeletion) validate(*models.Receipt, permission.Capabilities) error { return nil }

func (m ResolveDeletion) apply(r *models.Receipt, ctx *applyContext) error {
	d := &r.DeletionRequests[r.RequestIndex(m.RequestID)]
	item := r.Items[r.ItemIndex(d.ItemID)]

	d.ResolvedAt = ctx.at
	if m.Approve {
		d.Status = models.DeletionApproved
		removeItem(r, d.ItemID)
	} else {
		d.Status = models.DeletionRejected
	}
	ctx.emit(r, models.EventDeletionResolved, string(d.Status), affected(d.RequestedBy, item)...)
	return nil
}

func removeItem(r *models.Receipt, itemID string) {
	idx := r.ItemIndex(itemID)
	if idx < 0 {
		return
	}
	r.Items = append(r.Items[:idx], r.Items[idx+1:]...)
}

// affected returns the requester plus the item's assignees, sorted and unique.
func affected(requester string, item models.Item) []string {
	ids := append([]string{requester}, item.AssigneeIDs()...)
	return sortedIDs(ids)
}

func sortedIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func assigneeIDs(as []models.Assignment) []string {
	ids := make([]string, len(as))
	for i, a := range as {
		ids[i] = a.ParticipantID
	}
	return ids
}
