// Package lifecycle holds the receipt state machine: which mutation is allowed
// in which state, and for whom.
//
// A receipt is open or closed; closed is terminal. Each participant has an
// orthogonal participation flag. Checks only read the receipt and return a
// classified *errs.Error on refusal.
package lifecycle

import (
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/permission"
)

// State is the receipt lifecycle state.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// ParticipationState is the per-participant flag.
type ParticipationState string

const (
	ParticipationOpen   ParticipationState = "participation_open"
	ParticipationClosed ParticipationState = "participation_closed"
)

// StateOf returns the receipt state.
func StateOf(r *models.Receipt) State {
	if r.Closed {
		return StateClosed
	}
	return StateOpen
}

// ParticipationOf returns the participation state of a member.
func ParticipationOf(m models.Member) ParticipationState {
	if m.Closed {
		return ParticipationClosed
	}
	return ParticipationOpen
}

// CheckOpen refuses every mutation on a closed receipt.
func CheckOpen(r *models.Receipt) error {
	if r.Closed {
		return errs.Forbiddenf("receipt %s is closed", r.ID)
	}
	return nil
}

// CheckCreator refuses receipt-level changes by anyone but the creator.
func CheckCreator(r *models.Receipt, caps permission.Capabilities, action string) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if !caps.CanModifyReceipt {
		return errs.Forbiddenf("only the creator can %s", action)
	}
	return nil
}

// CheckCloseReceipt allows open → closed for the creator once no deletion
// request is pending.
func CheckCloseReceipt(r *models.Receipt, caps permission.Capabilities) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if !caps.CanCloseReceipt {
		return errs.Forbiddenf("only the creator can close the receipt")
	}
	if r.HasPendingDeletion() {
		return errs.Conflictf(r.ID, "resolve pending deletion requests before closing")
	}
	return nil
}

// CheckCloseParticipation allows a participant (or the creator on their
// behalf) to close participation. Closing an already closed participation is
// a no-op, reported through noop. Pending participants cannot authenticate,
// so only the creator closes them.
func CheckCloseParticipation(r *models.Receipt, caps permission.Capabilities, participantID string) (noop bool, err error) {
	if err := CheckOpen(r); err != nil {
		return false, err
	}

	self := caps.IsParticipant && caps.ParticipantID == participantID
	if !self && !caps.IsCreator {
		return false, errs.Forbiddenf("only the participant or the creator can close participation")
	}

	m, ok := r.Member(participantID)
	if !ok {
		return false, errs.NotFoundf(participantID, "participant not found")
	}
	return m.Closed, nil
}

// CheckItemChange allows adding or editing an item with the given assignees.
// The creator may assign anyone. Other participants must have open
// participation, be among the assignees, and may not assign members whose
// participation is closed.
func CheckItemChange(r *models.Receipt, caps permission.Capabilities, assignees []string) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if !caps.CanAddItems {
		return errs.Forbiddenf("adding items is not allowed")
	}
	if caps.IsCreator {
		return nil
	}

	self := false
	for _, id := range assignees {
		if id == caps.ParticipantID {
			self = true
		}
		if m, ok := r.Member(id); ok && m.Closed {
			return &errs.Error{Kind: errs.Forbidden, Ref: id, Reason: "participant no longer accepts items"}
		}
	}
	if !self {
		return errs.Forbiddenf("participants can only add items they share")
	}
	return nil
}

// CheckItemRemoval allows the creator, or the item's sole assignee with open
// participation, to remove an item directly. Everyone else files a deletion
// request.
func CheckItemRemoval(r *models.Receipt, caps permission.Capabilities, item models.Item) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if caps.IsCreator {
		return nil
	}
	if caps.CanAddItems && len(item.Assignments) == 1 && item.Assignments[0].ParticipantID == caps.ParticipantID {
		return nil
	}
	return &errs.Error{Kind: errs.Forbidden, Ref: item.ID, Reason: "request deletion from the creator instead"}
}

// CheckDeletionRequest allows a non-creator participant assigned to an item to
// ask for its removal.
func CheckDeletionRequest(r *models.Receipt, caps permission.Capabilities, itemID string) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if caps.IsCreator {
		return errs.Forbiddenf("the creator removes items directly")
	}
	if !caps.IsParticipant {
		return errs.Forbiddenf("only participants can request deletion")
	}

	idx := r.ItemIndex(itemID)
	if idx < 0 {
		for _, d := range r.DeletionRequests {
			if d.ItemID == itemID && d.Status == models.DeletionApproved {
				return errs.Conflictf(itemID, "item already deleted")
			}
		}
		return errs.NotFoundf(itemID, "item not found")
	}
	if !r.Items[idx].HasAssignee(caps.ParticipantID) {
		return &errs.Error{Kind: errs.Forbidden, Ref: itemID, Reason: "only assignees can request deletion"}
	}
	for _, d := range r.DeletionRequests {
		if d.ItemID == itemID && d.Status == models.DeletionPending {
			return errs.Conflictf(d.ID, "a deletion request for this item is already pending")
		}
	}
	return nil
}

// CheckDeletionResolution allows the creator to approve or reject a pending
// request whose item still exists.
func CheckDeletionResolution(r *models.Receipt, caps permission.Capabilities, requestID string) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if !caps.IsCreator {
		return errs.Forbiddenf("only the creator can resolve deletion requests")
	}

	idx := r.RequestIndex(requestID)
	if idx < 0 {
		return errs.NotFoundf(requestID, "deletion request not found")
	}
	req := r.DeletionRequests[idx]
	if req.Status != models.DeletionPending {
		return errs.Conflictf(requestID, "deletion request already %s", req.Status)
	}
	if r.ItemIndex(req.ItemID) < 0 {
		return errs.Conflictf(req.ItemID, "item already deleted")
	}
	return nil
}

// CheckParticipantRemoval allows the creator to remove a participant that owns
// no item assignments. The creator's own record cannot be removed.
func CheckParticipantRemoval(r *models.Receipt, caps permission.Capabilities, participantID string) error {
	if err := CheckCreator(r, caps, "remove participants"); err != nil {
		return err
	}

	m, ok := r.Member(participantID)
	if !ok {
		return errs.NotFoundf(participantID, "participant not found")
	}
	if !m.Pending && m.UserID == r.CreatorID {
		return errs.Conflictf(participantID, "the creator cannot be removed")
	}
	if n := r.AssignmentCount(participantID); n > 0 {
		return errs.Conflictf(participantID, "participant is assigned to %d items", n)
	}
	return nil
}

// CheckJoin allows a user who is not yet a participant to join with the
// receipt's invite code.
func CheckJoin(r *models.Receipt, caps permission.Capabilities, inviteCode string) error {
	if err := CheckOpen(r); err != nil {
		return err
	}
	if r.InviteCode == "" || inviteCode != r.InviteCode {
		return errs.Forbiddenf("invalid invite code")
	}
	if caps.IsParticipant {
		return errs.Conflictf(caps.ParticipantID, "already a participant")
	}
	return nil
}

// CheckClaim allows a user with the invite code to take over a pending
// participant, turning it into a participant bound to their account.
func CheckClaim(r *models.Receipt, caps permission.Capabilities, inviteCode, pendingID string) error {
	if err := CheckJoin(r, caps, inviteCode); err != nil {
		return err
	}
	m, ok := r.Member(pendingID)
	if !ok {
		return errs.NotFoundf(pendingID, "pending participant not found")
	}
	if !m.Pending {
		return errs.Conflictf(pendingID, "participant is already bound to a user")
	}
	return nil
}
