package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/money"
)

// InviteCodeLength is the length of the opaque invite token.
const InviteCodeLength = 6

// Receipt is a shared purchase being split among participants.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	// Title is the human-readable name, e.g. "Friday dinner".
	Title string `json:"title"`

	// Date is the purchase date supplied by the creator.
	Date time.Time `json:"date"`

	// CreatorID is the user ID of the person who opened the receipt.
	// The creator is always also the first participant.
	CreatorID string `json:"creator_id"`

	// InviteCode is the opaque 6-character token others use to join.
	// It is generated outside the engine and only compared here.
	InviteCode string `json:"invite_code"`

	// Items are the purchased lines in the order they were added.
	Items []Item `json:"items"`

	// Participants are people bound to a user account.
	Participants []Participant `json:"participants"`

	// PendingParticipants are placeholders not yet bound to a user account.
	// They share costs like participants but cannot authenticate.
	PendingParticipants []PendingParticipant `json:"pending_participants"`

	// DeletionRequests are participant-initiated item removal requests.
	DeletionRequests []DeletionRequest `json:"deletion_requests"`

	// ServiceChargePercent is applied proportionally to item subtotals (0-100).
	ServiceChargePercent decimal.Decimal `json:"service_charge_percent"`

	// Cover is a flat charge split equally among all participants.
	Cover money.Money `json:"cover"`

	// Total is sum(item amounts) plus service charge plus cover.
	// Always recomputed; never accepted from input.
	Total money.Money `json:"total"`

	// Closed marks the receipt as settled. Closed is terminal.
	Closed bool `json:"closed"`

	// Version increases by one on every successful change and backs the
	// optimistic concurrency check in storage.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participant is a person sharing costs on a receipt.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`

	// UserID is the owning user account.
	UserID string `json:"user_id"`

	// Closed means this participant accepts no further item assignments.
	Closed bool `json:"closed"`
}

// PendingParticipant is an invited person without a user account yet.
// It becomes a Participant once claimed by a registered user.
type PendingParticipant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Closed      bool   `json:"closed"`
}

// Item is a single purchased line on a receipt.
type Item struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	UnitCost    money.Money `json:"unit_cost"`
	Quantity    int64       `json:"quantity"`

	// Assignments say who shares this item. Either every weight is zero
	// (equal split) or the weights sum to 1.
	Assignments []Assignment `json:"assignments"`
}

// Assignment gives a participant a share of an item.
type Assignment struct {
	ParticipantID string          `json:"participant_id"`
	Weight        decimal.Decimal `json:"weight"`
}

// Amount is unit cost times quantity.
func (i Item) Amount() money.Money {
	return i.UnitCost.Mul(i.Quantity)
}

// EqualSplit reports whether the item carries no explicit weights.
func (i Item) EqualSplit() bool {
	for _, a := range i.Assignments {
		if !a.Weight.IsZero() {
			return false
		}
	}
	return true
}

// AssigneeIDs returns the participant IDs assigned to the item.
func (i Item) AssigneeIDs() []string {
	ids := make([]string, len(i.Assignments))
	for k, a := range i.Assignments {
		ids[k] = a.ParticipantID
	}
	return ids
}

// HasAssignee reports whether participantID shares the item.
func (i Item) HasAssignee(participantID string) bool {
	for _, a := range i.Assignments {
		if a.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// DeletionStatus is the state of a deletion request.
type DeletionStatus string

const (
	DeletionPending  DeletionStatus = "pending"
	DeletionApproved DeletionStatus = "approved"
	DeletionRejected DeletionStatus = "rejected"
)

// DeletionRequest asks the creator to remove an item.
type DeletionRequest struct {
	ID          string         `json:"id"`
	ItemID      string         `json:"item_id"`
	RequestedBy string         `json:"requested_by"` // participant ID
	Status      DeletionStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ResolvedAt  time.Time      `json:"resolved_at"`
}

// Member is a read view over a participant or pending participant.
type Member struct {
	ID          string
	DisplayName string
	UserID      string
	Pending     bool
	Closed      bool
}

// Members returns every participant and pending participant ordered by
// ascending ID. This is the order used for remainder distribution.
func (r *Receipt) Members() []Member {
	members := make([]Member, 0, len(r.Participants)+len(r.PendingParticipants))
	for _, p := range r.Participants {
		members = append(members, Member{ID: p.ID, DisplayName: p.DisplayName, UserID: p.UserID, Closed: p.Closed})
	}
	for _, p := range r.PendingParticipants {
		members = append(members, Member{ID: p.ID, DisplayName: p.DisplayName, Pending: true, Closed: p.Closed})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

// Member looks up a participant or pending participant by ID.
func (r *Receipt) Member(id string) (Member, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return Member{ID: p.ID, DisplayName: p.DisplayName, UserID: p.UserID, Closed: p.Closed}, true
		}
	}
	for _, p := range r.PendingParticipants {
		if p.ID == id {
			return Member{ID: p.ID, DisplayName: p.DisplayName, Pending: true, Closed: p.Closed}, true
		}
	}
	return Member{}, false
}

// ParticipantByUser returns the participant bound to userID.
func (r *Receipt) ParticipantByUser(userID string) (*Participant, bool) {
	if userID == "" {
		return nil, false
	}
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// ItemIndex returns the index of the item with the given ID, or -1.
func (r *Receipt) ItemIndex(id string) int {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// RequestIndex returns the index of the deletion request with the given ID, or -1.
func (r *Receipt) RequestIndex(id string) int {
	for i := range r.DeletionRequests {
		if r.DeletionRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPendingDeletion reports whether any deletion request awaits resolution.
func (r *Receipt) HasPendingDeletion() bool {
	for _, d := range r.DeletionRequests {
		if d.Status == DeletionPending {
			return true
		}
	}
	return false
}

// AssignmentCount returns how many items participantID is assigned to.
func (r *Receipt) AssignmentCount(participantID string) int {
	n := 0
	for _, it := range r.Items {
		if it.HasAssignee(participantID) {
			n++
		}
	}
	return n
}

// Subtotal is the sum of item amounts before charges.
func (r *Receipt) Subtotal() money.Money {
	var s money.Money
	for _, it := range r.Items {
		s = s.Add(it.Amount())
	}
	return s
}

// Clone returns a deep copy. Mutating the copy never affects r.
func (r *Receipt) Clone() *Receipt {
	c := *r
	c.Items = append([]Item(nil), r.Items...)
	for i := range c.Items {
		c.Items[i].Assignments = append([]Assignment(nil), c.Items[i].Assignments...)
	}
	c.Participants = append([]Participant(nil), r.Participants...)
	c.PendingParticipants = append([]PendingParticipant(nil), r.PendingParticipants...)
	c.DeletionRequests = append([]DeletionRequest(nil), r.DeletionRequests...)
	return &c
}
