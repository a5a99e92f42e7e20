// Package api defines the wire messages of the receipt and auth services.
//
// Every field uses snake_case JSON. Money travels as a two-decimal string
// ("12.34") and percentages and weights as decimal strings ("12.5", "0.25");
// they are converted to exact internal values at the service boundary.
package api

import "time"

// DateLayout is the wire format of purchase dates.
const DateLayout = "2006-01-02"

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Receipt struct {
	ID                   string            `json:"id"`
	Title                string            `json:"title"`
	Date                 string            `json:"date,omitempty"`
	CreatorID            string            `json:"creator_id"`
	InviteCode           string            `json:"invite_code"`
	ServiceChargePercent string            `json:"service_charge_percent"`
	Cover                string            `json:"cover"`
	Subtotal             string            `json:"subtotal"`
	Total                string            `json:"total"`
	Closed               bool              `json:"closed"`
	Version              int64             `json:"version"`
	Participants         []Participant     `json:"participants"`
	Items                []Item            `json:"items"`
	DeletionRequests     []DeletionRequest `json:"deletion_requests"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Participant covers both joined and pending participants.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	UserID      string `json:"user_id,omitempty"`
	Pending     bool   `json:"pending"`
	Closed      bool   `json:"closed"`
}

type Item struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	UnitCost    string       `json:"unit_cost"`
	Quantity    int64        `json:"quantity"`
	Amount      string       `json:"amount"`
	Assignments []Assignment `json:"assignments"`
}

// Assignment gives a participant a share of an item. Omit every weight for
// an equal split.
type Assignment struct {
	ParticipantID string `json:"participant_id"`
	Weight        string `json:"weight,omitempty"`
}

type DeletionRequest struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	RequestedBy string     `json:"requested_by"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type Capabilities struct {
	IsCreator             bool   `json:"is_creator"`
	IsParticipant         bool   `json:"is_participant"`
	ParticipantID         string `json:"participant_id,omitempty"`
	CanModifyReceipt      bool   `json:"can_modify_receipt"`
	CanAddItems           bool   `json:"can_add_items"`
	CanCloseReceipt       bool   `json:"can_close_receipt"`
	CanCloseParticipation bool   `json:"can_close_participation"`
}

type Settlement struct {
	ReceiptID     string             `json:"receipt_id"`
	Version       int64              `json:"version"`
	Subtotal      string             `json:"subtotal"`
	ServiceCharge string             `json:"service_charge"`
	Cover         string             `json:"cover"`
	Total         string             `json:"total"`
	People        []PersonSettlement `json:"people"`
}

type PersonSettlement struct {
	ParticipantID string       `json:"participant_id"`
	DisplayName   string       `json:"display_name"`
	Pending       bool         `json:"pending"`
	Subtotal      string       `json:"subtotal"`
	ServiceCharge string       `json:"service_charge"`
	Cover         string       `json:"cover"`
	Adjustment    string       `json:"adjustment"`
	Total         string       `json:"total"`
	Items         []PersonItem `json:"items"`
}

type PersonItem struct {
	ItemID      string `json:"item_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type ReceiptSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Total   string `json:"total"`
	Closed  bool   `json:"closed"`
	Version int64  `json:"version"`
}

type MemberBalance struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	NetBalance  string `json:"net_balance"`
	TotalPaid   string `json:"total_paid"`
	TotalOwed   string `json:"total_owed"`
}

type Debt struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Auth service.

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// Receipt service: queries.

type CreateReceiptRequest struct {
	Title                string `json:"title"`
	Date                 string `json:"date,omitempty"`
	ServiceChargePercent string `json:"service_charge_percent,omitempty"`
	Cover                string `json:"cover,omitempty"`
	// CreatorName defaults to the user's display name.
	CreatorName string `json:"creator_name,omitempty"`
}

type GetReceiptRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type ReceiptResponse struct {
	Receipt      Receipt      `json:"receipt"`
	Settlement   Settlement   `json:"settlement"`
	Capabilities Capabilities `json:"capabilities"`
}

type ListReceiptsRequest struct{}

type ListReceiptsResponse struct {
	Receipts []ReceiptSummary `json:"receipts"`
}

type GetSettlementRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type GetSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type LookupInviteRequest struct {
	InviteCode string `json:"invite_code"`
}

type LookupInviteResponse struct {
	ReceiptID string `json:"receipt_id"`
	Title     string `json:"title"`
	Closed    bool   `json:"closed"`
	// Pending lists the placeholders a newcomer may claim.
	Pending []Participant `json:"pending"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []MemberBalance `json:"balances"`
	Debts    []Debt          `json:"debts"`
}

// Receipt service: mutations. Each returns a MutationResponse.

type MutationResponse struct {
	Receipt    Receipt    `json:"receipt"`
	Settlement Settlement `json:"settlement"`
	// Noop is true when nothing changed.
	Noop bool `json:"noop"`
}

type AddItemRequest struct {
	ReceiptID   string       `json:"receipt_id"`
	Description string       `json:"description"`
	UnitCost    string       `json:"unit_cost"`
	Quantity    int64        `json:"quantity"`
	Assignments []Assignment `json:"assignments"`
}

type UpdateItemRequest struct {
	ReceiptID   string       `json:"receipt_id"`
	ItemID      string       `json:"item_id"`
	Description string       `json:"description"`
	UnitCost    string       `json:"unit_cost"`
	Quantity    int64        `json:"quantity"`
	Assignments []Assignment `json:"assignments"`
}

type RemoveItemRequest struct {
	ReceiptID string `json:"receipt_id"`
	ItemID    string `json:"item_id"`
}

type SetChargesRequest struct {
	ReceiptID            string `json:"receipt_id"`
	ServiceChargePercent string `json:"service_charge_percent"`
	Cover                string `json:"cover"`
}

type UpdateDetailsRequest struct {
	ReceiptID string `json:"receipt_id"`
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
}

// AddParticipantRequest adds a registered user, found by email.
type AddParticipantRequest struct {
	ReceiptID   string `json:"receipt_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type AddPendingParticipantRequest struct {
	ReceiptID   string `json:"receipt_id"`
	DisplayName string `json:"display_name"`
}

type JoinReceiptRequest struct {
	InviteCode  string `json:"invite_code"`
	DisplayName string `json:"display_name,omitempty"`
}

type ClaimPendingParticipantRequest struct {
	InviteCode    string `json:"invite_code"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name,omitempty"`
}

type RemoveParticipantRequest struct {
	ReceiptID     string `json:"receipt_id"`
	ParticipantID string `json:"participant_id"`
}

// CloseParticipationRequest closes the caller's own participation when
// ParticipantID is empty.
type CloseParticipationRequest struct {
	ReceiptID     string `json:"receipt_id"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type CloseReceiptRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type RequestDeletionRequest struct {
	ReceiptID string `json:"receipt_id"`
	ItemID    string `json:"item_id"`
}

type ResolveDeletionRequest struct {
	ReceiptID string `json:"receipt_id"`
	RequestID string `json:"request_id"`
	Approve   bool   `json:"approve"`
}
