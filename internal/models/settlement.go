package models

import "github.com/mmynk/receiptsplit/internal/money"

// Settlement is the computed set of per-participant owed totals for a receipt.
// It is the output of the settlement calculation and is never edited directly.
type Settlement struct {
	ReceiptID string `json:"receipt_id"`

	// Version is the receipt version this settlement was computed from.
	Version int64 `json:"version"`

	// Subtotal is the sum of item amounts before charges.
	Subtotal money.Money `json:"subtotal"`

	// ServiceCharge is the receipt-level service charge, rounded half-up.
	ServiceCharge money.Money `json:"service_charge"`

	Cover money.Money `json:"cover"`

	// Total equals Subtotal + ServiceCharge + Cover, and equals the sum of
	// every person's Total to the cent.
	Total money.Money `json:"total"`

	// People is ordered by ascending participant ID.
	People []PersonSettlement `json:"people"`
}

// PersonSettlement is one participant's share of a receipt.
type PersonSettlement struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Pending       bool   `json:"pending"`

	// Subtotal is the sum of this person's item shares.
	Subtotal money.Money `json:"subtotal"`

	// ServiceCharge is this person's proportional share of the service
	// charge, including any reconciliation adjustment.
	ServiceCharge money.Money `json:"service_charge"`

	// Cover is this person's equal share of the cover charge.
	Cover money.Money `json:"cover"`

	// Adjustment is the reconciliation correction already folded into
	// ServiceCharge: -1, 0 or +1 minor unit.
	Adjustment money.Money `json:"adjustment"`

	Total money.Money `json:"total"`

	// Items are the item shares that make up Subtotal.
	Items []PersonItem `json:"items"`
}

// PersonItem is one item's share for one person.
type PersonItem struct {
	ItemID      string      `json:"item_id"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
}
