// Package permission derives what a user may do on a receipt.
package permission

import (
	"sync"

	"github.com/mmynk/receiptsplit/internal/models"
)

// Capabilities is the capability set of one user on one receipt version.
type Capabilities struct {
	IsCreator     bool `json:"is_creator"`
	IsParticipant bool `json:"is_participant"`

	// ParticipantID is the user's participant record, empty if none.
	ParticipantID string `json:"participant_id,omitempty"`

	// ParticipationOpen is false once the user's participation is closed.
	ParticipationOpen bool `json:"participation_open"`

	CanModifyReceipt      bool `json:"can_modify_receipt"`
	CanAddItems           bool `json:"can_add_items"`
	CanCloseReceipt       bool `json:"can_close_receipt"`
	CanCloseParticipation bool `json:"can_close_participation"`
}

// Evaluate computes the capabilities of userID on r. It only reads r.
func Evaluate(r *models.Receipt, userID string) Capabilities {
	open := !r.Closed
	c := Capabilities{IsCreator: userID != "" && userID == r.CreatorID}

	if p, ok := r.ParticipantByUser(userID); ok {
		c.IsParticipant = true
		c.ParticipantID = p.ID
		c.ParticipationOpen = !p.Closed
	}

	c.CanModifyReceipt = c.IsCreator && open
	c.CanAddItems = open && (c.IsCreator || (c.IsParticipant && c.ParticipationOpen))
	c.CanCloseReceipt = c.IsCreator && open
	c.CanCloseParticipation = c.IsParticipant && open && c.ParticipationOpen
	return c
}

// Key identifies one evaluation. Because every change bumps the receipt
// version, an entry can never be served for a receipt state it was not
// computed from.
type Key struct {
	ReceiptID string
	Version   int64
	UserID    string
}

// Memo caches Evaluate results by Key. It holds at most size entries and is
// safe for concurrent use.
type Memo struct {
	mu      sync.Mutex
	size    int
	entries map[Key]Capabilities
	order   []Key
}

// NewMemo returns a memo holding at most size entries.
func NewMemo(size int) *Memo {
	if size <= 0 {
		size = 1
	}
	return &Memo{size: size, entries: make(map[Key]Capabilities, size)}
}

// Evaluate returns the cached capabilities for (r.ID, r.Version, userID),
// computing them on a miss.
func (m *Memo) Evaluate(r *models.Receipt, userID string) Capabilities {
	key := Key{ReceiptID: r.ID, Version: r.Version, UserID: userID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.entries[key]; ok {
		return c
	}

	c := Evaluate(r, userID)
	if len(m.order) >= m.size {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.entries[key] = c
	m.order = append(m.order, key)
	return c
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
