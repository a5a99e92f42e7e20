// Package engine is the single entry point for changing a receipt.
//
// Apply takes a receipt snapshot, a mutation and the acting user, and returns
// a new snapshot with recomputed totals, or a classified error. It never
// modifies the snapshot it was given, never reads the clock and never touches
// storage: the caller supplies the timestamp and persists the result. That
// makes Apply safe to call concurrently on distinct snapshots and safe to
// retry.
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/internal/permission"
)

// Result is the outcome of a successful Apply.
type Result struct {
	// Receipt is the new snapshot. It never aliases the input.
	Receipt *models.Receipt

	// Settlement is the per-participant split of Receipt.
	Settlement models.Settlement

	// Events describe the change for the notification collaborator.
	Events []models.Event

	// Noop is true when the mutation changed nothing (e.g. closing an
	// already closed participation). Receipt.Version is unchanged then.
	Noop bool
}

// Apply validates and applies m on behalf of actorID at time at.
//
// Steps, in order: resolve the actor's role, check permission and lifecycle
// (Forbidden), validate structure (InvalidInput, NotFound, Conflict), apply to
// a copy, check the copy's amounts stay in range, recompute totals.
func Apply(snapshot *models.Receipt, m Mutation, actorID string, at time.Time) (*Result, error) {
	if snapshot == nil {
		return nil, errs.Invalid("receipt", "snapshot is required")
	}
	if m == nil {
		return nil, errs.Invalid("mutation", "mutation is required")
	}
	caps, err := authorize(snapshot, m, actorID)
	if err != nil {
		return nil, err
	}
	if err := m.validate(snapshot, caps); err != nil {
		return nil, err
	}

	next := snapshot.Clone()
	ctx := &applyContext{actorID: actorID, caps: caps, at: at}
	if err := m.apply(next, ctx); err != nil {
		return nil, err
	}

	if ctx.noop {
		settlement, err := calculator.Settle(next)
		if err != nil {
			return nil, err
		}
		return &Result{Receipt: next, Settlement: settlement, Noop: true}, nil
	}

	if err := CheckRange(next); err != nil {
		return nil, err
	}

	next.Version++
	next.UpdatedAt = at
	return finish(next, ctx.events)
}

// Authorize runs only the permission and lifecycle checks of m. Callers that
// must look something up before building the full mutation use it to fail
// with Forbidden before doing so.
func Authorize(snapshot *models.Receipt, m Mutation, actorID string) error {
	if snapshot == nil || m == nil {
		return errs.Invalid("mutation", "snapshot and mutation are required")
	}
	_, err := authorize(snapshot, m, actorID)
	return err
}

func authorize(snapshot *models.Receipt, m Mutation, actorID string) (permission.Capabilities, error) {
	if actorID == "" {
		return permission.Capabilities{}, errs.Forbiddenf("an authenticated actor is required")
	}
	caps := permission.Evaluate(snapshot, actorID)
	return caps, m.authorize(snapshot, caps)
}

// Settle computes the settlement of a stored receipt without changing it.
func Settle(r *models.Receipt) (models.Settlement, error) {
	return calculator.Settle(r)
}

// NewReceiptParams describes a receipt to create. IDs, the invite code and the
// timestamp come from the caller.
type NewReceiptParams struct {
	ID                   string
	Title                string
	Date                 time.Time
	CreatorID            string
	CreatorParticipantID string
	CreatorName          string
	InviteCode           string
	ServiceChargePercent decimal.Decimal
	Cover                money.Money
	At                   time.Time
}

// NewReceipt creates an open receipt with the creator as its first
// participant.
func NewReceipt(p NewReceiptParams) (*Result, error) {
	if p.CreatorID == "" {
		return nil, errs.Forbiddenf("an authenticated creator is required")
	}

	var v errs.Violations
	requireID(&v, "id", p.ID)
	requireID(&v, "creator_participant_id", p.CreatorParticipantID)
	if strings.TrimSpace(p.Title) == "" {
		v.Addf("title", "must not be empty")
	}
	if strings.TrimSpace(p.CreatorName) == "" {
		v.Addf("creator_name", "must not be empty")
	}
	if len(p.InviteCode) != models.InviteCodeLength {
		v.Addf("invite_code", "must be %d characters", models.InviteCodeLength)
	}
	validateCharges(&v, p.ServiceChargePercent, p.Cover)
	if err := v.Err(); err != nil {
		return nil, err
	}

	r := &models.Receipt{
		ID:                   p.ID,
		Title:                strings.TrimSpace(p.Title),
		Date:                 p.Date,
		CreatorID:            p.CreatorID,
		InviteCode:           p.InviteCode,
		ServiceChargePercent: p.ServiceChargePercent,
		Cover:                p.Cover,
		Participants: []models.Participant{{
			ID:          p.CreatorParticipantID,
			DisplayName: strings.TrimSpace(p.CreatorName),
			UserID:      p.CreatorID,
		}},
		Version:   1,
		CreatedAt: p.At,
		UpdatedAt: p.At,
	}
	return finish(r, nil)
}

func finish(r *models.Receipt, events []models.Event) (*Result, error) {
	settlement, err := calculator.Settle(r)
	if err != nil {
		return nil, err
	}
	r.Total = settlement.Total
	return &Result{Receipt: r, Settlement: settlement, Events: events}, nil
}

// applyContext carries the side-channel inputs of one Apply call and collects
// what the mutation produced.
type applyContext struct {
	actorID string
	caps    permission.Capabilities
	at      time.Time
	events  []models.Event
	noop    bool
}

func (c *applyContext) emit(r *models.Receipt, kind models.EventKind, detail string, participantIDs ...string) {
	ids := append([]string{}, participantIDs...)
	c.events = append(c.events, models.Event{
		Kind:           kind,
		ReceiptID:      r.ID,
		ActorID:        c.actorID,
		ParticipantIDs: ids,
		Detail:         detail,
		OccurredAt:     c.at,
	})
}
