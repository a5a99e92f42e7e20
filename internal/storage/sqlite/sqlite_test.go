package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

var created = time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReceipt(id, code string) *models.Receipt {
	return &models.Receipt{
		ID:                   id,
		Title:                "Team lunch",
		Date:                 created,
		CreatorID:            "u-alice",
		InviteCode:           code,
		ServiceChargePercent: decimal.RequireFromString("12.5"),
		Cover:                300,
		Total:                4100,
		Version:              4,
		CreatedAt:            created,
		UpdatedAt:            created.Add(time.Minute),
		Participants: []models.Participant{
			{ID: "p-alice", DisplayName: "Alice", UserID: "u-alice"},
			{ID: "p-bob", DisplayName: "Bob", UserID: "u-bob", Closed: true},
		},
		PendingParticipants: []models.PendingParticipant{{ID: "p-carol", DisplayName: "Carol"}},
		Items: []models.Item{
			{ID: "i-2", Description: "Ramen", UnitCost: 1400, Quantity: 2, Assignments: []models.Assignment{
				{ParticipantID: "p-bob", Weight: decimal.RequireFromString("0.75")},
				{ParticipantID: "p-alice", Weight: decimal.RequireFromString("0.25")},
			}},
			{ID: "i-1", Description: "Gyoza", UnitCost: 800, Quantity: 1, Assignments: []models.Assignment{
				{ParticipantID: "p-carol", Weight: decimal.Zero},
			}},
		},
		DeletionRequests: []models.DeletionRequest{
			{ID: "d1", ItemID: "i-1", RequestedBy: "p-bob", Status: models.DeletionRejected, CreatedAt: created, ResolvedAt: created.Add(time.Hour)},
			{ID: "d2", ItemID: "i-2", RequestedBy: "p-bob", Status: models.DeletionPending, CreatedAt: created},
		},
	}
}

func assertSameReceipt(t *testing.T, want, got *models.Receipt) {
	t.Helper()
	assert.True(t, want.ServiceChargePercent.Equal(got.ServiceChargePercent), "service charge %s != %s", want.ServiceChargePercent, got.ServiceChargePercent)

	for i := range want.Items {
		require.Len(t, got.Items[i].Assignments, len(want.Items[i].Assignments))
		for j, a := range want.Items[i].Assignments {
			assert.Equal(t, a.ParticipantID, got.Items[i].Assignments[j].ParticipantID)
			assert.True(t, a.Weight.Equal(got.Items[i].Assignments[j].Weight))
		}
	}

	// Decimals compared above; normalize before the structural comparison.
	w, g := want.Clone(), got.Clone()
	g.ServiceChargePercent = w.ServiceChargePercent
	for i := range g.Items {
		g.Items[i].Assignments = w.Items[i].Assignments
	}
	assert.Equal(t, w, g)
}

func TestSQLiteStore_Receipts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateReceipt and GetReceipt round trip", func(t *testing.T) {
		original := sampleReceipt("r1", "AAAAAA")
		require.NoError(t, store.CreateReceipt(ctx, original, nil))

		got, err := store.GetReceipt(ctx, "r1")
		require.NoError(t, err)
		assertSameReceipt(t, original, got)

		byCode, err := store.GetReceiptByInviteCode(ctx, "AAAAAA")
		require.NoError(t, err)
		assert.Equal(t, "r1", byCode.ID)
	})

	t.Run("GetReceipt returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetReceipt(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate invite code", func(t *testing.T) {
		err := store.CreateReceipt(ctx, sampleReceipt("r-dup", "AAAAAA"), nil)
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("UpdateReceipt checks version", func(t *testing.T) {
		r := sampleReceipt("r2", "BBBBBB")
		require.NoError(t, store.CreateReceipt(ctx, r, nil))

		next := r.Clone()
		next.Items = next.Items[:1]
		next.DeletionRequests = nil
		next.PendingParticipants = nil
		next.Title = "Team lunch (edited)"
		next.Closed = true
		next.Version = r.Version + 1
		require.NoError(t, store.UpdateReceipt(ctx, next, r.Version, nil))

		got, err := store.GetReceipt(ctx, "r2")
		require.NoError(t, err)
		assertSameReceipt(t, next, got)

		stale := r.Clone()
		stale.Version = r.Version + 1
		err = store.UpdateReceipt(ctx, stale, r.Version, nil)
		assert.ErrorIs(t, err, storage.ErrStaleWrite)

		missing := sampleReceipt("nope", "CCCCCC")
		err = store.UpdateReceipt(ctx, missing, 1, nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListReceiptsByUser", func(t *testing.T) {
		other := sampleReceipt("r3", "DDDDDD")
		other.CreatedAt = created.Add(48 * time.Hour)
		other.Participants = []models.Participant{{ID: "p-x", DisplayName: "Xena", UserID: "u-xena"}}
		other.Items = nil
		other.DeletionRequests = nil
		require.NoError(t, store.CreateReceipt(ctx, other, nil))

		list, err := store.ListReceiptsByUser(ctx, "u-bob")
		require.NoError(t, err)
		ids := make([]string, len(list))
		for i, r := range list {
			ids[i] = r.ID
		}
		assert.Equal(t, []string{"r1", "r2"}, ids)

		list, err = store.ListReceiptsByUser(ctx, "u-xena")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "r3", list[0].ID)
	})
}

func TestSQLiteStore_Outbox(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := sampleReceipt("r1", "AAAAAA")
	events := []models.Event{
		{Kind: models.EventItemAdded, ReceiptID: "r1", ActorID: "u-alice", ParticipantIDs: []string{"p-alice", "p-bob"}, Detail: "Ramen", OccurredAt: created},
		{Kind: models.EventReceiptClosed, ReceiptID: "r1", ActorID: "u-alice", ParticipantIDs: []string{"p-alice"}, OccurredAt: created},
	}
	require.NoError(t, store.CreateReceipt(ctx, r, events[:1]))

	next := r.Clone()
	next.Version++
	require.NoError(t, store.UpdateReceipt(ctx, next, r.Version, events[1:]))

	// A stale write must not leave its events behind.
	require.ErrorIs(t, store.UpdateReceipt(ctx, r, r.Version, events), storage.ErrStaleWrite)

	pending, err := store.ListPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.EventItemAdded, pending[0].Kind)
	assert.Equal(t, []string{"p-alice", "p-bob"}, pending[0].ParticipantIDs)
	assert.Equal(t, created, pending[0].OccurredAt)
	assert.Equal(t, "Ramen", pending[0].Detail)

	require.NoError(t, store.MarkEventsPublished(ctx, []int64{pending[0].ID}, created))

	pending, err = store.ListPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.EventReceiptClosed, pending[0].Kind)
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.NewUser("alice@example.com", "Alice", "hash-a")
	bob := models.NewUser("bob@example.com", "Bob", "hash-b")
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	err := store.CreateUser(ctx, models.NewUser("Alice@Example.com", "Alice 2", "hash"))
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	got, err := store.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := store.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", byID.DisplayName)

	users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "hash-a", users[alice.ID].PasswordHash)
}
