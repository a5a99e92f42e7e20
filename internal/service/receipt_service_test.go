package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"connectrpc.com/connect"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/cache"
	"github.com/mmynk/receiptsplit/internal/engine"
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/metrics"
	"github.com/mmynk/receiptsplit/internal/middleware"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
	"github.com/mmynk/receiptsplit/internal/storage/sqlite"
	"github.com/mmynk/receiptsplit/pkg/api"
)

const testUserHeader = "X-Test-User"

// testAuthInterceptor trusts the user ID sent in a test header.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if userID := req.Header().Get(testUserHeader); userID != "" {
				ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
			}
			return next(ctx, req)
		}
	}
}

// as builds a request sent on behalf of userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, userID)
	return req
}

type testEnv struct {
	client *api.ReceiptServiceClient
	store  storage.Store
	svc    *ReceiptService
	users  map[string]*models.User
}

// staleStore fails the next n receipt updates with ErrStaleWrite.
type staleStore struct {
	storage.Store
	n atomic.Int32
}

func (s *staleStore) UpdateReceipt(ctx context.Context, r *models.Receipt, expectedVersion int64, events []models.Event) error {
	if s.n.Add(-1) >= 0 {
		return storage.ErrStaleWrite
	}
	return s.Store.UpdateReceipt(ctx, r, expectedVersion, events)
}

func setupTestServer(t *testing.T, wrap func(storage.Store) storage.Store, opts ...Option) *testEnv {
	t.Helper()

	base, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })

	var store storage.Store = base
	if wrap != nil {
		store = wrap(base)
	}

	users := make(map[string]*models.User)
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		u := models.NewUser(name+"@example.com", name, "hash")
		require.NoError(t, base.CreateUser(context.Background(), u))
		users[name] = u
	}

	svc := NewReceiptService(store, opts...)
	path, handler := api.NewReceiptServiceHandler(svc, connect.WithInterceptors(testAuthInterceptor()))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		client: api.NewReceiptServiceClient(http.DefaultClient, server.URL),
		store:  base,
		svc:    svc,
		users:  users,
	}
}

func (e *testEnv) id(name string) string { return e.users[name].ID }

func participantOf(t *testing.T, r api.Receipt, userID string) string {
	t.Helper()
	for _, p := range r.Participants {
		if p.UserID == userID {
			return p.ID
		}
	}
	t.Fatalf("user %s is not a participant", userID)
	return ""
}

func personTotal(t *testing.T, s api.Settlement, participantID string) string {
	t.Helper()
	for _, p := range s.People {
		if p.ParticipantID == participantID {
			return p.Total
		}
	}
	t.Fatalf("participant %s missing from settlement", participantID)
	return ""
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), err.Error())
}

// dinner creates a receipt by Alice with 10% service and 3.00 cover, joined
// by Bob, and returns it with both participant IDs.
func (e *testEnv) dinner(t *testing.T) (api.Receipt, string, string) {
	t.Helper()
	ctx := context.Background()

	created, err := e.client.CreateReceipt(ctx, as(e.id("Alice"), &api.CreateReceiptRequest{
		Title:                "Dinner",
		Date:                 "2026-03-14",
		ServiceChargePercent: "10",
		Cover:                "3.00",
	}))
	require.NoError(t, err)

	joined, err := e.client.JoinReceipt(ctx, as(e.id("Bob"), &api.JoinReceiptRequest{
		InviteCode: created.Msg.Receipt.InviteCode,
	}))
	require.NoError(t, err)

	r := joined.Msg.Receipt
	return r, participantOf(t, r, e.id("Alice")), participantOf(t, r, e.id("Bob"))
}

func TestCreateReceipt(t *testing.T) {
	env := setupTestServer(t, nil)

	resp, err := env.client.CreateReceipt(context.Background(), as(env.id("Alice"), &api.CreateReceiptRequest{
		Title: "Lunch",
		Date:  "2026-03-14",
	}))
	require.NoError(t, err)

	r := resp.Msg.Receipt
	assert.Equal(t, "Lunch", r.Title)
	assert.Equal(t, "2026-03-14", r.Date)
	assert.Equal(t, env.id("Alice"), r.CreatorID)
	assert.Len(t, r.InviteCode, models.InviteCodeLength)
	assert.Equal(t, int64(1), r.Version)
	require.Len(t, r.Participants, 1)
	assert.Equal(t, "Alice", r.Participants[0].DisplayName)
	assert.True(t, resp.Msg.Capabilities.IsCreator)
	assert.True(t, resp.Msg.Capabilities.CanCloseReceipt)
	assert.Equal(t, "0.00", resp.Msg.Settlement.Total)
}

func TestCreateReceipt_Invalid(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *api.CreateReceiptRequest
	}{
		{"missing title", &api.CreateReceiptRequest{}},
		{"bad date", &api.CreateReceiptRequest{Title: "x", Date: "14/03/2026"}},
		{"bad cover", &api.CreateReceiptRequest{Title: "x", Cover: "1.234"}},
		{"negative cover", &api.CreateReceiptRequest{Title: "x", Cover: "-1"}},
		{"percent over 100", &api.CreateReceiptRequest{Title: "x", ServiceChargePercent: "101"}},
		{"percent not a number", &api.CreateReceiptRequest{Title: "x", ServiceChargePercent: "ten"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.CreateReceipt(ctx, as(env.id("Alice"), tt.req))
			assertCode(t, connect.CodeInvalidArgument, err)
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	env := setupTestServer(t, nil)

	_, err := env.client.ListReceipts(context.Background(), connect.NewRequest(&api.ListReceiptsRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)
}

func TestSplitFlow(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	added, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Pizza",
		UnitCost:    "15.00",
		Quantity:    2,
		Assignments: []api.Assignment{{ParticipantID: alice}, {ParticipantID: bob}},
	}))
	require.NoError(t, err)
	assert.False(t, added.Msg.Noop)
	assert.Equal(t, "36.00", added.Msg.Receipt.Total)

	// 15.00 + 1.50 service + 1.50 cover each.
	got, err := env.client.GetSettlement(ctx, as(env.id("Bob"), &api.GetSettlementRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	s := got.Msg.Settlement
	assert.Equal(t, "30.00", s.Subtotal)
	assert.Equal(t, "3.00", s.ServiceCharge)
	assert.Equal(t, "36.00", s.Total)
	assert.Equal(t, "18.00", personTotal(t, s, alice))
	assert.Equal(t, "18.00", personTotal(t, s, bob))

	// Bob adds an item only he shares.
	beer, err := env.client.AddItem(ctx, as(env.id("Bob"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Beer",
		UnitCost:    "5.00",
		Quantity:    1,
		Assignments: []api.Assignment{{ParticipantID: bob}},
	}))
	require.NoError(t, err)
	assert.Equal(t, "41.50", beer.Msg.Receipt.Total)

	// Events were recorded for delivery.
	events, err := env.store.ListPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventItemAdded, events[0].Kind)
	assert.Equal(t, "Pizza", events[0].Detail)
}

func TestWeightedItem(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	_, err := env.client.SetCharges(ctx, as(env.id("Alice"), &api.SetChargesRequest{ReceiptID: r.ID, ServiceChargePercent: "0", Cover: "0"}))
	require.NoError(t, err)

	resp, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Wine",
		UnitCost:    "40.00",
		Quantity:    1,
		Assignments: []api.Assignment{
			{ParticipantID: alice, Weight: "0.75"},
			{ParticipantID: bob, Weight: "0.25"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "30.00", personTotal(t, resp.Msg.Settlement, alice))
	assert.Equal(t, "10.00", personTotal(t, resp.Msg.Settlement, bob))

	_, err = env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Water",
		UnitCost:    "2.00",
		Quantity:    1,
		Assignments: []api.Assignment{
			{ParticipantID: alice, Weight: "0.5"},
			{ParticipantID: bob, Weight: "0.4"},
		},
	}))
	assertCode(t, connect.CodeInvalidArgument, err)
}

func TestPermissions(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	_, err := env.client.GetReceipt(ctx, as(env.id("Carol"), &api.GetReceiptRequest{ReceiptID: r.ID}))
	assertCode(t, connect.CodePermissionDenied, err)

	_, err = env.client.SetCharges(ctx, as(env.id("Bob"), &api.SetChargesRequest{ReceiptID: r.ID, ServiceChargePercent: "5", Cover: "0"}))
	assertCode(t, connect.CodePermissionDenied, err)

	// Bob cannot put an item on Alice alone.
	_, err = env.client.AddItem(ctx, as(env.id("Bob"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Steak",
		UnitCost:    "20.00",
		Quantity:    1,
		Assignments: []api.Assignment{{ParticipantID: alice}},
	}))
	assertCode(t, connect.CodePermissionDenied, err)

	_, err = env.client.CloseReceipt(ctx, as(env.id("Bob"), &api.CloseReceiptRequest{ReceiptID: r.ID}))
	assertCode(t, connect.CodePermissionDenied, err)

	got, err := env.client.GetReceipt(ctx, as(env.id("Bob"), &api.GetReceiptRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	caps := got.Msg.Capabilities
	assert.False(t, caps.IsCreator)
	assert.True(t, caps.IsParticipant)
	assert.Equal(t, bob, caps.ParticipantID)
	assert.True(t, caps.CanAddItems)
	assert.False(t, caps.CanModifyReceipt)

	_, err = env.client.GetReceipt(ctx, as(env.id("Alice"), &api.GetReceiptRequest{ReceiptID: "missing"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestAddParticipant_HidesRegisteredEmails(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, _, _ := env.dinner(t)

	// Registered and unknown emails fail the same way for everyone but the creator.
	for _, caller := range []string{"Bob", "Carol"} {
		for _, email := range []string{"dave@example.com", "nobody@example.com"} {
			_, err := env.client.AddParticipant(ctx, as(env.id(caller), &api.AddParticipantRequest{
				ReceiptID: r.ID,
				Email:     email,
			}))
			assertCode(t, connect.CodePermissionDenied, err)
		}
	}
}

func TestJoinAndClaim(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, _, _ := env.dinner(t)

	_, err := env.client.JoinReceipt(ctx, as(env.id("Bob"), &api.JoinReceiptRequest{InviteCode: r.InviteCode}))
	assertCode(t, connect.CodeFailedPrecondition, err)

	_, err = env.client.JoinReceipt(ctx, as(env.id("Carol"), &api.JoinReceiptRequest{InviteCode: "ZZZZZZ"}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = env.client.JoinReceipt(ctx, as(env.id("Carol"), &api.JoinReceiptRequest{InviteCode: "nope"}))
	assertCode(t, connect.CodeInvalidArgument, err)

	pending, err := env.client.AddPendingParticipant(ctx, as(env.id("Alice"), &api.AddPendingParticipantRequest{
		ReceiptID:   r.ID,
		DisplayName: "Dave",
	}))
	require.NoError(t, err)
	var daveID string
	for _, p := range pending.Msg.Receipt.Participants {
		if p.Pending {
			daveID = p.ID
		}
	}
	require.NotEmpty(t, daveID)

	lookup, err := env.client.LookupInvite(ctx, as(env.id("Dave"), &api.LookupInviteRequest{InviteCode: r.InviteCode}))
	require.NoError(t, err)
	assert.Equal(t, r.ID, lookup.Msg.ReceiptID)
	require.Len(t, lookup.Msg.Pending, 1)
	assert.Equal(t, daveID, lookup.Msg.Pending[0].ID)

	// Codes are accepted in any case.
	claimed, err := env.client.ClaimPendingParticipant(ctx, as(env.id("Dave"), &api.ClaimPendingParticipantRequest{
		InviteCode:    " " + strings.ToLower(r.InviteCode) + " ",
		ParticipantID: daveID,
	}))
	require.NoError(t, err)
	assert.Equal(t, daveID, participantOf(t, claimed.Msg.Receipt, env.id("Dave")))
	for _, p := range claimed.Msg.Receipt.Participants {
		assert.False(t, p.Pending)
	}

	// Carol is added directly by email.
	added, err := env.client.AddParticipant(ctx, as(env.id("Alice"), &api.AddParticipantRequest{
		ReceiptID: r.ID,
		Email:     "CAROL@example.com",
	}))
	require.NoError(t, err)
	carol := participantOf(t, added.Msg.Receipt, env.id("Carol"))

	_, err = env.client.AddParticipant(ctx, as(env.id("Alice"), &api.AddParticipantRequest{
		ReceiptID: r.ID,
		Email:     "nobody@example.com",
	}))
	assertCode(t, connect.CodeNotFound, err)

	removed, err := env.client.RemoveParticipant(ctx, as(env.id("Alice"), &api.RemoveParticipantRequest{
		ReceiptID:     r.ID,
		ParticipantID: carol,
	}))
	require.NoError(t, err)
	assert.Len(t, removed.Msg.Receipt.Participants, 3)
}

func TestDeletionRequest(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	added, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Fries",
		UnitCost:    "4.00",
		Quantity:    1,
		Assignments: []api.Assignment{{ParticipantID: alice}, {ParticipantID: bob}},
	}))
	require.NoError(t, err)
	itemID := added.Msg.Receipt.Items[0].ID

	// Shared items cannot be removed directly by Bob.
	_, err = env.client.RemoveItem(ctx, as(env.id("Bob"), &api.RemoveItemRequest{ReceiptID: r.ID, ItemID: itemID}))
	assertCode(t, connect.CodePermissionDenied, err)

	requested, err := env.client.RequestDeletion(ctx, as(env.id("Bob"), &api.RequestDeletionRequest{ReceiptID: r.ID, ItemID: itemID}))
	require.NoError(t, err)
	require.Len(t, requested.Msg.Receipt.DeletionRequests, 1)
	req := requested.Msg.Receipt.DeletionRequests[0]
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, bob, req.RequestedBy)

	_, err = env.client.RequestDeletion(ctx, as(env.id("Bob"), &api.RequestDeletionRequest{ReceiptID: r.ID, ItemID: itemID}))
	assertCode(t, connect.CodeFailedPrecondition, err)

	resolved, err := env.client.ResolveDeletion(ctx, as(env.id("Alice"), &api.ResolveDeletionRequest{
		ReceiptID: r.ID,
		RequestID: req.ID,
		Approve:   true,
	}))
	require.NoError(t, err)
	assert.Empty(t, resolved.Msg.Receipt.Items)
	assert.Equal(t, "approved", resolved.Msg.Receipt.DeletionRequests[0].Status)
	assert.NotNil(t, resolved.Msg.Receipt.DeletionRequests[0].ResolvedAt)
	assert.Equal(t, "3.00", resolved.Msg.Receipt.Total)
}

func TestCloseFlow(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	_, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Pizza",
		UnitCost:    "30.00",
		Quantity:    1,
		Assignments: []api.Assignment{{ParticipantID: alice}, {ParticipantID: bob}},
	}))
	require.NoError(t, err)

	first, err := env.client.CloseParticipation(ctx, as(env.id("Bob"), &api.CloseParticipationRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.False(t, first.Msg.Noop)

	again, err := env.client.CloseParticipation(ctx, as(env.id("Bob"), &api.CloseParticipationRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.True(t, again.Msg.Noop)
	assert.Equal(t, first.Msg.Receipt.Version, again.Msg.Receipt.Version)

	closed, err := env.client.CloseReceipt(ctx, as(env.id("Alice"), &api.CloseReceiptRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.True(t, closed.Msg.Receipt.Closed)

	_, err = env.client.UpdateDetails(ctx, as(env.id("Alice"), &api.UpdateDetailsRequest{ReceiptID: r.ID, Title: "Late"}))
	assertCode(t, connect.CodePermissionDenied, err)

	// Alice paid, so Bob owes her his share.
	balances, err := env.client.GetBalances(ctx, as(env.id("Bob"), &api.GetBalancesRequest{}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Debts, 1)
	assert.Equal(t, api.Debt{From: env.id("Bob"), To: env.id("Alice"), Amount: "18.00"}, balances.Msg.Debts[0])

	list, err := env.client.ListReceipts(ctx, as(env.id("Bob"), &api.ListReceiptsRequest{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Receipts, 1)
	assert.True(t, list.Msg.Receipts[0].Closed)
	assert.Equal(t, "36.00", list.Msg.Receipts[0].Total)
}

func TestUpdateDetails(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, _, _ := env.dinner(t)

	resp, err := env.client.UpdateDetails(ctx, as(env.id("Alice"), &api.UpdateDetailsRequest{
		ReceiptID: r.ID,
		Title:     "Birthday dinner",
		Date:      "2026-03-15",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Birthday dinner", resp.Msg.Receipt.Title)
	assert.Equal(t, "2026-03-15", resp.Msg.Receipt.Date)
	assert.Equal(t, r.Version+1, resp.Msg.Receipt.Version)
}

func TestStaleWriteRetry(t *testing.T) {
	var stale *staleStore
	m := metrics.New()
	env := setupTestServer(t, func(s storage.Store) storage.Store {
		stale = &staleStore{Store: s}
		return stale
	}, WithMetrics(m))
	ctx := context.Background()
	r, _, _ := env.dinner(t)

	stale.n.Store(2)
	resp, err := env.client.UpdateDetails(ctx, as(env.id("Alice"), &api.UpdateDetailsRequest{ReceiptID: r.ID, Title: "Retried"}))
	require.NoError(t, err)
	assert.Equal(t, "Retried", resp.Msg.Receipt.Title)

	stale.n.Store(maxWriteAttempts)
	_, err = env.client.UpdateDetails(ctx, as(env.id("Alice"), &api.UpdateDetailsRequest{ReceiptID: r.ID, Title: "Lost"}))
	assertCode(t, connect.CodeAborted, err)

	got, err := env.client.GetReceipt(ctx, as(env.id("Alice"), &api.GetReceiptRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Retried", got.Msg.Receipt.Title)
}

func TestSettlementCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := setupTestServer(t, nil, WithCache(cache.NewRedisCache(client)))
	ctx := context.Background()
	r, alice, _ := env.dinner(t)

	resp, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Salad",
		UnitCost:    "9.00",
		Quantity:    1,
		Assignments: []api.Assignment{{ParticipantID: alice}},
	}))
	require.NoError(t, err)
	version := resp.Msg.Receipt.Version

	key := "settlement:" + r.ID + ":" + itoa(version)
	assert.True(t, mr.Exists(key))

	// A planted entry for the current version is served as is.
	cached, err := cache.NewRedisCache(client).Get(ctx, r.ID, version)
	require.NoError(t, err)
	cached.Total = 1
	require.NoError(t, cache.NewRedisCache(client).Set(ctx, cached))

	got, err := env.client.GetSettlement(ctx, as(env.id("Alice"), &api.GetSettlementRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.Msg.Settlement.Total)

	// Once the cache is gone the settlement is recomputed.
	mr.FlushAll()
	got, err = env.client.GetSettlement(ctx, as(env.id("Alice"), &api.GetSettlementRequest{ReceiptID: r.ID}))
	require.NoError(t, err)
	assert.Equal(t, resp.Msg.Settlement.Total, got.Msg.Settlement.Total)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestReceiptFromAPI_RoundTrip(t *testing.T) {
	env := setupTestServer(t, nil)
	ctx := context.Background()
	r, alice, bob := env.dinner(t)

	_, err := env.client.AddPendingParticipant(ctx, as(env.id("Alice"), &api.AddPendingParticipantRequest{ReceiptID: r.ID, DisplayName: "Dave"}))
	require.NoError(t, err)
	resp, err := env.client.AddItem(ctx, as(env.id("Alice"), &api.AddItemRequest{
		ReceiptID:   r.ID,
		Description: "Tapas",
		UnitCost:    "7.25",
		Quantity:    3,
		Assignments: []api.Assignment{{ParticipantID: alice, Weight: "0.6"}, {ParticipantID: bob, Weight: "0.4"}},
	}))
	require.NoError(t, err)

	back, err := ReceiptFromAPI(resp.Msg.Receipt)
	require.NoError(t, err)
	assert.Len(t, back.Participants, 2)
	assert.Len(t, back.PendingParticipants, 1)
	assert.Equal(t, resp.Msg.Receipt, toAPIReceipt(withTotal(t, back)))

	_, err = ReceiptFromAPI(api.Receipt{Cover: "abc"})
	assert.Error(t, err)

	_, err = ReceiptFromAPI(api.Receipt{Items: []api.Item{{ID: "i1", UnitCost: "90071992547409.92", Quantity: 2048}}})
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

// withTotal fills in the derived total the way the engine does.
func withTotal(t *testing.T, r *models.Receipt) *models.Receipt {
	t.Helper()
	s, err := engine.Settle(r)
	require.NoError(t, err)
	r.Total = s.Total
	return r
}
