package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/receiptsplit/internal/auth"
	"github.com/mmynk/receiptsplit/internal/cache"
	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/engine"
	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/invite"
	"github.com/mmynk/receiptsplit/internal/metrics"
	"github.com/mmynk/receiptsplit/internal/middleware"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/permission"
	"github.com/mmynk/receiptsplit/internal/storage"
	"github.com/mmynk/receiptsplit/pkg/api"
)

const (
	// maxWriteAttempts bounds the read-apply-write cycle under contention.
	maxWriteAttempts = 3

	// maxInviteAttempts bounds retries on invite code collisions.
	maxInviteAttempts = 5

	memoSize = 1024
)

// ReceiptService implements api.ReceiptServiceHandler on top of the engine.
// Every mutation reads the current snapshot, applies it with engine.Apply and
// writes the result back guarded by the version it read.
type ReceiptService struct {
	store   storage.Store
	cache   cache.SettlementCache
	metrics *metrics.Metrics
	memo    *permission.Memo
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

var _ api.ReceiptServiceHandler = (*ReceiptService)(nil)

// Option configures a ReceiptService.
type Option func(*ReceiptService)

// WithCache sets the settlement cache. The default caches nothing.
func WithCache(c cache.SettlementCache) Option {
	return func(s *ReceiptService) { s.cache = c }
}

// WithMetrics sets the collectors updated by the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ReceiptService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *ReceiptService) { s.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReceiptService) { s.now = now }
}

// NewReceiptService creates a ReceiptService with the given storage backend.
func NewReceiptService(store storage.Store, opts ...Option) *ReceiptService {
	s := &ReceiptService{
		store:  store,
		cache:  cache.Nop{},
		memo:   permission.NewMemo(memoSize),
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// CreateReceipt opens a receipt with the caller as creator and first
// participant.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.ReceiptResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	percent, err := parseDecimal("service_charge_percent", msg.ServiceChargePercent)
	if err != nil {
		return nil, toConnectError(err)
	}
	cover, err := parseMoney("cover", msg.Cover)
	if err != nil {
		return nil, toConnectError(err)
	}
	date, err := parseDate("date", msg.Date)
	if err != nil {
		return nil, toConnectError(err)
	}

	name := strings.TrimSpace(msg.CreatorName)
	if name == "" {
		if name, err = s.displayName(ctx, userID); err != nil {
			return nil, toConnectError(err)
		}
	}

	for attempt := 1; attempt <= maxInviteAttempts; attempt++ {
		code, err := invite.Generate()
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		res, err := engine.NewReceipt(engine.NewReceiptParams{
			ID:                   s.newID(),
			Title:                msg.Title,
			Date:                 date,
			CreatorID:            userID,
			CreatorParticipantID: s.newID(),
			CreatorName:          name,
			InviteCode:           code,
			ServiceChargePercent: percent,
			Cover:                cover,
			At:                   s.now(),
		})
		if err != nil {
			return nil, toConnectError(err)
		}

		err = s.store.CreateReceipt(ctx, res.Receipt, res.Events)
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Warn("Invite code collision, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			s.logger.Error("Failed to save receipt", "error", err)
			return nil, toConnectError(err)
		}

		s.warm(ctx, res.Settlement)
		s.logger.Info("Receipt created", "receipt_id", res.Receipt.ID, "user_id", userID)
		return connect.NewResponse(&api.ReceiptResponse{
			Receipt:      toAPIReceipt(res.Receipt),
			Settlement:   toAPISettlement(res.Settlement),
			Capabilities: toAPICapabilities(s.memo.Evaluate(res.Receipt, userID)),
		}), nil
	}
	return nil, connect.NewError(connect.CodeInternal, errors.New("could not allocate a unique invite code"))
}

// GetReceipt returns a receipt, its settlement and the caller's capabilities.
func (s *ReceiptService) GetReceipt(ctx context.Context, req *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.ReceiptResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	r, caps, err := s.loadVisible(ctx, req.Msg.ReceiptID, userID)
	if err != nil {
		return nil, err
	}
	settlement, err := s.settlement(ctx, r)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ReceiptResponse{
		Receipt:      toAPIReceipt(r),
		Settlement:   toAPISettlement(*settlement),
		Capabilities: toAPICapabilities(caps),
	}), nil
}

// ListReceipts returns summaries of the receipts the caller takes part in.
func (s *ReceiptService) ListReceipts(ctx context.Context, req *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	receipts, err := s.store.ListReceiptsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list receipts", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	out := make([]api.ReceiptSummary, len(receipts))
	for i, r := range receipts {
		out[i] = api.ReceiptSummary{
			ID:      r.ID,
			Title:   r.Title,
			Date:    formatDate(r.Date),
			Total:   r.Total.String(),
			Closed:  r.Closed,
			Version: r.Version,
		}
	}
	return connect.NewResponse(&api.ListReceiptsResponse{Receipts: out}), nil
}

// GetSettlement returns the settlement of the current receipt version.
func (s *ReceiptService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	r, _, err := s.loadVisible(ctx, req.Msg.ReceiptID, userID)
	if err != nil {
		return nil, err
	}
	settlement, err := s.settlement(ctx, r)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetSettlementResponse{Settlement: toAPISettlement(*settlement)}), nil
}

// LookupInvite shows what an invite code leads to before joining.
func (s *ReceiptService) LookupInvite(ctx context.Context, req *connect.Request[api.LookupInviteRequest]) (*connect.Response[api.LookupInviteResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	r, err := s.loadByInvite(req.Msg.InviteCode)(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	resp := &api.LookupInviteResponse{
		ReceiptID: r.ID,
		Title:     r.Title,
		Closed:    r.Closed,
		Pending:   make([]api.Participant, 0, len(r.PendingParticipants)),
	}
	for _, p := range r.PendingParticipants {
		resp.Pending = append(resp.Pending, api.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Pending:     true,
			Closed:      p.Closed,
		})
	}
	return connect.NewResponse(resp), nil
}

// GetBalances nets what the caller's closed receipts say people owe each
// other. The creator of a receipt is taken to have paid for it.
func (s *ReceiptService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	receipts, err := s.store.ListReceiptsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	names := make(map[string]string)
	var inputs []calculator.ReceiptForBalance
	for _, r := range receipts {
		if !r.Closed {
			continue
		}
		settlement, err := s.settlement(ctx, r)
		if err != nil {
			return nil, toConnectError(err)
		}
		keys := make(map[string]string, len(r.Participants))
		for _, m := range r.Members() {
			key := m.ID
			if m.UserID != "" {
				key = m.UserID
				keys[m.ID] = m.UserID
			}
			names[key] = m.DisplayName
		}
		inputs = append(inputs, calculator.ReceiptForBalance{
			PayerID:    r.CreatorID,
			Settlement: *settlement,
			MemberKeys: keys,
		})
	}

	balances, debts := calculator.CalculateBalances(inputs)
	resp := toAPIBalances(balances, debts, names)
	return connect.NewResponse(&resp), nil
}

// AddItem adds an item. The caller must be the creator or an open
// participant.
func (s *ReceiptService) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByID(msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		cost, err := parseMoney("unit_cost", msg.UnitCost)
		if err != nil {
			return nil, err
		}
		assignments, err := parseAssignments(msg.Assignments)
		if err != nil {
			return nil, err
		}
		return engine.AddItem{
			ItemID:      s.newID(),
			Description: msg.Description,
			UnitCost:    cost,
			Quantity:    msg.Quantity,
			Assignments: assignments,
		}, nil
	})
}

func (s *ReceiptService) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByID(msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		cost, err := parseMoney("unit_cost", msg.UnitCost)
		if err != nil {
			return nil, err
		}
		assignments, err := parseAssignments(msg.Assignments)
		if err != nil {
			return nil, err
		}
		return engine.UpdateItem{
			ItemID:      msg.ItemID,
			Description: msg.Description,
			UnitCost:    cost,
			Quantity:    msg.Quantity,
			Assignments: assignments,
		}, nil
	})
}

func (s *ReceiptService) RemoveItem(ctx context.Context, req *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.RemoveItem{ItemID: req.Msg.ItemID}, nil
	})
}

func (s *ReceiptService) SetCharges(ctx context.Context, req *connect.Request[api.SetChargesRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByID(msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		percent, err := parseDecimal("service_charge_percent", msg.ServiceChargePercent)
		if err != nil {
			return nil, err
		}
		cover, err := parseMoney("cover", msg.Cover)
		if err != nil {
			return nil, err
		}
		return engine.SetCharges{ServiceChargePercent: percent, Cover: cover}, nil
	})
}

func (s *ReceiptService) UpdateDetails(ctx context.Context, req *connect.Request[api.UpdateDetailsRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByID(msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		date, err := parseDate("date", msg.Date)
		if err != nil {
			return nil, err
		}
		return engine.UpdateDetails{Title: msg.Title, Date: date}, nil
	})
}

// AddParticipant adds a registered user, looked up by email.
func (s *ReceiptService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByID(msg.ReceiptID), func(snapshot *models.Receipt, userID string) (engine.Mutation, error) {
		// Only the creator learns whether an email is registered.
		if err := engine.Authorize(snapshot, engine.AddParticipant{}, userID); err != nil {
			return nil, err
		}
		email := strings.ToLower(strings.TrimSpace(msg.Email))
		if email == "" {
			return nil, errs.Invalid("email", "must not be empty")
		}
		user, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, errs.NotFoundf(email, "no user with this email")
		}
		name := strings.TrimSpace(msg.DisplayName)
		if name == "" {
			name = user.DisplayName
		}
		return engine.AddParticipant{ParticipantID: s.newID(), UserID: user.ID, DisplayName: name}, nil
	})
}

func (s *ReceiptService) AddPendingParticipant(ctx context.Context, req *connect.Request[api.AddPendingParticipantRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.AddPendingParticipant{ParticipantID: s.newID(), DisplayName: req.Msg.DisplayName}, nil
	})
}

// JoinReceipt adds the caller through an invite code.
func (s *ReceiptService) JoinReceipt(ctx context.Context, req *connect.Request[api.JoinReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByInvite(msg.InviteCode), func(_ *models.Receipt, userID string) (engine.Mutation, error) {
		name := strings.TrimSpace(msg.DisplayName)
		if name == "" {
			var err error
			if name, err = s.displayName(ctx, userID); err != nil {
				return nil, err
			}
		}
		return engine.JoinReceipt{
			ParticipantID: s.newID(),
			InviteCode:    invite.Normalize(msg.InviteCode),
			DisplayName:   name,
		}, nil
	})
}

// ClaimPendingParticipant binds a placeholder to the caller through an
// invite code.
func (s *ReceiptService) ClaimPendingParticipant(ctx context.Context, req *connect.Request[api.ClaimPendingParticipantRequest]) (*connect.Response[api.MutationResponse], error) {
	msg := req.Msg
	return s.mutate(ctx, s.loadByInvite(msg.InviteCode), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.ClaimPendingParticipant{
			InviteCode:    invite.Normalize(msg.InviteCode),
			ParticipantID: msg.ParticipantID,
			DisplayName:   msg.DisplayName,
		}, nil
	})
}

func (s *ReceiptService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.RemoveParticipant{ParticipantID: req.Msg.ParticipantID}, nil
	})
}

func (s *ReceiptService) CloseParticipation(ctx context.Context, req *connect.Request[api.CloseParticipationRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.CloseParticipation{ParticipantID: req.Msg.ParticipantID}, nil
	})
}

func (s *ReceiptService) CloseReceipt(ctx context.Context, req *connect.Request[api.CloseReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.CloseReceipt{}, nil
	})
}

func (s *ReceiptService) RequestDeletion(ctx context.Context, req *connect.Request[api.RequestDeletionRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.RequestDeletion{RequestID: s.newID(), ItemID: req.Msg.ItemID}, nil
	})
}

func (s *ReceiptService) ResolveDeletion(ctx context.Context, req *connect.Request[api.ResolveDeletionRequest]) (*connect.Response[api.MutationResponse], error) {
	return s.mutate(ctx, s.loadByID(req.Msg.ReceiptID), func(*models.Receipt, string) (engine.Mutation, error) {
		return engine.ResolveDeletion{RequestID: req.Msg.RequestID, Approve: req.Msg.Approve}, nil
	})
}

type loader func(ctx context.Context) (*models.Receipt, error)

// buildFunc turns a request into a mutation against the snapshot just read.
// It runs once per attempt so fresh IDs are drawn each time.
type buildFunc func(r *models.Receipt, userID string) (engine.Mutation, error)

func (s *ReceiptService) loadByID(id string) loader {
	return func(ctx context.Context) (*models.Receipt, error) {
		if strings.TrimSpace(id) == "" {
			return nil, errs.Invalid("receipt_id", "must not be empty")
		}
		return s.store.GetReceipt(ctx, id)
	}
}

func (s *ReceiptService) loadByInvite(code string) loader {
	return func(ctx context.Context) (*models.Receipt, error) {
		normalized := invite.Normalize(code)
		if !invite.Valid(normalized) {
			return nil, errs.Invalid("invite_code", "malformed invite code")
		}
		return s.store.GetReceiptByInviteCode(ctx, normalized)
	}
}

// mutate runs the read-apply-write cycle, retrying when another writer got
// in between the read and the write.
func (s *ReceiptService) mutate(ctx context.Context, load loader, build buildFunc) (*connect.Response[api.MutationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		snapshot, err := load(ctx)
		if err != nil {
			return nil, toConnectError(err)
		}
		m, err := build(snapshot, userID)
		if err != nil {
			return nil, toConnectError(err)
		}
		kind := string(m.Kind())

		res, err := engine.Apply(snapshot, m, userID, s.now())
		if err != nil {
			s.metrics.Mutations.WithLabelValues(kind, errs.KindOf(err).String()).Inc()
			s.logger.Warn("Mutation rejected", "kind", kind, "receipt_id", snapshot.ID, "user_id", userID, "error", err)
			return nil, toConnectError(err)
		}
		if res.Noop {
			s.metrics.Mutations.WithLabelValues(kind, "noop").Inc()
			return connect.NewResponse(mutationResponse(res)), nil
		}

		err = s.store.UpdateReceipt(ctx, res.Receipt, snapshot.Version, res.Events)
		if errors.Is(err, storage.ErrStaleWrite) && attempt < maxWriteAttempts {
			s.metrics.StaleRetries.Inc()
			s.logger.Debug("Stale write, retrying", "kind", kind, "receipt_id", snapshot.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			s.metrics.Mutations.WithLabelValues(kind, "store_error").Inc()
			s.logger.Error("Failed to save receipt", "kind", kind, "receipt_id", snapshot.ID, "error", err)
			return nil, toConnectError(err)
		}

		s.metrics.Mutations.WithLabelValues(kind, "ok").Inc()
		s.warm(ctx, res.Settlement)
		s.logger.Info("Receipt updated",
			"kind", kind,
			"receipt_id", res.Receipt.ID,
			"version", res.Receipt.Version,
			"user_id", userID,
		)
		return connect.NewResponse(mutationResponse(res)), nil
	}
}

func mutationResponse(res *engine.Result) *api.MutationResponse {
	return &api.MutationResponse{
		Receipt:    toAPIReceipt(res.Receipt),
		Settlement: toAPISettlement(res.Settlement),
		Noop:       res.Noop,
	}
}

// loadVisible fetches a receipt the caller created or participates in.
func (s *ReceiptService) loadVisible(ctx context.Context, receiptID, userID string) (*models.Receipt, permission.Capabilities, error) {
	r, err := s.loadByID(receiptID)(ctx)
	if err != nil {
		return nil, permission.Capabilities{}, toConnectError(err)
	}
	caps := s.memo.Evaluate(r, userID)
	if !caps.IsCreator && !caps.IsParticipant {
		return nil, caps, connect.NewError(connect.CodePermissionDenied, errors.New("not a participant of this receipt"))
	}
	return r, caps, nil
}

// settlement reads through the cache. Cache failures only cost a
// recomputation.
func (s *ReceiptService) settlement(ctx context.Context, r *models.Receipt) (*models.Settlement, error) {
	cached, err := s.cache.Get(ctx, r.ID, r.Version)
	switch {
	case err == nil:
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("Settlement cache read failed", "receipt_id", r.ID, "error", err)
	}

	settlement, err := engine.Settle(r)
	if err != nil {
		return nil, err
	}
	s.warm(ctx, settlement)
	return &settlement, nil
}

func (s *ReceiptService) warm(ctx context.Context, settlement models.Settlement) {
	if err := s.cache.Set(ctx, &settlement); err != nil {
		s.logger.Warn("Settlement cache write failed", "receipt_id", settlement.ReceiptID, "error", err)
	}
}

func (s *ReceiptService) displayName(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errs.NotFoundf(userID, "user not found")
	}
	return user.DisplayName, nil
}
