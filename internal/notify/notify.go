// Package notify delivers receipt events recorded in the outbox.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/receiptsplit/internal/metrics"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// Publisher delivers one event to the people it affects.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// Message renders a short human-readable line for an event.
func Message(ev models.Event) string {
	switch ev.Kind {
	case models.EventItemAdded:
		return fmt.Sprintf("item %q added to receipt %s", ev.Detail, ev.ReceiptID)
	case models.EventReceiptClosed:
		return fmt.Sprintf("receipt %s is closed; totals are final", ev.ReceiptID)
	case models.EventParticipationClosed:
		return fmt.Sprintf("participation closed on receipt %s", ev.ReceiptID)
	case models.EventDeletionRequested:
		return fmt.Sprintf("deletion of %q requested on receipt %s", ev.Detail, ev.ReceiptID)
	case models.EventDeletionResolved:
		return fmt.Sprintf("deletion request %s on receipt %s", ev.Detail, ev.ReceiptID)
	default:
		return fmt.Sprintf("%s on receipt %s", ev.Kind, ev.ReceiptID)
	}
}

// LogPublisher writes every event to a structured logger.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev models.Event) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Notification",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"receipt_id", ev.ReceiptID,
		"actor_id", ev.ActorID,
		"recipients", strings.Join(ev.ParticipantIDs, ","),
		"message", Message(ev),
	)
	return nil
}

// Poller moves events from the outbox to a Publisher.
type Poller struct {
	store     storage.OutboxStore
	publisher Publisher
	interval  time.Duration
	batch     int
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPoller(store storage.OutboxStore, publisher Publisher, interval time.Duration, m *metrics.Metrics) *Poller {
	return &Poller{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batch:     100,
		metrics:   m,
		now:       time.Now,
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ProcessPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending publishes one batch and returns how many events were
// delivered. Failed events stay pending and are retried on the next tick.
func (p *Poller) ProcessPending(ctx context.Context) int {
	events, err := p.store.ListPendingEvents(ctx, p.batch)
	if err != nil {
		slog.Error("Failed to fetch outbox events", "error", err)
		return 0
	}

	delivered := make([]int64, 0, len(events))
	for _, ev := range events {
		if err := p.publisher.Publish(ctx, ev); err != nil {
			slog.Warn("Failed to publish event", "event_id", ev.ID, "kind", ev.Kind, "error", err)
			if p.metrics != nil {
				p.metrics.EventsFailed.Inc()
			}
			continue
		}
		delivered = append(delivered, ev.ID)
	}

	if err := p.store.MarkEventsPublished(ctx, delivered, p.now()); err != nil {
		slog.Error("Failed to mark events published", "count", len(delivered), "error", err)
		return 0
	}
	if p.metrics != nil {
		p.metrics.EventsPublished.Add(float64(len(delivered)))
	}
	return len(delivered)
}
