package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/receiptsplit/internal/models"
)

// appendEvents writes events to the outbox inside tx.
func appendEvents(ctx context.Context, tx *sql.Tx, events []models.Event) error {
	for _, ev := range events {
		ids, err := json.Marshal(ev.ParticipantIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal participant ids: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO receipt_events (kind, receipt_id, actor_id, participant_ids, detail, occurred_at) VALUES (?, ?, ?, ?, ?, ?)",
			string(ev.Kind), ev.ReceiptID, ev.ActorID, string(ids), ev.Detail, toUnix(ev.OccurredAt),
		)
		if err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}
	return nil
}

// ListPendingEvents returns up to limit unpublished events in insertion order.
func (s *SQLiteStore) ListPendingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, receipt_id, actor_id, participant_ids, detail, occurred_at
		FROM receipt_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev       models.Event
			ids      string
			occurred int64
		)
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.ReceiptID, &ev.ActorID, &ids, &ev.Detail, &occurred); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &ev.ParticipantIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant ids of event %d: %w", ev.ID, err)
		}
		ev.OccurredAt = fromUnix(occurred)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// MarkEventsPublished stamps the given events as delivered.
func (s *SQLiteStore) MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, toUnix(at))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE receipt_events SET published_at = ? WHERE id IN (?"+strings.Repeat(", ?", len(ids)-1)+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to mark events published: %w", err)
	}
	return nil
}
