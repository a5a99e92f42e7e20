package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/internal/storage"
)

const receiptColumns = `id, title, purchased_at, creator_id, invite_code, service_charge_percent,
	cover, total, closed, version, created_at, updated_at`

// CreateReceipt persists a new receipt and its events in one transaction.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, r *models.Receipt, events []models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (`+receiptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, toUnix(r.Date), r.CreatorID, r.InviteCode, r.ServiceChargePercent.String(),
		r.Cover.Cents(), r.Total.Cents(), boolToInt(r.Closed), r.Version, toUnix(r.CreatedAt), toUnix(r.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to insert receipt: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	if err := insertChildren(ctx, tx, r); err != nil {
		return err
	}
	if err := appendEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateReceipt writes r if the stored version equals expectedVersion.
func (s *SQLiteStore) UpdateReceipt(ctx context.Context, r *models.Receipt, expectedVersion int64, events []models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE receipts
		SET title = ?, purchased_at = ?, service_charge_percent = ?, cover = ?, total = ?,
			closed = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		r.Title, toUnix(r.Date), r.ServiceChargePercent.String(), r.Cover.Cents(), r.Total.Cents(),
		boolToInt(r.Closed), r.Version, toUnix(r.UpdatedAt),
		r.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM receipts WHERE id = ?", r.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("receipt %s: %w", r.ID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check receipt: %w", err)
		}
		return fmt.Errorf("receipt %s at version %d: %w", r.ID, expectedVersion, storage.ErrStaleWrite)
	}

	// Children are small; replace them wholesale.
	for _, table := range []string{"item_assignments", "items", "participants", "deletion_requests"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE receipt_id = ?", r.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertChildren(ctx, tx, r); err != nil {
		return err
	}
	if err := appendEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID, including all of its children.
func (s *SQLiteStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	return getReceipt(ctx, s.db, "SELECT "+receiptColumns+" FROM receipts WHERE id = ?", id)
}

// GetReceiptByInviteCode retrieves the receipt a code belongs to.
func (s *SQLiteStore) GetReceiptByInviteCode(ctx context.Context, code string) (*models.Receipt, error) {
	return getReceipt(ctx, s.db, "SELECT "+receiptColumns+" FROM receipts WHERE invite_code = ?", code)
}

// ListReceiptsByUser returns the receipts userID participates in, newest first.
func (s *SQLiteStore) ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id FROM receipts r
		JOIN participants p ON p.receipt_id = r.id
		WHERE p.user_id = ?
		ORDER BY r.created_at DESC, r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan receipt id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	receipts := make([]*models.Receipt, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetReceipt(ctx, id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func getReceipt(ctx context.Context, q querier, query string, arg string) (*models.Receipt, error) {
	r := &models.Receipt{}
	var (
		date, created, updated int64
		percent                string
		cover, total           int64
		closed                 int
	)
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&r.ID, &r.Title, &date, &r.CreatorID, &r.InviteCode, &percent,
		&cover, &total, &closed, &r.Version, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %s: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	r.ServiceChargePercent, err = decimal.NewFromString(percent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service charge %q: %w", percent, err)
	}
	r.Date = fromUnix(date)
	r.Cover = money.FromCents(cover)
	r.Total = money.FromCents(total)
	r.Closed = closed != 0
	r.CreatedAt = fromUnix(created)
	r.UpdatedAt = fromUnix(updated)

	if err := loadParticipants(ctx, q, r); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, q, r); err != nil {
		return nil, err
	}
	if err := loadDeletionRequests(ctx, q, r); err != nil {
		return nil, err
	}
	return r, nil
}

func loadParticipants(ctx context.Context, q querier, r *models.Receipt) error {
	rows, err := q.QueryContext(ctx,
		"SELECT id, display_name, user_id, pending, closed FROM participants WHERE receipt_id = ? ORDER BY position",
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name        string
			userID          sql.NullString
			pending, closed int
		)
		if err := rows.Scan(&id, &name, &userID, &pending, &closed); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if pending != 0 {
			r.PendingParticipants = append(r.PendingParticipants, models.PendingParticipant{
				ID: id, DisplayName: name, Closed: closed != 0,
			})
			continue
		}
		r.Participants = append(r.Participants, models.Participant{
			ID: id, DisplayName: name, UserID: userID.String, Closed: closed != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

func loadItems(ctx context.Context, q querier, r *models.Receipt) error {
	rows, err := q.QueryContext(ctx,
		"SELECT id, description, unit_cost, quantity FROM items WHERE receipt_id = ? ORDER BY position",
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	for rows.Next() {
		var (
			item models.Item
			cost int64
		)
		if err := rows.Scan(&item.ID, &item.Description, &cost, &item.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan item: %w", err)
		}
		item.UnitCost = money.FromCents(cost)
		r.Items = append(r.Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	assignRows, err := q.QueryContext(ctx,
		"SELECT item_id, participant_id, weight FROM item_assignments WHERE receipt_id = ? ORDER BY item_id, position",
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get item assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var itemID, participantID, weight string
		if err := assignRows.Scan(&itemID, &participantID, &weight); err != nil {
			return fmt.Errorf("failed to scan assignment: %w", err)
		}
		w, err := decimal.NewFromString(weight)
		if err != nil {
			return fmt.Errorf("failed to parse weight %q: %w", weight, err)
		}
		idx := r.ItemIndex(itemID)
		if idx < 0 {
			return fmt.Errorf("assignment references unknown item %s", itemID)
		}
		r.Items[idx].Assignments = append(r.Items[idx].Assignments, models.Assignment{ParticipantID: participantID, Weight: w})
	}
	if err := assignRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return nil
}

func loadDeletionRequests(ctx context.Context, q querier, r *models.Receipt) error {
	rows, err := q.QueryContext(ctx,
		"SELECT id, item_id, requested_by, status, created_at, resolved_at FROM deletion_requests WHERE receipt_id = ? ORDER BY position",
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get deletion requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d                 models.DeletionRequest
			created, resolved int64
		)
		if err := rows.Scan(&d.ID, &d.ItemID, &d.RequestedBy, &d.Status, &created, &resolved); err != nil {
			return fmt.Errorf("failed to scan deletion request: %w", err)
		}
		d.CreatedAt = fromUnix(created)
		d.ResolvedAt = fromUnix(resolved)
		r.DeletionRequests = append(r.DeletionRequests, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate deletion requests: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, r *models.Receipt) error {
	pos := 0
	for _, p := range r.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (receipt_id, id, position, display_name, user_id, pending, closed) VALUES (?, ?, ?, ?, ?, 0, ?)",
			r.ID, p.ID, pos, p.DisplayName, p.UserID, boolToInt(p.Closed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
		pos++
	}
	for _, p := range r.PendingParticipants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (receipt_id, id, position, display_name, user_id, pending, closed) VALUES (?, ?, ?, ?, NULL, 1, ?)",
			r.ID, p.ID, pos, p.DisplayName, boolToInt(p.Closed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert pending participant: %w", err)
		}
		pos++
	}

	for i, item := range r.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (receipt_id, id, position, description, unit_cost, quantity) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, item.ID, i, item.Description, item.UnitCost.Cents(), item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for j, a := range item.Assignments {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO item_assignments (receipt_id, item_id, participant_id, position, weight) VALUES (?, ?, ?, ?, ?)",
				r.ID, item.ID, a.ParticipantID, j, a.Weight.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	for i, d := range r.DeletionRequests {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO deletion_requests (receipt_id, id, position, item_id, requested_by, status, created_at, resolved_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.ID, d.ID, i, d.ItemID, d.RequestedBy, string(d.Status), toUnix(d.CreatedAt), toUnix(d.ResolvedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert deletion request: %w", err)
		}
	}
	return nil
}
