// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/receiptsplit/internal/models"
)

var (
	// ErrNotFound is returned when a receipt or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite is returned by UpdateReceipt when the stored version no
	// longer matches the version the caller read.
	ErrStaleWrite = errors.New("receipt was modified concurrently")

	// ErrDuplicate is returned when a unique key (email, invite code) is taken.
	ErrDuplicate = errors.New("already exists")
)

// ReceiptStore persists receipt aggregates. Events passed alongside a write
// are appended to the outbox in the same transaction.
type ReceiptStore interface {
	// CreateReceipt persists a new receipt.
	CreateReceipt(ctx context.Context, r *models.Receipt, events []models.Event) error

	// GetReceipt retrieves a receipt with all participants, items and
	// deletion requests. Returns ErrNotFound if it does not exist.
	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)

	// GetReceiptByInviteCode looks a receipt up by its invite code.
	GetReceiptByInviteCode(ctx context.Context, code string) (*models.Receipt, error)

	// UpdateReceipt replaces the stored receipt if its version still equals
	// expectedVersion, else returns ErrStaleWrite.
	UpdateReceipt(ctx context.Context, r *models.Receipt, expectedVersion int64, events []models.Event) error

	// ListReceiptsByUser returns the receipts a user participates in, newest
	// first.
	ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error)
}

// UserStore persists registered users. Lookups return (nil, nil) when the
// user does not exist.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// OutboxStore hands recorded events to the notification poller.
type OutboxStore interface {
	// ListPendingEvents returns up to limit unpublished events, oldest first.
	ListPendingEvents(ctx context.Context, limit int) ([]models.Event, error)

	// MarkEventsPublished flags the given events as delivered.
	MarkEventsPublished(ctx context.Context, ids []int64, at time.Time) error
}

// Store defines every storage operation the service needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	ReceiptStore
	UserStore
	OutboxStore

	// Close releases any resources held by the store.
	Close() error
}
