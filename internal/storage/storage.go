// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

// MessageStore is the interface for all email persistence operations.
type MessageStore interface {
	// UpsertBatch inserts or updates emails in a single transaction,
	// keyed by email ID. Re-inserting an existing ID overwrites its
	// ingest fields and leaves the processed mark untouched.
	UpsertBatch(ctx context.Context, emails []model.Email) error

	// MarkProcessedBatch marks the given IDs as processed in a single
	// transaction.
	MarkProcessedBatch(ctx context.Context, ids []string) error

	SetRead(ctx context.Context, id string, read bool) error
	UpdateLabels(ctx context.Context, id string, labels []string) error

	// ListEmails returns stored emails, restricted to the last days
	// when days > 0.
	ListEmails(ctx context.Context, days int) ([]model.Email, error)

	// ListProcessedIDs returns processed email IDs. A non-empty ids
	// argument restricts the result to that set.
	ListProcessedIDs(ctx context.Context, ids []string) ([]string, error)

	Close() error
}
