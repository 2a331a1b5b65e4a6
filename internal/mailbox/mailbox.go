// Package mailbox abstracts the remote mail service and provides the
// Gmail implementation.
package mailbox

import (
	"context"
	"iter"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

// FetchOptions restricts which messages a fetch run visits.
type FetchOptions struct {
	// MaxResults caps the total number of messages fetched across all
	// batches. Zero means no cap.
	MaxResults int
	// Days restricts the fetch to messages received within the last N
	// days. Zero means no date restriction.
	Days int
	// OnlyUnread restricts the fetch to unread messages.
	OnlyUnread bool
}

// Service is the remote mailbox surface consumed by the processor and
// the rules engine.
type Service interface {
	// FetchBatches returns a finite, non-restartable sequence of
	// message batches in mailbox delivery order. Fetch errors end the
	// sequence after being logged; they are not fatal to the caller.
	FetchBatches(ctx context.Context, opts FetchOptions) iter.Seq[[]model.Email]

	SetRead(ctx context.Context, id string, read bool) error
	MoveToLabel(ctx context.Context, id, label string) error
}
