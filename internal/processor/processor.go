// Package processor orchestrates fetch, persist, evaluate, and
// mark-processed for batches of emails.
package processor

import (
	"context"
	"log/slog"

	"github.com/Mounikaran/wall-e-mail/internal/mailbox"
	"github.com/Mounikaran/wall-e-mail/internal/model"
	"github.com/Mounikaran/wall-e-mail/internal/rules"
	"github.com/Mounikaran/wall-e-mail/internal/storage"
)

// Processor runs batches of fetched emails through the rules engine.
// A single message's failure never aborts its batch, and a batch's
// failure never aborts the run.
type Processor struct {
	mailbox mailbox.Service
	store   storage.MessageStore
	engine  *rules.Engine
	log     *slog.Logger

	// dryRun evaluates rules without persisting or applying actions.
	dryRun bool
}

// Stats summarizes a processing run.
type Stats struct {
	Batches   int
	Fetched   int
	Processed int
}

// New creates a Processor.
func New(mb mailbox.Service, store storage.MessageStore, engine *rules.Engine, log *slog.Logger) *Processor {
	return &Processor{mailbox: mb, store: store, engine: engine, log: log}
}

// SetDryRun makes the run log matches without mutating the mailbox or
// the store.
func (p *Processor) SetDryRun(v bool) { p.dryRun = v }

// Run fetches batches and processes each until the mailbox sequence
// ends or the context is canceled.
func (p *Processor) Run(ctx context.Context, opts mailbox.FetchOptions) Stats {
	var stats Stats
	for batch := range p.mailbox.FetchBatches(ctx, opts) {
		if ctx.Err() != nil {
			break
		}
		stats.Batches++
		stats.Fetched += len(batch)
		p.log.Info("processing batch", "batch", stats.Batches, "size", len(batch))

		processed := p.processBatch(ctx, batch)
		stats.Processed += processed
		if processed > 0 {
			p.log.Info("marked emails as processed",
				"batch", stats.Batches, "count", processed, "total", stats.Processed)
		}
	}
	return stats
}

// processBatch persists the batch, evaluates every email, and marks
// the ones that matched. It returns how many were marked.
func (p *Processor) processBatch(ctx context.Context, batch []model.Email) int {
	mb, st := p.collaborators()

	if !p.dryRun {
		if err := p.store.UpsertBatch(ctx, batch); err != nil {
			p.log.Error("store batch", "size", len(batch), "error", err)
			return 0
		}
	}

	var processedIDs []string
	for _, e := range batch {
		if p.engine.Process(ctx, e, mb, st) {
			processedIDs = append(processedIDs, e.ID)
		}
	}

	if p.dryRun {
		for _, id := range processedIDs {
			p.log.Info("dry-run match", "email_id", id)
		}
		return len(processedIDs)
	}

	if len(processedIDs) > 0 {
		if err := p.store.MarkProcessedBatch(ctx, processedIDs); err != nil {
			p.log.Error("mark processed batch", "count", len(processedIDs), "error", err)
			return 0
		}
	}
	return len(processedIDs)
}

func (p *Processor) collaborators() (rules.Mailbox, rules.Store) {
	if p.dryRun {
		return nopMailbox{}, nopStore{}
	}
	return p.mailbox, p.store
}

type nopMailbox struct{}

func (nopMailbox) SetRead(context.Context, string, bool) error       { return nil }
func (nopMailbox) MoveToLabel(context.Context, string, string) error { return nil }

type nopStore struct{}

func (nopStore) SetRead(context.Context, string, bool) error          { return nil }
func (nopStore) UpdateLabels(context.Context, string, []string) error { return nil }
