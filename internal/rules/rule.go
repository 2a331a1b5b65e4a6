package rules

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

// Mailbox is the remote mailbox surface needed to apply actions.
type Mailbox interface {
	SetRead(ctx context.Context, id string, read bool) error
	MoveToLabel(ctx context.Context, id, label string) error
}

// Store is the local persistence surface needed to apply actions.
type Store interface {
	SetRead(ctx context.Context, id string, read bool) error
	UpdateLabels(ctx context.Context, id string, labels []string) error
}

// EvalRule reports whether the rule matches the email. Every condition
// is evaluated (no short-circuit) so that each one gets a chance to
// log, then the results are combined by the rule's mode. A rule with
// no conditions never matches.
func EvalRule(r model.Rule, e model.Email, now time.Time, log *slog.Logger) bool {
	if len(r.Conditions) == 0 {
		return false
	}

	results := make([]bool, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		results = append(results, EvalCondition(c, e, now, log))
	}

	switch r.Combine {
	case model.CombineAll:
		for _, ok := range results {
			if !ok {
				return false
			}
		}
		return true
	case model.CombineAny:
		for _, ok := range results {
			if ok {
				return true
			}
		}
		return false
	}
	return false
}

// ApplyActions runs the rule's actions in order against both
// collaborators. The first failing call aborts the list and returns
// false; effects already applied stay applied (no rollback, and no
// transaction spanning mailbox and store). Unrecognized action types
// are skipped.
func ApplyActions(ctx context.Context, r model.Rule, e model.Email, mailbox Mailbox, store Store, log *slog.Logger) bool {
	for _, a := range r.Actions {
		var err error
		switch a.Type {
		case model.ActionMarkAsRead:
			err = applyRead(ctx, e.ID, true, mailbox, store)
		case model.ActionMarkAsUnread:
			err = applyRead(ctx, e.ID, false, mailbox, store)
		case model.ActionMoveMessage:
			// A move without a label has nowhere to go; skip it
			// like an unrecognized action.
			if a.Label == "" {
				continue
			}
			err = applyMove(ctx, e.ID, a.Label, mailbox, store)
		default:
			continue
		}
		if err != nil {
			log.Error("apply actions", "rule", r.Name, "email_id", e.ID, "action", string(a.Type), "error", err)
			return false
		}
	}
	return true
}

func applyRead(ctx context.Context, id string, read bool, mailbox Mailbox, store Store) error {
	if err := mailbox.SetRead(ctx, id, read); err != nil {
		return err
	}
	return store.SetRead(ctx, id, read)
}

func applyMove(ctx context.Context, id, label string, mailbox Mailbox, store Store) error {
	if err := mailbox.MoveToLabel(ctx, id, label); err != nil {
		return err
	}
	return store.UpdateLabels(ctx, id, []string{label})
}
