package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

// Engine evaluates an ordered set of rules against emails. Rules are
// immutable after construction, so an Engine is safe for concurrent
// reads.
type Engine struct {
	rules []model.Rule
	log   *slog.Logger
	now   func() time.Time
}

// New creates an Engine over an already-validated rule list.
func New(rules []model.Rule, log *slog.Logger) *Engine {
	return &Engine{rules: rules, log: log, now: time.Now}
}

// Load reads a rules document from path and returns an Engine. The
// document is JSON or YAML, chosen by file extension. Malformed
// documents degrade to an empty rule list with a logged error, so a
// bad config never aborts startup.
func Load(path string, log *slog.Logger) *Engine {
	rules, err := loadRules(path)
	if err != nil {
		log.Error("load rules", "path", path, "error", err)
		return New(nil, log)
	}
	log.Info("loaded rules", "path", path, "count", len(rules))
	return New(rules, log)
}

// Len returns the number of loaded rules.
func (en *Engine) Len() int { return len(en.rules) }

// Process evaluates every rule against the email, in declaration
// order, and applies the actions of each rule that matches. A failed
// action application is logged and does not stop later rules from
// being evaluated. It returns true when at least one rule matched and
// had all of its actions applied; those are the emails the caller
// marks as processed.
func (en *Engine) Process(ctx context.Context, e model.Email, mailbox Mailbox, store Store) bool {
	now := en.now()
	processed := false
	for _, r := range en.rules {
		if !EvalRule(r, e, now, en.log) {
			continue
		}
		if ApplyActions(ctx, r, e, mailbox, store, en.log) {
			en.log.Debug("applied rule", "rule", r.Name, "email_id", e.ID)
			processed = true
		} else {
			en.log.Error("failed to apply rule", "rule", r.Name, "email_id", e.ID)
		}
	}
	return processed
}

type rulesDoc struct {
	Rules []ruleSpec `json:"rules" yaml:"rules"`
}

type ruleSpec struct {
	Name       string       `json:"name" yaml:"name"`
	Conditions []condSpec   `json:"conditions" yaml:"conditions"`
	Predicate  string       `json:"predicate" yaml:"predicate"`
	Actions    []actionSpec `json:"actions" yaml:"actions"`
}

type condSpec struct {
	Field     string `json:"field" yaml:"field"`
	Predicate string `json:"predicate" yaml:"predicate"`
	Value     string `json:"value" yaml:"value"`
}

type actionSpec struct {
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// fieldAliases maps accepted configuration field names to canonical
// fields. "from" and "to" are kept for compatibility with older rule
// files.
var fieldAliases = map[string]model.Field{
	"from":          model.FieldSender,
	"sender":        model.FieldSender,
	"to":            model.FieldRecipient,
	"recipient":     model.FieldRecipient,
	"subject":       model.FieldSubject,
	"body":          model.FieldBody,
	"received_date": model.FieldReceivedDate,
}

var knownPredicates = map[model.Predicate]bool{
	model.PredContains:       true,
	model.PredDoesNotContain: true,
	model.PredEquals:         true,
	model.PredDoesNotEqual:   true,
	model.PredLessThan:       true,
	model.PredGreaterThan:    true,
}

func loadRules(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var doc rulesDoc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	rules := make([]model.Rule, 0, len(doc.Rules))
	for _, rs := range doc.Rules {
		r, err := buildRule(rs)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rs.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// buildRule validates a parsed rule. Unknown fields and predicates are
// rejected here, at load time, instead of failing on every evaluation.
func buildRule(rs ruleSpec) (model.Rule, error) {
	combine := model.CombineMode(rs.Predicate)
	if combine != model.CombineAll && combine != model.CombineAny {
		return model.Rule{}, fmt.Errorf("unknown combine predicate %q", rs.Predicate)
	}

	conditions := make([]model.Condition, 0, len(rs.Conditions))
	for _, cs := range rs.Conditions {
		field, ok := fieldAliases[strings.ToLower(cs.Field)]
		if !ok {
			return model.Rule{}, fmt.Errorf("unknown field %q", cs.Field)
		}
		pred := model.Predicate(cs.Predicate)
		if !knownPredicates[pred] {
			return model.Rule{}, fmt.Errorf("unknown predicate %q", cs.Predicate)
		}
		if field.IsDate() != pred.IsDate() {
			return model.Rule{}, fmt.Errorf("predicate %q does not apply to field %q", cs.Predicate, cs.Field)
		}
		conditions = append(conditions, model.Condition{Field: field, Predicate: pred, Value: cs.Value})
	}

	actions := make([]model.Action, 0, len(rs.Actions))
	for _, as := range rs.Actions {
		// Unknown action types are kept; they are skipped at
		// apply time rather than rejected.
		actions = append(actions, model.Action{Type: model.ActionType(as.Type), Label: as.Label})
	}

	return model.Rule{
		Name:       rs.Name,
		Conditions: conditions,
		Combine:    combine,
		Actions:    actions,
	}, nil
}
