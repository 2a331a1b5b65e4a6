// Package model defines the domain types used across the application.
package model

import "time"

// Email is the immutable view of a fetched message. The engine never
// mutates it; actions mutate the mailbox and the persisted copy.
type Email struct {
	ID         string
	Sender     string
	Recipient  string
	Subject    string
	Body       string
	Labels     []string
	ReceivedAt time.Time
	Read       bool
}

// Field identifies which part of an email a condition inspects.
type Field string

// Supported condition fields.
const (
	FieldSender       Field = "sender"
	FieldRecipient    Field = "recipient"
	FieldSubject      Field = "subject"
	FieldBody         Field = "body"
	FieldReceivedDate Field = "received_date"
)

// IsDate reports whether the field holds a timestamp rather than text.
func (f Field) IsDate() bool { return f == FieldReceivedDate }

// Predicate defines the comparison a condition performs.
type Predicate string

// String predicates are case-insensitive. The date predicates compare
// message age against a "<N> days" threshold: less_than means newer
// than N days, greater_than means older.
const (
	PredContains       Predicate = "contains"
	PredDoesNotContain Predicate = "does_not_contain"
	PredEquals         Predicate = "equals"
	PredDoesNotEqual   Predicate = "does_not_equal"
	PredLessThan       Predicate = "less_than"
	PredGreaterThan    Predicate = "greater_than"
)

// IsDate reports whether the predicate applies to date fields.
func (p Predicate) IsDate() bool {
	return p == PredLessThan || p == PredGreaterThan
}

// Condition is a single predicate test against one email field.
type Condition struct {
	Field     Field
	Predicate Predicate
	Value     string
}

// CombineMode defines how a rule combines its condition results.
type CombineMode string

// Supported combine modes.
const (
	CombineAll CombineMode = "all"
	CombineAny CombineMode = "any"
)

// ActionType tags an action variant. Unknown types survive loading and
// are skipped at apply time.
type ActionType string

// Supported action types.
const (
	ActionMarkAsRead   ActionType = "mark_as_read"
	ActionMarkAsUnread ActionType = "mark_as_unread"
	ActionMoveMessage  ActionType = "move_message"
)

// Action is a mutation request applied to both the mailbox and the
// store. Label is only meaningful for move_message.
type Action struct {
	Type  ActionType
	Label string
}

// Rule is a named group of conditions combined by all/any, with an
// ordered list of actions. A rule with no conditions never matches.
type Rule struct {
	Name       string
	Conditions []Condition
	Combine    CombineMode
	Actions    []Action
}
