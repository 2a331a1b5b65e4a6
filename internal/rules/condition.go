// Package rules implements the email matching and triage engine.
package rules

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

// EvalCondition reports whether a single condition holds for the email
// at the given evaluation instant. It is total: unknown fields and
// field/predicate mismatches evaluate to false, never an error.
func EvalCondition(c model.Condition, e model.Email, now time.Time, log *slog.Logger) bool {
	switch c.Field {
	case model.FieldReceivedDate:
		return evalDate(c, e.ReceivedAt, now, log)
	case model.FieldSender:
		return evalString(c, e.Sender)
	case model.FieldRecipient:
		return evalString(c, e.Recipient)
	case model.FieldSubject:
		return evalString(c, e.Subject)
	case model.FieldBody:
		return evalString(c, e.Body)
	}
	log.Error("unknown condition field", "field", string(c.Field))
	return false
}

func evalString(c model.Condition, fieldValue string) bool {
	value := strings.ToLower(c.Value)
	fieldValue = strings.ToLower(fieldValue)

	switch c.Predicate {
	case model.PredContains:
		return strings.Contains(fieldValue, value)
	case model.PredDoesNotContain:
		return !strings.Contains(fieldValue, value)
	case model.PredEquals:
		return fieldValue == value
	case model.PredDoesNotEqual:
		return fieldValue != value
	}
	return false
}

func evalDate(c model.Condition, received, now time.Time, log *slog.Logger) bool {
	days, ok := parseDays(c.Value)
	if !ok {
		log.Error("invalid date condition value", "value", c.Value)
		return false
	}

	// Compare wall-clock values with zone information dropped. Not
	// DST-correct; kept for parity with the stored representation.
	threshold := stripZone(now).AddDate(0, 0, -days)
	received = stripZone(received)

	switch c.Predicate {
	case model.PredLessThan:
		// Age less than N days: received within the window.
		return received.After(threshold)
	case model.PredGreaterThan:
		return received.Before(threshold)
	}
	return false
}

// parseDays parses a "<N> days" comparison value.
func parseDays(value string) (int, bool) {
	if !strings.Contains(value, "days") {
		return 0, false
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
