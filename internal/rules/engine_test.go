package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Mounikaran/wall-e-mail/internal/model"
)

func writeRulesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

const validJSON = `{
  "rules": [
    {
      "name": "Mark test mail read",
      "conditions": [
        {"field": "subject", "predicate": "contains", "value": "test"}
      ],
      "predicate": "all",
      "actions": [{"type": "mark_as_read"}]
    }
  ]
}`

const validYAML = `rules:
  - name: Archive old newsletters
    conditions:
      - field: from
        predicate: contains
        value: newsletter@
      - field: received_date
        predicate: greater_than
        value: 30 days
    predicate: all
    actions:
      - type: move_message
        label: Newsletters
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantLen int
	}{
		{
			name:    "valid json",
			file:    "rules.json",
			content: validJSON,
			wantLen: 1,
		},
		{
			name:    "valid yaml",
			file:    "rules.yaml",
			content: validYAML,
			wantLen: 1,
		},
		{
			name:    "malformed json degrades to empty",
			file:    "rules.json",
			content: `{"rules": [`,
			wantLen: 0,
		},
		{
			name:    "unknown field rejected at load",
			file:    "rules.json",
			content: `{"rules":[{"name":"r","conditions":[{"field":"cc","predicate":"contains","value":"x"}],"predicate":"all","actions":[]}]}`,
			wantLen: 0,
		},
		{
			name:    "unknown predicate rejected at load",
			file:    "rules.json",
			content: `{"rules":[{"name":"r","conditions":[{"field":"subject","predicate":"matches","value":"x"}],"predicate":"all","actions":[]}]}`,
			wantLen: 0,
		},
		{
			name:    "date predicate on string field rejected at load",
			file:    "rules.json",
			content: `{"rules":[{"name":"r","conditions":[{"field":"subject","predicate":"less_than","value":"7 days"}],"predicate":"all","actions":[]}]}`,
			wantLen: 0,
		},
		{
			name:    "unknown combine predicate rejected at load",
			file:    "rules.json",
			content: `{"rules":[{"name":"r","conditions":[{"field":"subject","predicate":"contains","value":"x"}],"predicate":"one","actions":[]}]}`,
			wantLen: 0,
		},
		{
			name:    "unknown action type survives loading",
			file:    "rules.json",
			content: `{"rules":[{"name":"r","conditions":[{"field":"subject","predicate":"contains","value":"x"}],"predicate":"all","actions":[{"type":"forward_to"}]}]}`,
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRulesFile(t, tt.file, tt.content)
			en := Load(path, discardLogger())
			if diff := cmp.Diff(tt.wantLen, en.Len()); diff != "" {
				t.Errorf("rule count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	en := Load(filepath.Join(t.TempDir(), "nope.json"), discardLogger())
	if en.Len() != 0 {
		t.Errorf("expected empty engine, got %d rules", en.Len())
	}
}

func TestLoadFieldAliases(t *testing.T) {
	path := writeRulesFile(t, "rules.json",
		`{"rules":[{"name":"r","conditions":[
		   {"field":"from","predicate":"contains","value":"a"},
		   {"field":"to","predicate":"contains","value":"b"}
		 ],"predicate":"any","actions":[]}]}`)
	en := Load(path, discardLogger())
	if en.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", en.Len())
	}
	want := []model.Condition{
		{Field: model.FieldSender, Predicate: model.PredContains, Value: "a"},
		{Field: model.FieldRecipient, Predicate: model.PredContains, Value: "b"},
	}
	if diff := cmp.Diff(want, en.rules[0].Conditions); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessSingleRuleMatch(t *testing.T) {
	ctx := context.Background()
	path := writeRulesFile(t, "rules.json", validJSON)
	en := Load(path, discardLogger())

	e := sampleEmail(time.Now())
	e.Subject = "Test Subject"

	mb := &mockMailbox{}
	st := &mockStore{}

	if !en.Process(ctx, e, mb, st) {
		t.Fatal("expected Process to return true for a matching email")
	}

	wantMB := []mailboxCall{{Method: "SetRead", ID: "test123", Read: true}}
	if diff := cmp.Diff(wantMB, mb.calls); diff != "" {
		t.Errorf("mailbox calls mismatch (-want +got):\n%s", diff)
	}
	wantST := []storeCall{{Method: "SetRead", ID: "test123", Read: true}}
	if diff := cmp.Diff(wantST, st.calls); diff != "" {
		t.Errorf("store calls mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessNoMatch(t *testing.T) {
	ctx := context.Background()
	en := Load(writeRulesFile(t, "rules.json", validJSON), discardLogger())

	e := sampleEmail(time.Now())
	e.Subject = "Quarterly report"

	mb := &mockMailbox{}
	st := &mockStore{}

	if en.Process(ctx, e, mb, st) {
		t.Fatal("expected Process to return false for a non-matching email")
	}
	if len(mb.calls) != 0 || len(st.calls) != 0 {
		t.Errorf("expected no collaborator calls, got mailbox=%d store=%d", len(mb.calls), len(st.calls))
	}
}

func TestProcessEvaluatesAllRulesDespiteActionFailure(t *testing.T) {
	ctx := context.Background()

	subjectMatch := model.Condition{Field: model.FieldSubject, Predicate: model.PredContains, Value: "test"}
	en := New([]model.Rule{
		{
			Name:       "failing move",
			Conditions: []model.Condition{subjectMatch},
			Combine:    model.CombineAll,
			Actions:    []model.Action{{Type: model.ActionMoveMessage, Label: "Archive"}},
		},
		{
			Name:       "mark read",
			Conditions: []model.Condition{subjectMatch},
			Combine:    model.CombineAll,
			Actions:    []model.Action{{Type: model.ActionMarkAsRead}},
		},
	}, discardLogger())

	e := sampleEmail(time.Now())
	mb := &mockMailbox{failMov: true}
	st := &mockStore{}

	// The second rule's actions fully applied, so the email processed.
	if !en.Process(ctx, e, mb, st) {
		t.Fatal("expected Process to return true")
	}

	wantMB := []mailboxCall{{Method: "SetRead", ID: "test123", Read: true}}
	if diff := cmp.Diff(wantMB, mb.calls); diff != "" {
		t.Errorf("mailbox calls mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessAllRulesFailActions(t *testing.T) {
	ctx := context.Background()

	subjectMatch := model.Condition{Field: model.FieldSubject, Predicate: model.PredContains, Value: "test"}
	en := New([]model.Rule{
		{
			Name:       "failing move",
			Conditions: []model.Condition{subjectMatch},
			Combine:    model.CombineAll,
			Actions:    []model.Action{{Type: model.ActionMoveMessage, Label: "Archive"}},
		},
	}, discardLogger())

	e := sampleEmail(time.Now())
	if en.Process(ctx, e, &mockMailbox{failMov: true}, &mockStore{}) {
		t.Fatal("expected Process to return false when no rule fully applied")
	}
}

func TestProcessMultipleRulesAllFire(t *testing.T) {
	ctx := context.Background()

	subjectMatch := model.Condition{Field: model.FieldSubject, Predicate: model.PredContains, Value: "test"}
	en := New([]model.Rule{
		{
			Name:       "mark read",
			Conditions: []model.Condition{subjectMatch},
			Combine:    model.CombineAll,
			Actions:    []model.Action{{Type: model.ActionMarkAsRead}},
		},
		{
			Name:       "archive",
			Conditions: []model.Condition{subjectMatch},
			Combine:    model.CombineAll,
			Actions:    []model.Action{{Type: model.ActionMoveMessage, Label: "Archive"}},
		},
	}, discardLogger())

	e := sampleEmail(time.Now())
	mb := &mockMailbox{}
	st := &mockStore{}

	if !en.Process(ctx, e, mb, st) {
		t.Fatal("expected Process to return true")
	}

	wantMB := []mailboxCall{
		{Method: "SetRead", ID: "test123", Read: true},
		{Method: "MoveToLabel", ID: "test123", Label: "Archive"},
	}
	if diff := cmp.Diff(wantMB, mb.calls); diff != "" {
		t.Errorf("mailbox calls mismatch (-want +got):\n%s", diff)
	}
}
