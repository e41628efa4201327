package core

import (
	"context"
	"testing"

	"quotecore/pkg/domain"
)

func evaluateRule(t *testing.T, rule domain.Rule, changes []Change) Result {
	t.Helper()
	state := newSessionState()
	res, err := rule.Evaluate(context.Background(), stateView{state: &state}, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestQuoteBoundsRule(t *testing.T) {
	rule := NewQuoteBoundsRule()

	res := evaluateRule(t, rule, []Change{{Entity: EntityQuote, Action: ActionCreate, After: Quote{ID: 1, UnitPrice: 10, Quantity: 1}}})
	if len(res.Violations) != 0 {
		t.Fatalf("valid quote flagged: %+v", res.Violations)
	}

	res = evaluateRule(t, rule, []Change{{Entity: EntityQuote, Action: ActionUpdate, After: Quote{ID: 2, UnitPrice: -1, Quantity: 0}}})
	if len(res.Violations) != 2 || !res.HasBlocking() {
		t.Fatalf("expected two blocking violations, got %+v", res.Violations)
	}

	// deletes and other entities are outside the rule's scope
	res = evaluateRule(t, rule, []Change{
		{Entity: EntityQuote, Action: ActionDelete, Before: Quote{ID: 3, UnitPrice: -1}},
		{Entity: EntityProject, Action: ActionCreate, After: Project{Name: "p"}},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("out-of-scope changes flagged: %+v", res.Violations)
	}
}

func TestProjectScheduleRule(t *testing.T) {
	rule := NewProjectScheduleRule()

	res := evaluateRule(t, rule, []Change{{Entity: EntityProject, Action: ActionCreate, After: Project{Name: "ok", DueDate: domain.NewDate(2026, 9, 1), BufferDays: 3}}})
	if len(res.Violations) != 0 {
		t.Fatalf("valid project flagged: %+v", res.Violations)
	}

	res = evaluateRule(t, rule, []Change{{Entity: EntityProject, Action: ActionUpdate, After: Project{Name: "bad", BufferDays: -2}}})
	if !res.HasBlocking() {
		t.Fatalf("negative buffer must block")
	}
	// missing due date also produces a warning on the same change
	warns := 0
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected one warning, got %+v", res.Violations)
	}
}

func TestDefaultEngineBlocksBadQuote(t *testing.T) {
	engine := NewDefaultRulesEngine()
	state := newSessionState()
	res, err := engine.Evaluate(context.Background(), stateView{state: &state}, []Change{
		{Entity: EntityQuote, Action: ActionCreate, After: Quote{ID: 1, UnitPrice: -5, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("default engine must block a negative price")
	}
}
