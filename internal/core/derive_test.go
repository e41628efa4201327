package core

import (
	"testing"

	"quotecore/pkg/domain"
)

func TestDeriveLatestArrival(t *testing.T) {
	projects := map[string]Project{
		"alpha": {Name: "alpha", DueDate: domain.NewDate(2026, 6, 20), BufferDays: 5},
		"beta":  {Name: "beta"}, // no due date
	}
	quotes := []Quote{
		{ID: 1, Project: "alpha", LatestArrival: domain.NewDate(2000, 1, 1)},
		{ID: 2, Project: "beta", LatestArrival: domain.NewDate(2000, 1, 1)},
		{ID: 3, Project: "ghost", LatestArrival: domain.NewDate(2000, 1, 1)},
	}
	derived := DeriveLatestArrival(quotes, projects)
	if !derived[0].LatestArrival.Equal(domain.NewDate(2026, 6, 15)) {
		t.Fatalf("alpha latest arrival: %s", derived[0].LatestArrival)
	}
	if !derived[1].LatestArrival.IsZero() {
		t.Fatalf("project without due date must unset the field, got %s", derived[1].LatestArrival)
	}
	if !derived[2].LatestArrival.IsZero() {
		t.Fatalf("unknown project must unset the field, got %s", derived[2].LatestArrival)
	}
	// input untouched
	if !quotes[0].LatestArrival.Equal(domain.NewDate(2000, 1, 1)) {
		t.Fatalf("input slice mutated")
	}
	// idempotent
	again := DeriveLatestArrival(derived, projects)
	for i := range again {
		if !again[i].LatestArrival.Equal(derived[i].LatestArrival) {
			t.Fatalf("derivation not idempotent at %d", i)
		}
	}
}

func TestBudgetForGroup(t *testing.T) {
	cases := []struct {
		name string
		rows []Quote
		want float64
	}{
		{"empty", nil, 0},
		{"no selection takes minimum", []Quote{{Total: 100}, {Total: 80}, {Total: 120}}, 80},
		{"selection sums selected only", []Quote{{Total: 100, Selected: true}, {Total: 80}, {Total: 120, Selected: true}}, 220},
		{"single selected beats cheaper unselected", []Quote{{Total: 100, Selected: true}, {Total: 80}}, 100},
	}
	for _, tc := range cases {
		if got := BudgetForGroup(tc.rows); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestTotalBudgetSumsPerGroup(t *testing.T) {
	quotes := []Quote{
		{ID: 1, Project: "alpha", Item: "pump", Total: 100},
		{ID: 2, Project: "alpha", Item: "pump", Total: 80},
		{ID: 3, Project: "alpha", Item: "hose", Total: 30, Selected: true},
		{ID: 4, Project: "beta", Item: "pump", Total: 50},
	}
	if got := TotalBudget(quotes); got != 80+30+50 {
		t.Fatalf("total budget: %v", got)
	}
	if got := ProjectBudget(quotes, "alpha"); got != 110 {
		t.Fatalf("project budget: %v", got)
	}
}

func TestIsAtRisk(t *testing.T) {
	latest := domain.NewDate(2026, 5, 10)
	cases := []struct {
		name string
		q    Quote
		want bool
	}{
		{"after latest", Quote{ExpectedDelivery: domain.NewDate(2026, 5, 11), LatestArrival: latest}, true},
		{"on latest", Quote{ExpectedDelivery: latest, LatestArrival: latest}, false},
		{"before latest", Quote{ExpectedDelivery: domain.NewDate(2026, 5, 9), LatestArrival: latest}, false},
		{"no expected date", Quote{LatestArrival: latest}, false},
		{"no latest arrival", Quote{ExpectedDelivery: domain.NewDate(2026, 5, 11)}, false},
	}
	for _, tc := range cases {
		if got := IsAtRisk(tc.q); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(Quote{UnitPrice: 19.5, Quantity: 4}); got != 78 {
		t.Fatalf("line total: %v", got)
	}
	if got := LineTotal(Quote{UnitPrice: 19.5}); got != 0 {
		t.Fatalf("zero quantity total: %v", got)
	}
}
