package core

import "time"

// DashboardSummary is the read-only rollup presented on the overview screen.
type DashboardSummary struct {
	Projects    int       `json:"projects"`
	TotalBudget float64   `json:"total_budget"`
	AtRisk      int       `json:"at_risk"`
	Pending     int       `json:"pending"`
	ComputedAt  time.Time `json:"computed_at"`
}

// summarize recomputes the rollup from canonical state: project count, total
// budget across all (project, item) groups, quotes past their latest
// allowable arrival, and quotes whose status is not in the terminal set.
func summarize(state *sessionState, now time.Time) DashboardSummary {
	quotes := state.quotesSorted()
	summary := DashboardSummary{
		Projects:    len(state.projects),
		TotalBudget: TotalBudget(quotes),
		ComputedAt:  now,
	}
	for _, q := range quotes {
		if IsAtRisk(q) {
			summary.AtRisk++
		}
		if !q.Status.IsTerminal() {
			summary.Pending++
		}
	}
	return summary
}
