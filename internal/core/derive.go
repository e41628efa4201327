package core

// Derivation functions are pure: identical inputs yield identical outputs,
// and re-running them on unchanged state is a no-op.

// DeriveLatestArrival recomputes every quote's latest-allowable-arrival date
// from its owning project's due date and buffer days. Quotes whose project is
// unknown get the field unset rather than a guessed value. The input slice is
// not mutated.
func DeriveLatestArrival(quotes []Quote, projects map[string]Project) []Quote {
	out := make([]Quote, len(quotes))
	copy(out, quotes)
	for i := range out {
		project, ok := projects[out[i].Project]
		if !ok || project.DueDate.IsZero() {
			out[i].LatestArrival = Date{}
			continue
		}
		out[i].LatestArrival = project.DueDate.AddDays(-project.BufferDays)
	}
	return out
}

// LineTotal computes the authoritative line total for a quote.
func LineTotal(q Quote) float64 {
	return q.UnitPrice * float64(q.Quantity)
}

// BudgetForGroup computes the contributing budget of one (project, item)
// group. When any row is selected the budget is the sum of selected totals;
// otherwise it is the minimum total, the provisional best estimate while no
// supplier has been chosen. An empty group contributes 0.
func BudgetForGroup(rows []Quote) float64 {
	if len(rows) == 0 {
		return 0
	}
	var selectedSum float64
	anySelected := false
	min := rows[0].Total
	for _, q := range rows {
		if q.Selected {
			anySelected = true
			selectedSum += q.Total
		}
		if q.Total < min {
			min = q.Total
		}
	}
	if anySelected {
		return selectedSum
	}
	return min
}

// GroupQuotes partitions quotes into their (project, item) groups.
func GroupQuotes(quotes []Quote) map[GroupKey][]Quote {
	groups := make(map[GroupKey][]Quote)
	for _, q := range quotes {
		key := q.Group()
		groups[key] = append(groups[key], q)
	}
	return groups
}

// TotalBudget sums BudgetForGroup across every group of the given quotes.
func TotalBudget(quotes []Quote) float64 {
	var total float64
	for _, rows := range GroupQuotes(quotes) {
		total += BudgetForGroup(rows)
	}
	return total
}

// ProjectBudget sums group budgets for a single project's quotes.
func ProjectBudget(quotes []Quote, project string) float64 {
	var owned []Quote
	for _, q := range quotes {
		if q.Project == project {
			owned = append(owned, q)
		}
	}
	return TotalBudget(owned)
}

// IsAtRisk reports whether a quote's expected delivery lands after its
// latest-allowable-arrival date. Missing or unset dates are never flagged.
func IsAtRisk(q Quote) bool {
	return q.ExpectedDelivery.After(q.LatestArrival)
}
