package core

import (
	"context"
	"fmt"
	"strconv"

	"quotecore/pkg/domain"
)

// NewQuoteBoundsRule blocks quotes with a negative unit price or a quantity
// below one from reaching the record store.
func NewQuoteBoundsRule() domain.Rule {
	return quoteBoundsRule{}
}

type quoteBoundsRule struct{}

func (quoteBoundsRule) Name() string { return "quote_bounds" }

func (r quoteBoundsRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var res Result
	for _, change := range changes {
		if change.Entity != EntityQuote || change.Action == ActionDelete {
			continue
		}
		quote, ok := change.After.(Quote)
		if !ok {
			continue
		}
		if quote.UnitPrice < 0 {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("unit price must not be negative, got %v", quote.UnitPrice),
				Entity:   EntityQuote,
				EntityID: strconv.Itoa(quote.ID),
			})
		}
		if quote.Quantity < 1 {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("quantity must be at least 1, got %d", quote.Quantity),
				Entity:   EntityQuote,
				EntityID: strconv.Itoa(quote.ID),
			})
		}
	}
	return res, nil
}
