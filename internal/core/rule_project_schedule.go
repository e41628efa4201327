package core

import (
	"context"
	"fmt"

	"quotecore/pkg/domain"
)

// NewProjectScheduleRule blocks negative procurement buffers and warns about
// projects saved without a due date, since their quotes cannot derive a
// latest-allowable-arrival date.
func NewProjectScheduleRule() domain.Rule {
	return projectScheduleRule{}
}

type projectScheduleRule struct{}

func (projectScheduleRule) Name() string { return "project_schedule" }

func (r projectScheduleRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var res Result
	for _, change := range changes {
		if change.Entity != EntityProject || change.Action == ActionDelete {
			continue
		}
		project, ok := change.After.(Project)
		if !ok {
			continue
		}
		if project.BufferDays < 0 {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("buffer days must not be negative, got %d", project.BufferDays),
				Entity:   EntityProject,
				EntityID: project.Name,
			})
		}
		if project.DueDate.IsZero() {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityWarn,
				Message:  "project has no due date; owned quotes cannot derive a latest arrival",
				Entity:   EntityProject,
				EntityID: project.Name,
			})
		}
	}
	return res, nil
}
