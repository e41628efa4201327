package core

import "quotecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Status             = domain.Status
	Date               = domain.Date
	Quote              = domain.Quote
	Project            = domain.Project
	GroupKey           = domain.GroupKey
	Snapshot           = domain.Snapshot
	RecordStore        = domain.RecordStore
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityQuote   = domain.EntityQuote
	EntityProject = domain.EntityProject
)

const (
	StatusInquiry   = domain.StatusInquiry
	StatusQuoted    = domain.StatusQuoted
	StatusOrdered   = domain.StatusOrdered
	StatusReceived  = domain.StatusReceived
	StatusCancelled = domain.StatusCancelled
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine re-exports the domain constructor for callers wiring custom rules.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewQuoteBoundsRule())
	engine.Register(NewProjectScheduleRule())
	return engine
}
