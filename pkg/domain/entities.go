// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by quotecore.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityQuote identifies a procurement quote record.
	EntityQuote EntityType = "quote"
	// EntityProject identifies a project metadata record.
	EntityProject EntityType = "project"
)

// Status represents the canonical quote lifecycle labels in their fixed order.
type Status string

// Canonical quote statuses. The order below is the display/lifecycle order.
const (
	StatusInquiry   Status = "inquiry"
	StatusQuoted    Status = "quoted"
	StatusOrdered   Status = "ordered"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusInquiry, StatusQuoted, StatusOrdered, StatusReceived, StatusCancelled}
}

// TerminalStatuses is the named set of statuses that no longer count as
// pending work. Kept as configuration rather than inline comparisons.
var TerminalStatuses = map[Status]struct{}{
	StatusReceived:  {},
	StatusCancelled: {},
}

// ParseStatus validates a raw label against the canonical status set.
func ParseStatus(raw string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Statuses() {
		if candidate == s {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status is in the terminal set.
func (s Status) IsTerminal() bool {
	_, ok := TerminalStatuses[s]
	return ok
}

// Persisted textual layouts for the record store representation.
const (
	// DateLayout is the persisted day-granularity format.
	DateLayout = "2006-01-02"
	// TimestampLayout is the persisted last-modified format.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Date is a day-granularity value whose zero value means "unset". It is
// persisted as YYYY-MM-DD and an empty cell round-trips to the zero value.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses a persisted date cell. Empty input yields the zero Date
// without error; anything else must match DateLayout.
func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return Date{Time: t}, nil
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	if d.IsZero() {
		return Date{}
	}
	return Date{Time: d.Time.AddDate(0, 0, days)}
}

// After reports whether d is strictly later than other. Unset dates never
// compare later than anything.
func (d Date) After(other Date) bool {
	if d.IsZero() || other.IsZero() {
		return false
	}
	return d.Time.After(other.Time)
}

// Equal reports calendar-day equality, treating unset as equal to unset only.
func (d Date) Equal(other Date) bool {
	if d.IsZero() || other.IsZero() {
		return d.IsZero() == other.IsZero()
	}
	return d.Time.Equal(other.Time)
}

// String renders the persisted form, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalJSON encodes the persisted form; unset encodes as "".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the persisted form or "".
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseBool normalizes a boolean cell read from the record store or a grid.
// Only a case-insensitive "true" maps to true; every other value, including
// junk, is false. Raw strings must never be compared for truthiness elsewhere.
func ParseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// FormatBool renders a boolean in the spreadsheet convention.
func FormatBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// FormatTimestamp renders a last-modified stamp, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a persisted last-modified cell; empty yields zero.
func ParseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimestampLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// Quote is a single supplier price line for one project/item.
//
// Total and LatestArrival are derived fields: Total is always
// UnitPrice*Quantity and LatestArrival is the owning project's due date minus
// its buffer days. Neither is independently authored.
type Quote struct {
	ID                int       `json:"id"`
	Selected          bool      `json:"selected"`
	Project           string    `json:"project"`
	Item              string    `json:"item"`
	Supplier          string    `json:"supplier"`
	UnitPrice         float64   `json:"unit_price"`
	Quantity          int       `json:"quantity"`
	Total             float64   `json:"total"`
	ExpectedDelivery  Date      `json:"expected_delivery"`
	Status            Status    `json:"status"`
	LatestArrival     Date      `json:"latest_arrival"`
	UpdatedAt         time.Time `json:"updated_at"`
	Attachment        string    `json:"attachment,omitempty"`
	MarkedForDeletion bool      `json:"marked_for_deletion"`
}

// Group returns the (project, item) grouping key the quote belongs to.
func (q Quote) Group() GroupKey {
	return GroupKey{Project: q.Project, Item: q.Item}
}

// Project holds scheduling metadata keyed by project name. The name is the
// identity; renaming therefore requires a bulk rewrite across owned quotes.
type Project struct {
	Name       string    `json:"name"`
	DueDate    Date      `json:"due_date"`
	BufferDays int       `json:"buffer_days"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GroupKey identifies one project/item grouping of quotes.
type GroupKey struct {
	Project string `json:"project"`
	Item    string `json:"item"`
}

// Less orders group keys by project then item, for deterministic iteration.
func (k GroupKey) Less(other GroupKey) bool {
	if k.Project != other.Project {
		return k.Project < other.Project
	}
	return k.Item < other.Item
}

func (k GroupKey) String() string {
	return k.Project + "/" + k.Item
}

// Action enumerates mutation kinds captured in Change records.
type Action string

// Mutation kinds recorded per transaction.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change captures one mutation applied to canonical state, for rule
// evaluation and audit logging.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks persistence of the pending state.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows persistence.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation describes a single rule failure.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates rule evaluation output.
type Result struct {
	Violations []Violation
}

// Merge folds another result into the receiver.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations prevent a commit.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("rule %s blocked commit: %s", v.Rule, v.Message)
		}
	}
	return "rule violation blocked commit"
}
