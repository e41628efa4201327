package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseBoolNormalization(t *testing.T) {
	cases := map[string]bool{
		"TRUE":   true,
		"true":   true,
		"True":   true,
		" true ": true,
		"FALSE":  false,
		"false":  false,
		"":       false,
		"yes":    false,
		"1":      false,
		"truthy": false,
	}
	for raw, want := range cases {
		if got := ParseBool(raw); got != want {
			t.Errorf("ParseBool(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestFormatBoolSpreadsheetConvention(t *testing.T) {
	if FormatBool(true) != "TRUE" || FormatBool(false) != "FALSE" {
		t.Fatalf("unexpected bool rendering: %q / %q", FormatBool(true), FormatBool(false))
	}
	if !ParseBool(FormatBool(true)) || ParseBool(FormatBool(false)) {
		t.Fatalf("bool rendering does not round-trip through ParseBool")
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-02-01")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if d.String() != "2024-02-01" {
		t.Fatalf("round trip mismatch: %q", d.String())
	}

	empty, err := ParseDate("")
	if err != nil {
		t.Fatalf("empty date must not error: %v", err)
	}
	if !empty.IsZero() || empty.String() != "" {
		t.Fatalf("empty date must be the zero value")
	}

	if _, err := ParseDate("02/01/2024"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestDateComparisons(t *testing.T) {
	early := NewDate(2024, time.February, 1)
	late := NewDate(2024, time.February, 5)

	if !late.After(early) {
		t.Fatalf("expected %s to be after %s", late, early)
	}
	if early.After(early) {
		t.Fatalf("equal dates must not compare After")
	}
	if (Date{}).After(early) || late.After(Date{}) {
		t.Fatalf("unset dates must never compare After")
	}
	if !early.Equal(NewDate(2024, time.February, 1)) {
		t.Fatalf("expected calendar-day equality")
	}
	if !(Date{}).Equal(Date{}) || early.Equal(Date{}) {
		t.Fatalf("unset equality semantics broken")
	}
}

func TestDateJSONEncoding(t *testing.T) {
	type wrapper struct {
		When Date `json:"when"`
	}
	raw, err := json.Marshal(wrapper{When: NewDate(2025, time.March, 9)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"when":"2025-03-09"}` {
		t.Fatalf("unexpected encoding: %s", raw)
	}
	var back wrapper
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.When.Equal(NewDate(2025, time.March, 9)) {
		t.Fatalf("decode mismatch: %s", back.When)
	}

	var unset wrapper
	if err := json.Unmarshal([]byte(`{"when":""}`), &unset); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !unset.When.IsZero() {
		t.Fatalf("empty string must decode to the zero date")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Ordered "); !ok || s != StatusOrdered {
		t.Fatalf("ParseStatus failed to normalize valid label: %v %v", s, ok)
	}
	if _, ok := ParseStatus("shipped"); ok {
		t.Fatalf("unknown label must be rejected")
	}
}

func TestTerminalStatusSet(t *testing.T) {
	if !StatusReceived.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Fatalf("received and cancelled must be terminal")
	}
	for _, s := range []Status{StatusInquiry, StatusQuoted, StatusOrdered} {
		if s.IsTerminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	stamp := time.Date(2024, time.June, 3, 14, 5, 9, 0, time.UTC)
	rendered := FormatTimestamp(stamp)
	if rendered != "2024-06-03 14:05:09" {
		t.Fatalf("unexpected timestamp rendering: %q", rendered)
	}
	back, err := ParseTimestamp(rendered)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	if !back.Equal(stamp) {
		t.Fatalf("timestamp round trip mismatch: %v", back)
	}
	if zero, err := ParseTimestamp(""); err != nil || !zero.IsZero() {
		t.Fatalf("empty timestamp must parse to zero, got %v %v", zero, err)
	}
	if FormatTimestamp(time.Time{}) != "" {
		t.Fatalf("zero timestamp must render empty")
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Quotes:   []Quote{{ID: 1, Project: "Office Upgrade", Item: "Desks"}},
		Projects: []Project{{Name: "Office Upgrade"}},
	}
	cloned := snap.Clone()
	cloned.Quotes[0].Project = "Other"
	cloned.Projects[0].Name = "Other"
	if snap.Quotes[0].Project != "Office Upgrade" || snap.Projects[0].Name != "Office Upgrade" {
		t.Fatalf("clone must not share backing arrays")
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var combined Result
	combined.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if combined.HasBlocking() {
		t.Fatalf("warn-only result must not block")
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock, Message: "bad"}}})
	if !combined.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	err := RuleViolationError{Result: combined}
	if err.Error() == "" {
		t.Fatalf("expected descriptive error")
	}
}
