package core

import (
	"fmt"
	"sort"
	"strconv"

	"quotecore/pkg/domain"
)

// QuoteEdit is one staged row of a group snapshot. A nil field means the cell
// was absent or unparsable and must not be merged; a non-nil field carries the
// user's value for field-level change detection.
type QuoteEdit struct {
	ID                int
	Selected          *bool
	Supplier          *string
	UnitPrice         *float64
	Quantity          *int
	Status            *Status
	ExpectedDelivery  *Date
	MarkedForDeletion *bool
}

// RawEdit carries one grid row as raw cell text, before boundary parsing.
type RawEdit struct {
	ID                string
	Selected          string
	Supplier          string
	UnitPrice         string
	Quantity          string
	Status            string
	ExpectedDelivery  string
	MarkedForDeletion string
}

// FieldError records a single unparsable cell that was skipped.
type FieldError struct {
	ID    int
	Field string
	Value string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("quote %d field %s: unparsable value %q: %v", e.ID, e.Field, e.Value, e.Err)
}

// ParseEdit converts raw grid cells into a typed edit. Parsing happens once,
// here, at the boundary. A bad cell drops only that cell and is reported; the
// rest of the row still participates in reconciliation. A bad ID invalidates
// the whole row since the row cannot be matched to canonical state.
func ParseEdit(raw RawEdit) (QuoteEdit, []FieldError) {
	id, err := strconv.Atoi(raw.ID)
	if err != nil {
		return QuoteEdit{}, []FieldError{{Field: "id", Value: raw.ID, Err: err}}
	}

	edit := QuoteEdit{ID: id}
	var errs []FieldError

	selected := domain.ParseBool(raw.Selected)
	edit.Selected = &selected
	marked := domain.ParseBool(raw.MarkedForDeletion)
	edit.MarkedForDeletion = &marked

	supplier := raw.Supplier
	edit.Supplier = &supplier

	if price, err := strconv.ParseFloat(raw.UnitPrice, 64); err == nil {
		edit.UnitPrice = &price
	} else {
		errs = append(errs, FieldError{ID: id, Field: "unit_price", Value: raw.UnitPrice, Err: err})
	}

	if qty, err := strconv.Atoi(raw.Quantity); err == nil {
		edit.Quantity = &qty
	} else {
		errs = append(errs, FieldError{ID: id, Field: "quantity", Value: raw.Quantity, Err: err})
	}

	if status, ok := domain.ParseStatus(raw.Status); ok {
		edit.Status = &status
	} else {
		errs = append(errs, FieldError{ID: id, Field: "status", Value: raw.Status, Err: fmt.Errorf("unknown status label")})
	}

	if date, err := domain.ParseDate(raw.ExpectedDelivery); err == nil {
		edit.ExpectedDelivery = &date
	} else {
		errs = append(errs, FieldError{ID: id, Field: "expected_delivery", Value: raw.ExpectedDelivery, Err: err})
	}

	return edit, errs
}

// EditBuffer maps each group key to the last full snapshot of that group's
// rows as edited by the user. Snapshots are replaced wholesale per group and
// the buffer is cleared after a successful reconciliation or deletion commit.
type EditBuffer struct {
	groups map[GroupKey][]QuoteEdit
}

// NewEditBuffer returns an empty buffer.
func NewEditBuffer() *EditBuffer {
	return &EditBuffer{groups: make(map[GroupKey][]QuoteEdit)}
}

// Stage overwrites the snapshot for one group with the supplied row set.
func (b *EditBuffer) Stage(key GroupKey, rows []QuoteEdit) {
	snapshot := make([]QuoteEdit, len(rows))
	copy(snapshot, rows)
	b.groups[key] = snapshot
}

// Snapshot returns the staged rows for a group, or nil when none are staged.
func (b *EditBuffer) Snapshot(key GroupKey) []QuoteEdit {
	rows, ok := b.groups[key]
	if !ok {
		return nil
	}
	out := make([]QuoteEdit, len(rows))
	copy(out, rows)
	return out
}

// Keys returns staged group keys in sorted order. Groups carry no ordering
// guarantee between each other; sorting makes merge passes reproducible.
func (b *EditBuffer) Keys() []GroupKey {
	keys := make([]GroupKey, 0, len(b.groups))
	for k := range b.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Len reports the number of staged groups.
func (b *EditBuffer) Len() int {
	return len(b.groups)
}

// Clear discards every staged snapshot.
func (b *EditBuffer) Clear() {
	b.groups = make(map[GroupKey][]QuoteEdit)
}

// deletionFlag reports the staged deletion flag for a quote ID, if any group
// snapshot carries one. Staged values take precedence over canonical state.
func (b *EditBuffer) deletionFlag(id int) (bool, bool) {
	for _, key := range b.Keys() {
		for _, edit := range b.groups[key] {
			if edit.ID == id && edit.MarkedForDeletion != nil {
				return *edit.MarkedForDeletion, true
			}
		}
	}
	return false, false
}
