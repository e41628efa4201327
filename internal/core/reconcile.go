package core

import "time"

// reconcileResult summarizes one merge pass of the edit buffer into canonical
// state.
type reconcileResult struct {
	dirty   []int    // IDs whose stored representation changed
	skipped []int    // staged IDs with no canonical counterpart (raced deletion)
	changes []Change // field-level mutations, for rule evaluation and logging
}

// reconcile merges every staged group snapshot into canonical state.
//
// Groups are processed in sorted key order; if the same quote ID appears in
// more than one snapshot the last group processed wins. Per row: locate the
// canonical quote by ID (skip silently when absent), apply value-equality
// change detection per editable field, then unconditionally recompute the
// line total — even when price and quantity were untouched this cycle, so a
// stale total from any earlier inconsistency is repaired. Dirty rows get a
// fresh last-modified stamp. Canonical state is mutated in place; persistence
// is the caller's decision based on the dirty count.
func reconcile(state *sessionState, buffer *EditBuffer, now time.Time) reconcileResult {
	var res reconcileResult
	dirtySet := make(map[int]struct{})

	for _, key := range buffer.Keys() {
		for _, edit := range buffer.Snapshot(key) {
			current, ok := state.quotes[edit.ID]
			if !ok {
				res.skipped = append(res.skipped, edit.ID)
				continue
			}
			before := current
			changed := applyEdit(&current, edit)

			if total := LineTotal(current); total != current.Total {
				current.Total = total
				changed = true
			}

			if changed {
				current.UpdatedAt = now
				state.quotes[current.ID] = current
				if _, seen := dirtySet[current.ID]; !seen {
					dirtySet[current.ID] = struct{}{}
					res.dirty = append(res.dirty, current.ID)
				}
				res.changes = append(res.changes, Change{
					Entity: EntityQuote,
					Action: ActionUpdate,
					Before: before,
					After:  current,
				})
			}
		}
	}
	return res
}

// applyEdit copies every present, differing field of the edit onto the quote
// and reports whether anything changed. Comparison is by value, never by
// identity; writing an identical value does not dirty the row.
func applyEdit(q *Quote, edit QuoteEdit) bool {
	changed := false
	if edit.Selected != nil && *edit.Selected != q.Selected {
		q.Selected = *edit.Selected
		changed = true
	}
	if edit.Supplier != nil && *edit.Supplier != q.Supplier {
		q.Supplier = *edit.Supplier
		changed = true
	}
	if edit.UnitPrice != nil && *edit.UnitPrice != q.UnitPrice {
		q.UnitPrice = *edit.UnitPrice
		changed = true
	}
	if edit.Quantity != nil && *edit.Quantity != q.Quantity {
		q.Quantity = *edit.Quantity
		changed = true
	}
	if edit.Status != nil && *edit.Status != q.Status {
		q.Status = *edit.Status
		changed = true
	}
	if edit.ExpectedDelivery != nil && !edit.ExpectedDelivery.Equal(q.ExpectedDelivery) {
		q.ExpectedDelivery = *edit.ExpectedDelivery
		changed = true
	}
	if edit.MarkedForDeletion != nil && *edit.MarkedForDeletion != q.MarkedForDeletion {
		q.MarkedForDeletion = *edit.MarkedForDeletion
		changed = true
	}
	return changed
}
