package core

import "sort"

// DeletionPhase names a state of the two-phase deletion protocol.
type DeletionPhase string

// Protocol states. Confirming freezes the pending ID set; later edits to
// deletion flags do not affect an armed protocol.
const (
	PhaseIdle       DeletionPhase = "idle"
	PhaseConfirming DeletionPhase = "confirming"
)

// DeletionCoordinator implements the mark → confirm → execute protocol that
// guards against one-click irreversible loss. It only tracks protocol state;
// executing the removal is the service's job, so the coordinator stays free
// of store dependencies.
type DeletionCoordinator struct {
	phase   DeletionPhase
	pending []int
}

// NewDeletionCoordinator starts in Idle with nothing pending.
func NewDeletionCoordinator() *DeletionCoordinator {
	return &DeletionCoordinator{phase: PhaseIdle}
}

// Phase returns the current protocol state.
func (c *DeletionCoordinator) Phase() DeletionPhase {
	if c.phase == "" {
		return PhaseIdle
	}
	return c.phase
}

// Pending returns the frozen candidate ID set, sorted.
func (c *DeletionCoordinator) Pending() []int {
	out := make([]int, len(c.pending))
	copy(out, c.pending)
	return out
}

// Trigger scans canonical state plus the edit buffer for quotes flagged for
// deletion, with staged flags taking precedence over stored ones. With no
// flagged rows the coordinator stays Idle and reports false ("nothing
// marked"). Otherwise the ID set is captured, frozen, and the protocol moves
// to Confirming.
func (c *DeletionCoordinator) Trigger(state *sessionState, buffer *EditBuffer) (int, bool) {
	if c.Phase() != PhaseIdle {
		return len(c.pending), false
	}
	var ids []int
	for id, q := range state.quotes {
		marked := q.MarkedForDeletion
		if staged, ok := buffer.deletionFlag(id); ok {
			marked = staged
		}
		if marked {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Ints(ids)
	c.pending = ids
	c.phase = PhaseConfirming
	return len(ids), true
}

// Cancel discards the pending set and returns to Idle. Canonical state is
// untouched.
func (c *DeletionCoordinator) Cancel() {
	c.pending = nil
	c.phase = PhaseIdle
}

// take consumes the pending set for execution and resets the protocol.
func (c *DeletionCoordinator) take() []int {
	ids := c.pending
	c.pending = nil
	c.phase = PhaseIdle
	return ids
}
