package domain

import "context"

// Snapshot is the full canonical record set: every quote and every project.
// The record store contract is wholesale — Load returns everything and Save
// rewrites everything. There is no partial-write API.
type Snapshot struct {
	Quotes   []Quote   `json:"quotes"`
	Projects []Project `json:"projects"`
}

// Clone returns a deep copy safe to mutate independently.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Quotes:   make([]Quote, len(s.Quotes)),
		Projects: make([]Project, len(s.Projects)),
	}
	copy(out.Quotes, s.Quotes)
	copy(out.Projects, s.Projects)
	return out
}

// RecordStore is a minimal abstraction over the external tabular store.
// Save replaces the entire stored record set; concurrent sessions therefore
// resolve by last full write wins, which is an accepted property of the
// system rather than something drivers attempt to arbitrate.
type RecordStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Driver() string
}
