package core

import "sort"

// sessionState holds the canonical in-memory record set for one session:
// every quote keyed by ID and every project keyed by name. It is loaded
// wholesale from the record store and written back wholesale on every save.
type sessionState struct {
	quotes   map[int]Quote
	projects map[string]Project
}

func newSessionState() sessionState {
	return sessionState{
		quotes:   make(map[int]Quote),
		projects: make(map[string]Project),
	}
}

func (s sessionState) clone() sessionState {
	cloned := newSessionState()
	for id, q := range s.quotes {
		cloned.quotes[id] = q
	}
	for name, p := range s.projects {
		cloned.projects[name] = p
	}
	return cloned
}

// nextQuoteID allocates monotonically: current max + 1, or 1 when empty.
func (s sessionState) nextQuoteID() int {
	next := 1
	for id := range s.quotes {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// quotesSorted returns all quotes ordered by ID for deterministic output.
func (s sessionState) quotesSorted() []Quote {
	out := make([]Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// projectsSorted returns all projects ordered by name.
func (s sessionState) projectsSorted() []Project {
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// snapshot exports the canonical state in persisted form.
func (s sessionState) snapshot() Snapshot {
	return Snapshot{
		Quotes:   s.quotesSorted(),
		Projects: s.projectsSorted(),
	}
}

// importSnapshot replaces the canonical state with the stored record set.
func (s *sessionState) importSnapshot(snap Snapshot) {
	fresh := newSessionState()
	for _, q := range snap.Quotes {
		fresh.quotes[q.ID] = q
	}
	for _, p := range snap.Projects {
		fresh.projects[p.Name] = p
	}
	*s = fresh
}

// stateView adapts sessionState to the read-only RuleView contract.
type stateView struct {
	state *sessionState
}

func (v stateView) ListQuotes() []Quote {
	return v.state.quotesSorted()
}

func (v stateView) ListProjects() []Project {
	return v.state.projectsSorted()
}

func (v stateView) FindQuote(id int) (Quote, bool) {
	q, ok := v.state.quotes[id]
	return q, ok
}

func (v stateView) FindProject(name string) (Project, bool) {
	p, ok := v.state.projects[name]
	return p, ok
}
