package blob

import (
	infraMemory "quotecore/internal/infra/blob/memory"
)

// NewMemory constructs an in-memory Store, primarily for tests.
func NewMemory() Store {
	return infraMemory.New()
}
