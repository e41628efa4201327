package blob

import (
	infraFS "quotecore/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed Store rooted at path.
func NewFilesystem(root string) (Store, error) {
	return infraFS.New(root)
}
