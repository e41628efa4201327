// Package blob re-exports core attachment store abstractions for stable
// imports across the internal tree.
package blob

import (
	"quotecore/internal/blob/core"
)

type (
	// Driver identifies an attachment store backend driver.
	Driver = core.Driver
	// PutOptions configures an attachment write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored attachment metadata.
	Info = core.Info
	// Store is the interface for attachment store backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported
