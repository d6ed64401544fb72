// Package blob opens the object store that archives generation reports.
// It is the only package allowed to import the infra backends.
package blob

import (
	"kineticcore/internal/blob/core"
)

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

// DefaultURLExpiry is the lifetime of presigned links without an explicit expiry.
const DefaultURLExpiry = core.DefaultURLExpiry

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrExists      = core.ErrExists
	ErrNotFound    = core.ErrNotFound
)
