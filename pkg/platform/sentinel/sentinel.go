package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and channel adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrUnavailable: store or channel temporarily unavailable
// - ErrNotConfigured: adapter has no credentials and cannot be used at all
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrNotConfigured = errors.New("not configured")
)
