package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and lock managers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: row/line does not exist in the store
// - ErrConflict: write lost to a concurrent writer or uniqueness clash
// - ErrLocked: address or session is exclusively held by another operator
// - ErrUnavailable: store or sink temporarily unreachable
//
// For operator input problems use pkg/derrors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrLocked      = errors.New("locked")
	ErrUnavailable = errors.New("unavailable")
)
