package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator adapters return
// these (optionally wrapped) so the intake service can translate them into domain errors.
//
//   - ErrNotFound: an object or record does not exist in the backend
//   - ErrConflict: the backend refused a write because of a uniqueness rule
//   - ErrInFlight: a submission for the same draft is already running
//   - ErrUnavailable: the backend could not be reached or answered with a server error
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInFlight    = errors.New("submission already in flight")
	ErrUnavailable = errors.New("unavailable")
)
