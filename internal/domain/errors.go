package domain

import "errors"

// Scan failures. The first is terminal; the rest are recorded on the node
// they concern and leave the rest of the scan alone. Cancellation is not a
// domain error and surfaces as context.Canceled.
var (
	ErrRootUnreadable  = errors.New("scan root is not readable")
	ErrEntryUnreadable = errors.New("entry is not readable")
	ErrTreeTooDeep     = errors.New("max scan depth exceeded")
	ErrCyclicLink      = errors.New("symlink cycle detected")
)
