package services

import "context"

// Scanner produces a fresh tree per call; nothing is reused between scans.
// Implementations may also satisfy ProgressProvider for live counters.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (ScanResult, error)
}

// Actions executes destructive or platform operations on scanned paths.
type Actions interface {
	Execute(ctx context.Context, req ActionRequest) (ActionResult, error)
}
