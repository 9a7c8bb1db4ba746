package services

import (
	"time"

	"github.com/chan4lk/spacemap/internal/domain"
)

// ScanResult is the terminal outcome of a completed scan. Root is nil when
// the scan failed or was canceled.
type ScanResult struct {
	Root     *domain.Node
	RootPath string
	Duration time.Duration
	Entries  uint64
	Bytes    uint64
	Errors   int
}

type ActionResult struct {
	Type         ActionType
	SuccessCount int
	FailureCount int
	Duration     time.Duration
	Message      string
	Succeeded    []string
	Errors       []string
}
