package services

import "context"

// ScanProgress is a sampled snapshot of a running scan. Entries and Bytes
// only ever grow within one scan.
type ScanProgress struct {
	Entries   uint64
	Bytes     uint64
	Current   string
	Completed bool
}

type ActionPreview struct {
	Type       ActionType
	Targets    []string
	TotalFiles int
	TotalDirs  int
	TotalBytes uint64
	Warnings   []string
}

type ActionProgress struct {
	Type       ActionType
	Current    string
	Processed  int
	Completed  bool
	ErrMessage string
}

type ProgressProvider interface {
	Progress() <-chan ScanProgress
}

type ActionPreviewer interface {
	Preview(ctx context.Context, req ActionRequest) (ActionPreview, error)
}

type ActionProgressProvider interface {
	ActionProgress() <-chan ActionProgress
}
