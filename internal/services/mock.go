package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chan4lk/spacemap/internal/domain"
)

type MockScanner struct{}

func NewMockScanner() *MockScanner {
	return &MockScanner{}
}

func (scanner *MockScanner) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return ScanResult{}, ctx.Err()
	case <-time.After(350 * time.Millisecond):
	}

	root := cleanPath(req.RootPath)
	now := time.Now()
	tree := &domain.Node{
		Path: root, Name: filepath.Base(root), Kind: domain.KindDir, ModTime: now,
		Children: []*domain.Node{
			{Path: filepath.Join(root, "alpha.bin"), Name: "alpha.bin", Kind: domain.KindFile, Size: 300, ModTime: now},
			{Path: filepath.Join(root, "beta.bin"), Name: "beta.bin", Kind: domain.KindFile, Size: 100, ModTime: now},
		},
	}
	domain.Aggregate(tree)

	return ScanResult{
		Root:     tree,
		RootPath: root,
		Duration: time.Since(start),
		Entries:  2,
		Bytes:    tree.Total,
	}, nil
}

type MockActions struct{}

func NewMockActions() *MockActions {
	return &MockActions{}
}

func (actions *MockActions) Execute(ctx context.Context, req ActionRequest) (ActionResult, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return ActionResult{}, ctx.Err()
	case <-time.After(450 * time.Millisecond):
	}

	count := len(req.TargetPaths)
	if count == 0 {
		count = 1
	}

	return ActionResult{
		Type:         req.Type,
		SuccessCount: count,
		FailureCount: 0,
		Duration:     time.Since(start),
		Message:      fmt.Sprintf("%s completed", req.Type),
		Succeeded:    append([]string(nil), req.TargetPaths...),
	}, nil
}
