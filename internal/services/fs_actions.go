package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FSActions deletes scanned paths and reveals them in the platform file
// manager. Outcomes are reported per target so the caller can drop exactly
// the removed nodes from its snapshot.
type FSActions struct {
	mu       sync.RWMutex
	progress chan ActionProgress
	log      *zap.Logger
}

func NewFSActions(log *zap.Logger) *FSActions {
	if log == nil {
		log = zap.NewNop()
	}
	return &FSActions{log: log}
}

func (actions *FSActions) ActionProgress() <-chan ActionProgress {
	actions.mu.RLock()
	defer actions.mu.RUnlock()
	return actions.progress
}

func (actions *FSActions) Preview(ctx context.Context, req ActionRequest) (ActionPreview, error) {
	paths, err := normalizePaths(req.TargetPaths)
	if err != nil {
		return ActionPreview{}, err
	}
	if err := validateRequest(req, paths); err != nil {
		return ActionPreview{}, err
	}

	preview := ActionPreview{
		Type:    req.Type,
		Targets: paths,
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return ActionPreview{}, ctx.Err()
		default:
		}
		info, err := os.Lstat(path)
		if err != nil {
			preview.Warnings = append(preview.Warnings, err.Error())
			continue
		}
		if !info.IsDir() {
			preview.TotalFiles++
			preview.TotalBytes += sizeOf(info)
			continue
		}
		preview.TotalDirs++
		walkErr := filepath.WalkDir(path, func(child string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				preview.Warnings = append(preview.Warnings, walkErr.Error())
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() {
				if child != path {
					preview.TotalDirs++
				}
				return nil
			}
			preview.TotalFiles++
			if fileInfo, err := entry.Info(); err == nil {
				preview.TotalBytes += sizeOf(fileInfo)
			}
			return nil
		})
		if walkErr != nil {
			return ActionPreview{}, walkErr
		}
	}

	return preview, nil
}

func (actions *FSActions) Execute(ctx context.Context, req ActionRequest) (ActionResult, error) {
	start := time.Now()
	paths, err := normalizePaths(req.TargetPaths)
	if err != nil {
		return ActionResult{Type: req.Type}, err
	}
	if err := validateRequest(req, paths); err != nil {
		return ActionResult{Type: req.Type}, err
	}
	if err := requireConfirmation(req, paths); err != nil {
		return ActionResult{Type: req.Type}, err
	}

	progress := make(chan ActionProgress, 64)
	actions.setProgress(progress)
	defer close(progress)

	var result ActionResult
	switch req.Type {
	case ActionDelete:
		result = actions.deletePaths(ctx, progress, paths)
	case ActionReveal:
		result = actions.revealPaths(ctx, paths)
	default:
		return ActionResult{Type: req.Type}, fmt.Errorf("unsupported action: %s", req.Type)
	}

	result.Duration = time.Since(start)
	actionProgressNonBlocking(progress, ActionProgress{Type: req.Type, Completed: true, Processed: result.SuccessCount + result.FailureCount})
	actions.log.Info("action finished",
		zap.String("type", string(req.Type)),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

func (actions *FSActions) setProgress(progress chan ActionProgress) {
	actions.mu.Lock()
	defer actions.mu.Unlock()
	actions.progress = progress
}

func (actions *FSActions) deletePaths(ctx context.Context, progress chan<- ActionProgress, paths []string) ActionResult {
	result := ActionResult{Type: ActionDelete}
	processed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			result.Message = "delete canceled"
			return result
		}
		info, err := os.Lstat(path)
		if err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		var deleteErr error
		if info.IsDir() {
			deleteErr = actions.deleteTree(ctx, progress, path, &processed)
		} else {
			deleteErr = os.Remove(path)
			processed++
		}
		if deleteErr != nil {
			actions.log.Warn("delete failed", zap.String("path", path), zap.Error(deleteErr))
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, deleteErr))
			actionProgressNonBlocking(progress, ActionProgress{Type: ActionDelete, Current: path, Processed: processed, ErrMessage: deleteErr.Error()})
			continue
		}
		result.SuccessCount++
		result.Succeeded = append(result.Succeeded, path)
		actionProgressNonBlocking(progress, ActionProgress{Type: ActionDelete, Current: path, Processed: processed})
	}
	result.Message = "delete complete"
	return result
}

// deleteTree removes files first, then directories deepest first. The target
// counts as failed unless everything under it went away.
func (actions *FSActions) deleteTree(ctx context.Context, progress chan<- ActionProgress, root string, processed *int) error {
	var dirs []string
	var firstErr error
	walkErr := filepath.WalkDir(root, func(child string, entry fs.DirEntry, err error) error {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			dirs = append(dirs, child)
			return nil
		}
		if err := os.Remove(child); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		*processed++
		actionProgressNonBlocking(progress, ActionProgress{Type: ActionDelete, Current: child, Processed: *processed})
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	for index := len(dirs) - 1; index >= 0; index-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.Remove(dirs[index]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*processed++
		actionProgressNonBlocking(progress, ActionProgress{Type: ActionDelete, Current: dirs[index], Processed: *processed})
	}
	return firstErr
}

func (actions *FSActions) revealPaths(ctx context.Context, paths []string) ActionResult {
	result := ActionResult{Type: ActionReveal}
	for _, path := range paths {
		if ctx.Err() != nil {
			result.Message = "reveal canceled"
			return result
		}
		if err := revealInFileManager(ctx, path); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		result.SuccessCount++
		result.Succeeded = append(result.Succeeded, path)
	}
	result.Message = "revealed in file manager"
	return result
}

func revealInFileManager(ctx context.Context, path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", "-R", path).Run()
	case "windows":
		return exec.CommandContext(ctx, "explorer", "/select,"+path).Run()
	default:
		return exec.CommandContext(ctx, "xdg-open", filepath.Dir(path)).Run()
	}
}

func validateRequest(req ActionRequest, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no targets provided")
	}
	if req.SafeMode && req.Type == ActionDelete {
		for _, path := range paths {
			if isCriticalPath(path) {
				return fmt.Errorf("blocked critical path: %s", path)
			}
		}
	}
	return nil
}

func requireConfirmation(req ActionRequest, paths []string) error {
	if req.Type != ActionDelete {
		return nil
	}
	needsRecursive := false
	for _, path := range paths {
		info, err := os.Lstat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		entries, err := os.ReadDir(path)
		if err == nil && len(entries) > 0 {
			needsRecursive = true
			break
		}
	}
	if needsRecursive {
		if req.ConfirmToken != "confirm-recursive" {
			return fmt.Errorf("recursive delete requires confirmation")
		}
		return nil
	}
	if req.ConfirmToken != "confirm" && req.ConfirmToken != "confirm-recursive" {
		return fmt.Errorf("delete confirmation required")
	}
	return nil
}

func normalizePaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		clean := filepath.Clean(abs)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		result = append(result, clean)
	}
	return result, nil
}

func isCriticalPath(path string) bool {
	path = filepath.Clean(path)
	critical := []string{"/", "/etc", "/usr", "/var"}
	if home, err := os.UserHomeDir(); err == nil {
		critical = append(critical, home)
	}
	for _, root := range critical {
		if path == filepath.Clean(root) {
			return true
		}
	}
	return false
}

func actionProgressNonBlocking(ch chan<- ActionProgress, msg ActionProgress) {
	select {
	case ch <- msg:
	default:
	}
}
