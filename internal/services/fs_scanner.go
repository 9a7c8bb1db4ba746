package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chan4lk/spacemap/internal/domain"
)

const progressInterval = 100 * time.Millisecond

// FSScanner walks a directory tree depth first and aggregates sizes bottom
// up. Every Scan builds a fresh snapshot; starting a new scan cancels the one
// still in flight.
type FSScanner struct {
	mu         sync.RWMutex
	progress   chan ScanProgress
	cancelPrev context.CancelFunc
	interval   time.Duration
	log        *zap.Logger
}

type scanCounters struct {
	entries atomic.Uint64
	bytes   atomic.Uint64
	errs    atomic.Int64
	current atomic.Value
}

func (counters *scanCounters) currentPath() string {
	if path, ok := counters.current.Load().(string); ok {
		return path
	}
	return ""
}

func NewFSScanner(log *zap.Logger) *FSScanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &FSScanner{
		interval: progressInterval,
		log:      log,
	}
}

func (scanner *FSScanner) Progress() <-chan ScanProgress {
	scanner.mu.RLock()
	defer scanner.mu.RUnlock()
	return scanner.progress
}

func (scanner *FSScanner) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	start := time.Now()
	root := cleanPath(req.RootPath)

	ctx, cancel := scanner.begin(ctx)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	info, err := os.Stat(root)
	if err != nil {
		scanner.log.Error("scan root unreadable", zap.String("path", root), zap.Error(err))
		return ScanResult{}, fmt.Errorf("%w: %v", domain.ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return ScanResult{}, fmt.Errorf("%w: %s is not a directory", domain.ErrRootUnreadable, root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		scanner.log.Error("scan root unreadable", zap.String("path", root), zap.Error(err))
		return ScanResult{}, fmt.Errorf("%w: %v", domain.ErrRootUnreadable, err)
	}

	progress := make(chan ScanProgress, 64)
	scanner.setProgress(progress)
	defer close(progress)

	counters := &scanCounters{}
	counters.current.Store(root)
	stopEmit := scanner.startEmitter(progress, counters)

	rootNode := &domain.Node{
		Path:    root,
		Name:    filepath.Base(root),
		Kind:    domain.KindDir,
		ModTime: info.ModTime(),
	}
	if rootNode.Name == "." || rootNode.Name == string(filepath.Separator) {
		rootNode.Name = root
	}

	rootReal := root
	if resolved, resolveErr := filepath.EvalSymlinks(root); resolveErr == nil {
		rootReal = resolved
	}

	total, err := scanner.scanEntries(ctx, rootNode, entries, 1, []string{rootReal}, req, counters)
	stopEmit()
	if err != nil {
		scanner.log.Info("scan canceled", zap.String("path", root), zap.Duration("elapsed", time.Since(start)))
		return ScanResult{}, err
	}
	rootNode.Total = total

	result := ScanResult{
		Root:     rootNode,
		RootPath: root,
		Duration: time.Since(start),
		Entries:  counters.entries.Load(),
		Bytes:    counters.bytes.Load(),
		Errors:   int(counters.errs.Load()),
	}
	progressNonBlocking(progress, ScanProgress{
		Entries:   result.Entries,
		Bytes:     result.Bytes,
		Current:   root,
		Completed: true,
	})
	scanner.log.Info("scan complete",
		zap.String("path", root),
		zap.Uint64("entries", result.Entries),
		zap.Uint64("bytes", result.Bytes),
		zap.Int("errors", result.Errors),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// scanEntries fills parent with one node per entry and returns the subtree
// total. Only cancellation aborts; unreadable entries become tagged zero-size
// nodes and their siblings still get scanned.
func (scanner *FSScanner) scanEntries(ctx context.Context, parent *domain.Node, entries []os.DirEntry, depth int, visited []string, req ScanRequest, counters *scanCounters) (uint64, error) {
	var total uint64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		name := entry.Name()
		if !req.IncludeHidden && isHidden(name) {
			continue
		}
		path := filepath.Join(parent.Path, name)

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // vanished between listing and stat
			}
			parent.Children = append(parent.Children, scanner.unreadableLeaf(path, name, err))
			counters.entries.Add(1)
			continue
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			child, err := scanner.scanLink(ctx, path, name, info, depth, visited, req, counters)
			if err != nil {
				return 0, err
			}
			parent.Children = append(parent.Children, child)
			total += child.Total

		case info.IsDir():
			child := &domain.Node{Path: path, Name: name, Kind: domain.KindDir, ModTime: info.ModTime()}
			counters.entries.Add(1)
			if req.MaxDepth > 0 && depth >= req.MaxDepth {
				child.Err = domain.ErrTreeTooDeep
				parent.Children = append(parent.Children, child)
				continue
			}
			sub, err := os.ReadDir(path)
			if err != nil {
				scanner.log.Warn("directory not readable", zap.String("path", path), zap.Error(err))
				child.Err = fmt.Errorf("%w: %v", domain.ErrEntryUnreadable, err)
				counters.errs.Add(1)
				parent.Children = append(parent.Children, child)
				continue
			}
			counters.current.Store(path)
			childReal := filepath.Join(realParent(visited), name)
			subTotal, err := scanner.scanEntries(ctx, child, sub, depth+1, append(visited, childReal), req, counters)
			if err != nil {
				return 0, err
			}
			child.Total = subTotal
			parent.Children = append(parent.Children, child)
			total += subTotal

		default:
			size := sizeOf(info)
			parent.Children = append(parent.Children, &domain.Node{
				Path:    path,
				Name:    name,
				Kind:    domain.KindFile,
				Size:    size,
				Total:   size,
				ModTime: info.ModTime(),
			})
			counters.entries.Add(1)
			counters.bytes.Add(size)
			total += size
		}
	}
	return total, nil
}

// scanLink resolves a symlink entry. Unfollowed links and links back into an
// ancestor stay zero-size leaves so a cycle can never recurse.
func (scanner *FSScanner) scanLink(ctx context.Context, path, name string, info os.FileInfo, depth int, visited []string, req ScanRequest, counters *scanCounters) (*domain.Node, error) {
	node := &domain.Node{Path: path, Name: name, Kind: domain.KindFile, ModTime: info.ModTime()}
	counters.entries.Add(1)
	if !req.FollowSymlinks {
		return node, nil
	}

	target, err := os.Stat(path)
	if err != nil {
		node.Err = fmt.Errorf("%w: %v", domain.ErrEntryUnreadable, err)
		counters.errs.Add(1)
		return node, nil
	}
	if !target.IsDir() {
		size := sizeOf(target)
		node.Size = size
		node.Total = size
		node.ModTime = target.ModTime()
		counters.bytes.Add(size)
		return node, nil
	}

	node.Kind = domain.KindDir
	node.ModTime = target.ModTime()
	if req.MaxDepth > 0 && depth >= req.MaxDepth {
		node.Err = domain.ErrTreeTooDeep
		return node, nil
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		node.Err = fmt.Errorf("%w: %v", domain.ErrEntryUnreadable, err)
		counters.errs.Add(1)
		return node, nil
	}
	for _, ancestor := range visited {
		if real == ancestor {
			scanner.log.Warn("symlink cycle", zap.String("path", path), zap.String("target", real))
			node.Err = domain.ErrCyclicLink
			counters.errs.Add(1)
			return node, nil
		}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		node.Err = fmt.Errorf("%w: %v", domain.ErrEntryUnreadable, err)
		counters.errs.Add(1)
		return node, nil
	}
	counters.current.Store(path)
	total, err := scanner.scanEntries(ctx, node, entries, depth+1, append(visited, real), req, counters)
	if err != nil {
		return nil, err
	}
	node.Total = total
	return node, nil
}

func (scanner *FSScanner) unreadableLeaf(path, name string, err error) *domain.Node {
	scanner.log.Warn("entry not readable", zap.String("path", path), zap.Error(err))
	return &domain.Node{
		Path: path,
		Name: name,
		Kind: domain.KindFile,
		Err:  fmt.Errorf("%w: %v", domain.ErrEntryUnreadable, err),
	}
}

// begin replaces any scan already in flight on this scanner.
func (scanner *FSScanner) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	scanner.mu.Lock()
	if scanner.cancelPrev != nil {
		scanner.cancelPrev()
	}
	scanner.cancelPrev = cancel
	scanner.mu.Unlock()
	return ctx, cancel
}

func (scanner *FSScanner) setProgress(progress chan ScanProgress) {
	scanner.mu.Lock()
	defer scanner.mu.Unlock()
	scanner.progress = progress
}

// startEmitter samples the counters on a ticker so a slow consumer can never
// stall the walk. The returned stop waits for the goroutine to finish before
// the channel is closed.
func (scanner *FSScanner) startEmitter(progress chan<- ScanProgress, counters *scanCounters) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(scanner.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				progressNonBlocking(progress, ScanProgress{
					Entries: counters.entries.Load(),
					Bytes:   counters.bytes.Load(),
					Current: counters.currentPath(),
				})
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func progressNonBlocking(ch chan<- ScanProgress, msg ScanProgress) {
	select {
	case ch <- msg:
	default:
	}
}

func sizeOf(info os.FileInfo) uint64 {
	if size := info.Size(); size > 0 {
		return uint64(size)
	}
	return 0
}

func realParent(visited []string) string {
	if len(visited) == 0 {
		return ""
	}
	return visited[len(visited)-1]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}
