package report

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

const DefaultProgressInterval = 500 * time.Millisecond

// Options configures a quick report walk. The walk is flat and parallel; it
// never follows symlinks and keeps no tree, which makes it much cheaper than
// a full scan on large volumes.
type Options struct {
	Path             string
	TopN             int
	MinSize          uint64
	IncludeHidden    bool
	MaxDepth         int
	// Extensions restricts counting to the listed suffixes (".mp4"); empty
	// counts everything. Entries are matched case-insensitively and a missing
	// leading dot is tolerated.
	Extensions       []string
	ProgressInterval time.Duration
}

// ExtStat aggregates the files sharing one extension.
type ExtStat struct {
	Ext   string `json:"ext"`
	Count int64  `json:"count"`
	Bytes uint64 `json:"bytes"`
}

// FileStat is one entry in the largest-files list.
type FileStat struct {
	Path  string `json:"path"`
	Bytes uint64 `json:"bytes"`
}

// Stats is the outcome of one report walk.
type Stats struct {
	Path       string        `json:"path"`
	Files      int64         `json:"files"`
	Dirs       int64         `json:"dirs"`
	TotalBytes uint64        `json:"total_bytes"`
	TopFiles   []FileStat    `json:"top_files"`
	Extensions []ExtStat     `json:"extensions"`
	Errors     int64         `json:"errors"`
	Elapsed    time.Duration `json:"elapsed"`
}

// collector aggregates walk results under a mutex since fastwalk invokes the
// callback from many goroutines at once.
type collector struct {
	mu         sync.Mutex
	files      int64
	dirs       int64
	totalBytes uint64
	errors     int64
	extStats   map[string]ExtStat
	topFiles   []FileStat
}

func newCollector() *collector {
	return &collector{extStats: make(map[string]ExtStat)}
}

func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

func (c *collector) addDir() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirs++
}

func (c *collector) addFile(path string, size uint64) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = "(none)"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files++
	c.totalBytes += size
	stat := c.extStats[ext]
	stat.Ext = ext
	stat.Count++
	stat.Bytes += size
	c.extStats[ext] = stat
	c.topFiles = append(c.topFiles, FileStat{Path: path, Bytes: size})
}

func (c *collector) counters() (int64, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files, c.totalBytes
}

// finalize sorts largest first and trims both lists to topN.
func (c *collector) finalize(topN int) *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.Slice(c.topFiles, func(i, j int) bool {
		if c.topFiles[i].Bytes != c.topFiles[j].Bytes {
			return c.topFiles[i].Bytes > c.topFiles[j].Bytes
		}
		return c.topFiles[i].Path < c.topFiles[j].Path
	})
	topFiles := c.topFiles
	if len(topFiles) > topN {
		topFiles = topFiles[:topN]
	}

	extensions := make([]ExtStat, 0, len(c.extStats))
	for _, stat := range c.extStats {
		extensions = append(extensions, stat)
	}
	sort.Slice(extensions, func(i, j int) bool {
		if extensions[i].Bytes != extensions[j].Bytes {
			return extensions[i].Bytes > extensions[j].Bytes
		}
		return extensions[i].Ext < extensions[j].Ext
	})
	if len(extensions) > topN {
		extensions = extensions[:topN]
	}

	return &Stats{
		Files:      c.files,
		Dirs:       c.dirs,
		TotalBytes: c.totalBytes,
		TopFiles:   topFiles,
		Extensions: extensions,
		Errors:     c.errors,
	}
}

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is
// done.
func startProgressReporter(ctx context.Context, c *collector, hook func(int64, uint64), interval time.Duration) {
	if hook == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				files, bytes := c.counters()
				hook(files, bytes)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func calculateDepth(path, root string) int {
	rel := strings.TrimPrefix(path, root)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	if rel == "" {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// extFilter normalizes the wanted extensions into a lookup set, nil when
// everything counts.
func extFilter(extensions []string) map[string]bool {
	if len(extensions) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted[ext] = true
	}
	if len(wanted) == 0 {
		return nil
	}
	return wanted
}

// Run walks the tree at opts.Path in parallel and aggregates statistics.
// Unreadable entries are counted, never fatal; cancellation aborts the walk.
func Run(ctx context.Context, opts Options, hook func(int64, uint64)) (*Stats, error) {
	start := time.Now()

	root := filepath.Clean(opts.Path)
	if root == "" || root == "." {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("accessing path %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %q is not a directory", root)
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}

	c := newCollector()
	wantedExts := extFilter(opts.Extensions)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	startProgressReporter(ctx, c, hook, opts.ProgressInterval)

	conf := &fastwalk.Config{
		Follow: false,
	}
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.addError()
			return nil
		}

		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		if path != root && !opts.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.MaxDepth > 0 && calculateDepth(path, root) > opts.MaxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			c.addDir()
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fileInfo, err := d.Info()
		if err != nil {
			c.addError()
			return nil
		}
		if wantedExts != nil && !wantedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		size := uint64(fileInfo.Size())
		if opts.MinSize > 0 && size < opts.MinSize {
			return nil
		}
		c.addFile(path, size)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	stats := c.finalize(opts.TopN)
	stats.Path = root
	stats.Elapsed = time.Since(start)
	return stats, nil
}
