package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chan4lk/spacemap/internal/domain"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func scanTree(t *testing.T, req ScanRequest) ScanResult {
	t.Helper()
	result, err := NewFSScanner(nil).Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.Root == nil {
		t.Fatal("scan returned no tree")
	}
	return result
}

func TestScanAggregatesBottomUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 100)
	writeFile(t, filepath.Join(root, "sub", "b.txt"), 300)
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"), 50)

	result := scanTree(t, ScanRequest{RootPath: root})

	if result.Root.Total != 450 {
		t.Errorf("expected root total 450, got %d", result.Root.Total)
	}
	if result.Root.Size != 0 {
		t.Errorf("directory own size should be 0, got %d", result.Root.Size)
	}
	sub := domain.Find(result.Root, filepath.Join(root, "sub"))
	if sub == nil {
		t.Fatal("sub directory missing from tree")
	}
	if sub.Total != 350 {
		t.Errorf("expected sub total 350, got %d", sub.Total)
	}
	deep := domain.Find(result.Root, filepath.Join(root, "sub", "deep"))
	if deep == nil || deep.Total != 50 {
		t.Error("deep directory should aggregate to 50")
	}
	if result.Bytes != 450 {
		t.Errorf("expected 450 bytes counted, got %d", result.Bytes)
	}
	if result.Entries != 5 {
		t.Errorf("expected 5 entries, got %d", result.Entries)
	}
	if result.Root.ModTime.IsZero() {
		t.Error("root mod time should be set")
	}
}

func TestScanChildOrderIsListingOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zz.txt"), 1)
	writeFile(t, filepath.Join(root, "aa.txt"), 1)
	writeFile(t, filepath.Join(root, "mm.txt"), 1)

	result := scanTree(t, ScanRequest{RootPath: root})
	names := make([]string, 0, len(result.Root.Children))
	for _, child := range result.Root.Children {
		names = append(names, child.Name)
	}
	if len(names) != 3 || names[0] != "aa.txt" || names[1] != "mm.txt" || names[2] != "zz.txt" {
		t.Errorf("expected name-ordered children, got %v", names)
	}
}

func TestScanRootUnreadable(t *testing.T) {
	_, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, domain.ErrRootUnreadable) {
		t.Errorf("expected ErrRootUnreadable, got %v", err)
	}
}

func TestScanRootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	writeFile(t, file, 10)

	_, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: file})
	if !errors.Is(err, domain.ErrRootUnreadable) {
		t.Errorf("expected ErrRootUnreadable for file root, got %v", err)
	}
}

func TestScanUnreadableEntryTolerated(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not bind root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "secret.bin"), 4000)
	writeFile(t, filepath.Join(root, "open.txt"), 50)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result := scanTree(t, ScanRequest{RootPath: root})

	if result.Root.Total != 50 {
		t.Errorf("unreadable subtree must not count; expected 50, got %d", result.Root.Total)
	}
	node := domain.Find(result.Root, locked)
	if node == nil {
		t.Fatal("unreadable directory should still appear in the tree")
	}
	if !errors.Is(node.Err, domain.ErrEntryUnreadable) {
		t.Errorf("expected ErrEntryUnreadable tag, got %v", node.Err)
	}
	if node.Total != 0 || len(node.Children) != 0 {
		t.Error("unreadable directory should stay empty with zero total")
	}
	if result.Errors != 1 {
		t.Errorf("expected 1 recorded error, got %d", result.Errors)
	}
}

func TestScanCanceledReturnsNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewFSScanner(nil).Scan(ctx, ScanRequest{RootPath: root})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.Root != nil {
		t.Error("canceled scan must not hand back a tree")
	}
}

func TestScanCancelAndReplace(t *testing.T) {
	scanner := NewFSScanner(nil)
	first, cancelFirst := scanner.begin(context.Background())
	defer cancelFirst()
	second, cancelSecond := scanner.begin(context.Background())
	defer cancelSecond()

	if first.Err() == nil {
		t.Error("starting a second scan should cancel the first")
	}
	if second.Err() != nil {
		t.Errorf("replacement scan context should be live, got %v", second.Err())
	}
}

func TestScanSymlinkNotFollowedByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.bin"), 2000)
	link := filepath.Join(root, "link.bin")
	if err := os.Symlink(filepath.Join(root, "real.bin"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result := scanTree(t, ScanRequest{RootPath: root})

	if result.Root.Total != 2000 {
		t.Errorf("link must stay zero-size; expected 2000, got %d", result.Root.Total)
	}
	node := domain.Find(result.Root, link)
	if node == nil {
		t.Fatal("link should appear as a leaf")
	}
	if node.Size != 0 || node.Err != nil {
		t.Errorf("unfollowed link should be a clean zero-size leaf, got size %d err %v", node.Size, node.Err)
	}
}

func TestScanSymlinkFollowed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.bin"), 2000)
	link := filepath.Join(root, "link.bin")
	if err := os.Symlink(filepath.Join(root, "real.bin"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result := scanTree(t, ScanRequest{RootPath: root, FollowSymlinks: true})

	node := domain.Find(result.Root, link)
	if node == nil {
		t.Fatal("link should appear in the tree")
	}
	if node.Size != 2000 {
		t.Errorf("followed link should carry target size, got %d", node.Size)
	}
	if result.Root.Total != 4000 {
		t.Errorf("expected 4000 with the followed link counted, got %d", result.Root.Total)
	}
}

func TestScanSymlinkCycleTerminates(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "outer", "inner")
	writeFile(t, filepath.Join(nested, "file.txt"), 10)
	loop := filepath.Join(nested, "loop")
	if err := os.Symlink(filepath.Join(root, "outer"), loop); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	done := make(chan ScanResult, 1)
	go func() {
		result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: root, FollowSymlinks: true})
		if err != nil {
			t.Errorf("cycle scan failed: %v", err)
		}
		done <- result
	}()

	var result ScanResult
	select {
	case result = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not terminate on a symlink cycle")
	}

	node := domain.Find(result.Root, loop)
	if node == nil {
		t.Fatal("cycle link should appear in the tree")
	}
	if !errors.Is(node.Err, domain.ErrCyclicLink) {
		t.Errorf("expected ErrCyclicLink tag, got %v", node.Err)
	}
	if node.Total != 0 {
		t.Errorf("cycle leaf must not contribute size, got %d", node.Total)
	}
}

func TestScanMaxDepthTruncates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), 100)
	writeFile(t, filepath.Join(root, "sub", "nested.txt"), 900)

	result := scanTree(t, ScanRequest{RootPath: root, MaxDepth: 1})

	node := domain.Find(result.Root, filepath.Join(root, "sub"))
	if node == nil {
		t.Fatal("truncated directory should still appear")
	}
	if !errors.Is(node.Err, domain.ErrTreeTooDeep) {
		t.Errorf("expected ErrTreeTooDeep tag, got %v", node.Err)
	}
	if len(node.Children) != 0 || node.Total != 0 {
		t.Error("truncated branch should stay empty")
	}
	if result.Root.Total != 100 {
		t.Errorf("expected 100 at depth 1, got %d", result.Root.Total)
	}
}

func TestScanHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".secret"), 500)
	writeFile(t, filepath.Join(root, "visible.txt"), 100)

	skipped := scanTree(t, ScanRequest{RootPath: root})
	if skipped.Root.Total != 100 {
		t.Errorf("hidden entries skipped by default; expected 100, got %d", skipped.Root.Total)
	}

	included := scanTree(t, ScanRequest{RootPath: root, IncludeHidden: true})
	if included.Root.Total != 600 {
		t.Errorf("expected 600 with hidden included, got %d", included.Root.Total)
	}
}

func TestScanIsFreshEveryCall(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.txt"), 100)

	scanner := NewFSScanner(nil)
	first, err := scanner.Scan(context.Background(), ScanRequest{RootPath: root})
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	writeFile(t, filepath.Join(root, "two.txt"), 900)
	second, err := scanner.Scan(context.Background(), ScanRequest{RootPath: root})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	if first.Root.Total != 100 || second.Root.Total != 1000 {
		t.Errorf("scans must reflect the filesystem at scan time: %d then %d", first.Root.Total, second.Root.Total)
	}
}

func TestScanEmptyRoot(t *testing.T) {
	result := scanTree(t, ScanRequest{RootPath: t.TempDir()})
	if result.Root.Total != 0 || len(result.Root.Children) != 0 {
		t.Error("empty root should scan to an empty zero-total tree")
	}
}

func TestScanProgressMonotonic(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		writeFile(t, filepath.Join(root, "dir", fmt.Sprintf("f%02d.bin", i)), 128)
	}

	scanner := NewFSScanner(nil)
	scanner.interval = time.Millisecond

	done := make(chan ScanResult, 1)
	go func() {
		result, err := scanner.Scan(context.Background(), ScanRequest{RootPath: root})
		if err != nil {
			t.Errorf("scan failed: %v", err)
		}
		done <- result
	}()

	var ch <-chan ScanProgress
	for i := 0; i < 200 && ch == nil; i++ {
		ch = scanner.Progress()
		time.Sleep(time.Millisecond)
	}

	var samples []ScanProgress
	if ch != nil {
		for sample := range ch {
			samples = append(samples, sample)
		}
	}
	result := <-done

	var lastEntries, lastBytes uint64
	for _, sample := range samples {
		if sample.Entries < lastEntries || sample.Bytes < lastBytes {
			t.Fatalf("progress went backwards: %+v after %d/%d", sample, lastEntries, lastBytes)
		}
		lastEntries, lastBytes = sample.Entries, sample.Bytes
		if sample.Completed {
			if sample.Entries != result.Entries || sample.Bytes != result.Bytes {
				t.Errorf("completed sample should match the result: %+v vs %d/%d", sample, result.Entries, result.Bytes)
			}
		}
	}
}
