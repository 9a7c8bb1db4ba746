package state

import (
	"testing"

	"github.com/chan4lk/spacemap/internal/config"
	"github.com/chan4lk/spacemap/internal/domain"
	"github.com/chan4lk/spacemap/internal/filter"
)

func file(path, name string, size uint64) *domain.Node {
	return &domain.Node{Path: path, Name: name, Kind: domain.KindFile, Size: size, Total: size}
}

func dir(path, name string, children ...*domain.Node) *domain.Node {
	return &domain.Node{Path: path, Name: name, Kind: domain.KindDir, Children: children}
}

func sampleTree() *domain.Node {
	root := dir("/data", "data",
		dir("/data/videos", "videos",
			file("/data/videos/a.mp4", "a.mp4", 3000),
			file("/data/videos/b.mp4", "b.mp4", 1000),
		),
		file("/data/notes.txt", "notes.txt", 500),
		dir("/data/empty", "empty"),
	)
	domain.Aggregate(root)
	return root
}

func newTestState() *State {
	cfg := &config.Config{
		Root:     "/data",
		SafeMode: true,
		Sort:     "size",
		Theme:    "dark",
	}
	appState := NewState(cfg)
	appState.SetSnapshot(sampleTree())
	return appState
}

func pathsOf(children []*filter.View) []string {
	paths := make([]string, 0, len(children))
	for _, child := range children {
		paths = append(paths, child.Node.Path)
	}
	return paths
}

func TestSetSnapshotStartsAtRoot(t *testing.T) {
	appState := newTestState()

	if got := appState.CurrentPath(); got != "/data" {
		t.Fatalf("CurrentPath = %q, want /data", got)
	}
	got := pathsOf(appState.Children())
	want := []string{"/data/videos", "/data/empty", "/data/notes.txt"}
	if len(got) != len(want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("children[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnterAndLeave(t *testing.T) {
	appState := newTestState()

	if !appState.Enter() {
		t.Fatal("Enter on a directory should succeed")
	}
	if got := appState.CurrentPath(); got != "/data/videos" {
		t.Fatalf("CurrentPath = %q, want /data/videos", got)
	}
	if got := pathsOf(appState.Children()); len(got) != 2 || got[0] != "/data/videos/a.mp4" {
		t.Fatalf("children of videos = %v", got)
	}

	if appState.Enter() {
		t.Error("Enter on a file should fail")
	}

	if !appState.Leave() {
		t.Fatal("Leave should succeed below the root")
	}
	if got := appState.CurrentPath(); got != "/data" {
		t.Fatalf("CurrentPath after Leave = %q, want /data", got)
	}
	if appState.Cursor != 0 {
		t.Errorf("cursor should sit on the directory just left, got %d", appState.Cursor)
	}

	if appState.Leave() {
		t.Error("Leave at the root should fail")
	}
}

func TestMoveCursorClamps(t *testing.T) {
	appState := newTestState()

	appState.MoveCursor(10)
	if appState.Cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped to last child)", appState.Cursor)
	}
	appState.MoveCursor(-99)
	if appState.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", appState.Cursor)
	}
}

func TestRulesPruneChildrenKeepPosition(t *testing.T) {
	appState := newTestState()
	appState.Enter()

	appState.SetRules(filter.Rules{MinSize: 2000}, "")
	if got := appState.CurrentPath(); got != "/data/videos" {
		t.Fatalf("position should survive filtering, got %q", got)
	}
	if got := pathsOf(appState.Children()); len(got) != 1 || got[0] != "/data/videos/a.mp4" {
		t.Fatalf("filtered children = %v, want just a.mp4", got)
	}

	appState.ClearRules()
	if got := appState.Children(); len(got) != 2 {
		t.Fatalf("children after clearing rules = %d, want 2", len(got))
	}
	if got := appState.CurrentPath(); got != "/data/videos" {
		t.Errorf("position lost on ClearRules: %q", got)
	}
}

func TestRulesDroppingCurrentDirTruncatesStack(t *testing.T) {
	appState := newTestState()
	appState.MoveCursor(1)
	if !appState.Enter() {
		t.Fatal("expected to enter /data/empty")
	}
	if got := appState.CurrentPath(); got != "/data/empty" {
		t.Fatalf("CurrentPath = %q, want /data/empty", got)
	}

	appState.SetRules(filter.Rules{MinSize: 100}, "")
	if got := appState.CurrentPath(); got != "/data" {
		t.Errorf("stack should fall back to root when current dir is filtered, got %q", got)
	}
}

func TestMarks(t *testing.T) {
	appState := newTestState()

	appState.ToggleMark("/data/videos/a.mp4")
	appState.ToggleMark("/data/notes.txt")

	got := appState.MarkedPaths()
	if len(got) != 2 || got[0] != "/data/notes.txt" || got[1] != "/data/videos/a.mp4" {
		t.Fatalf("MarkedPaths = %v", got)
	}
	count, total := appState.MarkedSummary()
	if count != 2 || total != 3500 {
		t.Errorf("MarkedSummary = %d/%d, want 2/3500", count, total)
	}

	appState.ToggleMark("/data/notes.txt")
	if got := appState.MarkedPaths(); len(got) != 1 || got[0] != "/data/videos/a.mp4" {
		t.Errorf("unmark failed: %v", got)
	}
}

func TestMarkedPathsFallsBackToCursor(t *testing.T) {
	appState := newTestState()

	got := appState.MarkedPaths()
	if len(got) != 1 || got[0] != "/data/videos" {
		t.Errorf("fallback target = %v, want the child under the cursor", got)
	}
}

func TestApplyDeletionsPrunesSnapshot(t *testing.T) {
	appState := newTestState()
	appState.ToggleMark("/data/videos/a.mp4")

	appState.ApplyDeletions([]string{"/data/videos/a.mp4"})

	if appState.Snapshot.Total != 1500 {
		t.Errorf("root total = %d, want 1500", appState.Snapshot.Total)
	}
	videos := domain.Find(appState.Snapshot, "/data/videos")
	if videos == nil || videos.Total != 1000 {
		t.Fatalf("videos total wrong after deletion: %+v", videos)
	}
	if len(appState.Marked) != 0 {
		t.Errorf("marks should be dropped for deleted paths: %v", appState.Marked)
	}
}

func TestApplyDeletionsOfCurrentDir(t *testing.T) {
	appState := newTestState()
	appState.Enter()

	appState.ApplyDeletions([]string{"/data/videos"})

	if got := appState.CurrentPath(); got != "/data" {
		t.Errorf("CurrentPath = %q, want /data after current dir vanished", got)
	}
	if appState.Snapshot.Total != 500 {
		t.Errorf("root total = %d, want 500", appState.Snapshot.Total)
	}
}

func TestSnapshotSwapKeepsPosition(t *testing.T) {
	appState := newTestState()
	appState.Enter()

	appState.SetSnapshot(sampleTree())
	if got := appState.CurrentPath(); got != "/data/videos" {
		t.Errorf("rescan of the same tree should keep position, got %q", got)
	}

	appState.SetSnapshot(dir("/data", "data", file("/data/only.txt", "only.txt", 10)))
	if got := appState.CurrentPath(); got != "/data" {
		t.Errorf("rescan without the current dir should fall back to root, got %q", got)
	}
}

func TestTopFilesFollowsCurrentDir(t *testing.T) {
	appState := newTestState()

	top := appState.TopFiles(2)
	if len(top) != 2 || top[0].Path != "/data/videos/a.mp4" || top[1].Path != "/data/videos/b.mp4" {
		t.Fatalf("TopFiles at root = %v", pathsOfNodes(top))
	}

	appState.Enter()
	top = appState.TopFiles(10)
	if len(top) != 2 || top[0].Path != "/data/videos/a.mp4" {
		t.Errorf("TopFiles in videos = %v", pathsOfNodes(top))
	}
}

func pathsOfNodes(nodes []*domain.Node) []string {
	paths := make([]string, 0, len(nodes))
	for _, node := range nodes {
		paths = append(paths, node.Path)
	}
	return paths
}

func TestToggleSortModeCycles(t *testing.T) {
	appState := newTestState()

	if got := appState.ToggleSortMode(); got != domain.SortByName {
		t.Errorf("first toggle = %v, want name", got)
	}
	if got := appState.ToggleSortMode(); got != domain.SortByMod {
		t.Errorf("second toggle = %v, want mod", got)
	}
	if got := appState.ToggleSortMode(); got != domain.SortBySize {
		t.Errorf("third toggle = %v, want size", got)
	}
}
