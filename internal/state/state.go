package state

import (
	"sort"

	"github.com/chan4lk/spacemap/internal/config"
	"github.com/chan4lk/spacemap/internal/domain"
	"github.com/chan4lk/spacemap/internal/filter"
)

type Preferences struct {
	IncludeHidden bool
	SafeMode      bool
	SortMode      domain.SortMode
	Theme         string
}

// State is the navigation model behind the TUI: the latest snapshot, the
// filtered view over it, and the position inside that view. The stack holds
// the drill-down path from the scan root to the directory on screen.
type State struct {
	RootPath string
	Prefs    Preferences

	Snapshot *domain.Node
	View     *filter.View
	Rules    filter.Rules
	Preset   string

	Marked map[string]bool

	stack  []string
	Cursor int
}

func NewState(cfg *config.Config) *State {
	return &State{
		RootPath: cfg.Root,
		Prefs: Preferences{
			IncludeHidden: cfg.IncludeHidden,
			SafeMode:      cfg.SafeMode,
			SortMode:      cfg.SortMode(),
			Theme:         cfg.Theme,
		},
		Marked: make(map[string]bool),
	}
}

// SetSnapshot installs a fresh scan result. The drill-down position and marks
// survive where the new tree still has them.
func (appState *State) SetSnapshot(root *domain.Node) {
	appState.Snapshot = root
	appState.rebuildView()
	appState.revalidate()
}

// SetRules replaces the filter rules and rebuilds the view. preset carries
// the preset name when the rules came from one, empty otherwise.
func (appState *State) SetRules(rules filter.Rules, preset string) {
	appState.Rules = rules
	appState.Preset = preset
	appState.rebuildView()
	appState.revalidate()
}

func (appState *State) ClearRules() {
	appState.SetRules(filter.Rules{}, "")
}

func (appState *State) rebuildView() {
	if appState.Snapshot == nil {
		appState.View = nil
		return
	}
	appState.View = filter.Apply(appState.Snapshot, appState.Rules)
}

// revalidate truncates the stack at the first entry the current view no
// longer resolves and drops marks on vanished paths.
func (appState *State) revalidate() {
	if appState.View == nil {
		appState.stack = nil
		appState.Cursor = 0
		appState.Marked = make(map[string]bool)
		return
	}
	if len(appState.stack) == 0 || appState.stack[0] != appState.View.Node.Path {
		appState.stack = []string{appState.View.Node.Path}
	} else {
		kept := appState.stack[:1]
		for _, path := range appState.stack[1:] {
			if appState.View.Find(path) == nil {
				break
			}
			kept = append(kept, path)
		}
		appState.stack = kept
	}
	for path := range appState.Marked {
		if appState.View.Find(path) == nil {
			delete(appState.Marked, path)
		}
	}
	appState.clampCursor()
}

func (appState *State) clampCursor() {
	n := len(appState.Children())
	switch {
	case n == 0:
		appState.Cursor = 0
	case appState.Cursor >= n:
		appState.Cursor = n - 1
	case appState.Cursor < 0:
		appState.Cursor = 0
	}
}

// CurrentView is the directory on screen.
func (appState *State) CurrentView() *filter.View {
	if appState.View == nil {
		return nil
	}
	if len(appState.stack) <= 1 {
		return appState.View
	}
	if found := appState.View.Find(appState.stack[len(appState.stack)-1]); found != nil {
		return found
	}
	return appState.View
}

func (appState *State) CurrentNode() *domain.Node {
	if current := appState.CurrentView(); current != nil {
		return current.Node
	}
	return nil
}

func (appState *State) CurrentPath() string {
	if len(appState.stack) > 0 {
		return appState.stack[len(appState.stack)-1]
	}
	return appState.RootPath
}

// Children returns the surviving children of the current directory ordered
// for display: directories first, then by the preferred mode.
func (appState *State) Children() []*filter.View {
	current := appState.CurrentView()
	if current == nil {
		return nil
	}
	children := append([]*filter.View(nil), current.Children...)
	if len(children) < 2 {
		return children
	}
	less := domain.LessFor(appState.Prefs.SortMode)
	sort.SliceStable(children, func(i, j int) bool {
		return less(children[i].Node, children[j].Node)
	})
	return children
}

// SelectedChild is the child under the cursor, nil when the directory is
// empty.
func (appState *State) SelectedChild() *filter.View {
	children := appState.Children()
	if len(children) == 0 || appState.Cursor < 0 || appState.Cursor >= len(children) {
		return nil
	}
	return children[appState.Cursor]
}

func (appState *State) MoveCursor(delta int) {
	appState.Cursor += delta
	appState.clampCursor()
}

// Enter drills into the child under the cursor.
func (appState *State) Enter() bool {
	child := appState.SelectedChild()
	if child == nil || !child.Node.IsDir() {
		return false
	}
	appState.stack = append(appState.stack, child.Node.Path)
	appState.Cursor = 0
	return true
}

// Leave climbs back to the parent directory and puts the cursor on the
// directory just left.
func (appState *State) Leave() bool {
	if len(appState.stack) <= 1 {
		return false
	}
	leaving := appState.stack[len(appState.stack)-1]
	appState.stack = appState.stack[:len(appState.stack)-1]
	appState.Cursor = 0
	for i, child := range appState.Children() {
		if child.Node.Path == leaving {
			appState.Cursor = i
			break
		}
	}
	return true
}

func (appState *State) Depth() int {
	return len(appState.stack)
}

// ToggleMark flips the mark on a path.
func (appState *State) ToggleMark(path string) {
	if path == "" {
		return
	}
	appState.Marked[path] = !appState.Marked[path]
	if !appState.Marked[path] {
		delete(appState.Marked, path)
	}
}

// MarkedPaths lists the marked targets in stable order, falling back to the
// child under the cursor when nothing is marked.
func (appState *State) MarkedPaths() []string {
	paths := make([]string, 0, len(appState.Marked))
	for path := range appState.Marked {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		if child := appState.SelectedChild(); child != nil {
			paths = append(paths, child.Node.Path)
		}
	}
	return paths
}

// MarkedSummary reports how many entries are marked and their combined size.
func (appState *State) MarkedSummary() (int, uint64) {
	var total uint64
	for path := range appState.Marked {
		if found := appState.View.Find(path); found != nil {
			total += found.Node.DisplaySize()
		}
	}
	return len(appState.Marked), total
}

// ApplyDeletions prunes the snapshot for every successfully deleted path and
// rebuilds the view. Ancestor totals shrink; nothing is re-scanned.
func (appState *State) ApplyDeletions(paths []string) {
	for _, path := range paths {
		if appState.Snapshot == nil {
			break
		}
		if pruned, ok := domain.Remove(appState.Snapshot, path); ok {
			appState.Snapshot = pruned
		}
		delete(appState.Marked, path)
	}
	appState.rebuildView()
	appState.revalidate()
}

// TopFiles lists the n largest files under the current directory, judged on
// the unfiltered snapshot subtree.
func (appState *State) TopFiles(n int) []*domain.Node {
	return domain.TopFiles(appState.CurrentNode(), n)
}

func (appState *State) ToggleSortMode() domain.SortMode {
	switch appState.Prefs.SortMode {
	case domain.SortBySize:
		appState.Prefs.SortMode = domain.SortByName
	case domain.SortByName:
		appState.Prefs.SortMode = domain.SortByMod
	default:
		appState.Prefs.SortMode = domain.SortBySize
	}
	appState.clampCursor()
	return appState.Prefs.SortMode
}

// ToggleIncludeHidden flips the preference; the caller owns the rescan that
// makes it visible.
func (appState *State) ToggleIncludeHidden() bool {
	appState.Prefs.IncludeHidden = !appState.Prefs.IncludeHidden
	return appState.Prefs.IncludeHidden
}
