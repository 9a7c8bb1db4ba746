package filter

import (
	"time"

	"github.com/chan4lk/spacemap/internal/domain"
)

// Rules prune a scanned tree down to the entries worth looking at. Zero
// values leave a bound unconstrained. Ages compare against Now, captured once
// so repeated evaluation over the same snapshot is stable.
type Rules struct {
	MinSize uint64
	MaxSize uint64
	MinAge  time.Duration
	MaxAge  time.Duration
	Now     time.Time
}

func (rules Rules) Active() bool {
	return rules.MinSize > 0 || rules.MaxSize > 0 || rules.MinAge > 0 || rules.MaxAge > 0
}

// Match judges one node: directories on their aggregate size, files on their
// own size, ages on the mod time of either.
func (rules Rules) Match(node *domain.Node) bool {
	if node == nil {
		return false
	}
	size := node.DisplaySize()
	if rules.MinSize > 0 && size < rules.MinSize {
		return false
	}
	if rules.MaxSize > 0 && size > rules.MaxSize {
		return false
	}
	if rules.MinAge > 0 || rules.MaxAge > 0 {
		now := rules.Now
		if now.IsZero() {
			now = time.Now()
		}
		age := now.Sub(node.ModTime)
		if rules.MinAge > 0 && age < rules.MinAge {
			return false
		}
		if rules.MaxAge > 0 && age > rules.MaxAge {
			return false
		}
	}
	return true
}

// View is a filtered overlay on a snapshot. Node points into the original
// tree and keeps its true sizes; Children holds only survivors. Nothing here
// re-aggregates, so a directory still reports its real disk usage even when
// children were filtered away.
type View struct {
	Node     *domain.Node
	Children []*View
}

// Apply builds the view rooted at root. The root is the viewpoint and always
// survives; any descendant failing an active rule drops out together with its
// subtree. The snapshot itself is untouched.
func Apply(root *domain.Node, rules Rules) *View {
	if root == nil {
		return nil
	}
	view := &View{Node: root}
	for _, child := range root.Children {
		if rules.Active() && !rules.Match(child) {
			continue
		}
		view.Children = append(view.Children, Apply(child, rules))
	}
	return view
}

// Find locates the view node for an absolute path, or nil when the path was
// filtered away.
func (view *View) Find(path string) *View {
	if view == nil {
		return nil
	}
	if view.Node.Path == path {
		return view
	}
	for _, child := range view.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// ChildNodes unwraps the surviving children for consumers that want plain
// nodes, the layout engine in particular.
func (view *View) ChildNodes() []*domain.Node {
	if view == nil {
		return nil
	}
	nodes := make([]*domain.Node, 0, len(view.Children))
	for _, child := range view.Children {
		nodes = append(nodes, child.Node)
	}
	return nodes
}
