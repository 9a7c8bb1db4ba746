package domain

import "sort"

type SortMode string

const (
	SortBySize SortMode = "size"
	SortByName SortMode = "name"
	SortByMod  SortMode = "mod"
)

func ParseSortMode(value string) (SortMode, bool) {
	switch SortMode(value) {
	case SortBySize, SortByName, SortByMod:
		return SortMode(value), true
	}
	return SortBySize, false
}

// LessFor returns the listing order for a mode: directories first, then the
// requested ordering, names breaking size ties.
func LessFor(mode SortMode) func(a, b *Node) bool {
	return func(a, b *Node) bool {
		if a.Kind != b.Kind {
			return a.Kind == KindDir
		}
		switch mode {
		case SortByName:
			return a.Name < b.Name
		case SortByMod:
			return a.ModTime.After(b.ModTime)
		default:
			if a.DisplaySize() != b.DisplaySize() {
				return a.DisplaySize() > b.DisplaySize()
			}
			return a.Name < b.Name
		}
	}
}

// SortedChildren returns a fresh slice of node's children ordered for
// listing. The snapshot's own child order is left alone.
func SortedChildren(node *Node, mode SortMode) []*Node {
	if node == nil {
		return nil
	}
	children := append([]*Node(nil), node.Children...)
	less := LessFor(mode)
	sort.SliceStable(children, func(i, j int) bool { return less(children[i], children[j]) })
	return children
}
