package domain

import (
	"sort"
	"time"
)

type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Node is one entry in a scanned tree. Children are owned by their parent and
// keep the order the scanner produced. A finished tree is a snapshot: filters
// and layouts read it, nothing mutates it.
type Node struct {
	Path     string
	Name     string
	Kind     Kind
	Size     uint64
	Total    uint64
	ModTime  time.Time
	Children []*Node
	Err      error
}

func (n *Node) IsDir() bool { return n.Kind == KindDir }

// DisplaySize is what the node occupies on disk: the aggregate for
// directories, the own size for files.
func (n *Node) DisplaySize() uint64 {
	if n.Kind == KindDir {
		return n.Total
	}
	return n.Size
}

// Walk visits root and every descendant, parents before children.
func Walk(root *Node, fn func(*Node)) {
	if root == nil {
		return
	}
	fn(root)
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// Find locates the node with the given absolute path, or nil.
func Find(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	if root.Path == path {
		return root
	}
	for _, c := range root.Children {
		if found := Find(c, path); found != nil {
			return found
		}
	}
	return nil
}

// Aggregate recomputes Total for every node bottom up and returns the root's
// total. A file's total is its own size; a directory's is the sum over its
// children, its own entry size excluded.
func Aggregate(n *Node) uint64 {
	if n == nil {
		return 0
	}
	if n.Kind == KindFile {
		n.Total = n.Size
		return n.Total
	}
	var sum uint64
	for _, c := range n.Children {
		sum += Aggregate(c)
	}
	n.Total = sum
	return n.Total
}

// Remove returns a tree without the node at path, with every ancestor's total
// reduced by the removed subtree. Nodes on the root-to-target path are copied;
// untouched branches are shared with the input, which is never mutated.
// Removing the root or an unknown path returns the input and false.
func Remove(root *Node, path string) (*Node, bool) {
	if root == nil || root.Path == path {
		return root, false
	}
	return removeUnder(root, path)
}

func removeUnder(n *Node, path string) (*Node, bool) {
	for i, c := range n.Children {
		if c.Path == path {
			clone := *n
			clone.Children = make([]*Node, 0, len(n.Children)-1)
			clone.Children = append(clone.Children, n.Children[:i]...)
			clone.Children = append(clone.Children, n.Children[i+1:]...)
			clone.Total = subtract(clone.Total, c.Total)
			return &clone, true
		}
	}
	for i, c := range n.Children {
		if !c.IsDir() {
			continue
		}
		sub, ok := removeUnder(c, path)
		if !ok {
			continue
		}
		clone := *n
		clone.Children = append([]*Node(nil), n.Children...)
		clone.Children[i] = sub
		clone.Total = subtract(clone.Total, c.Total-sub.Total)
		return &clone, true
	}
	return n, false
}

func subtract(total, by uint64) uint64 {
	if by > total {
		return 0
	}
	return total - by
}

// TopFiles returns the n largest files under root, largest first. Equal sizes
// keep their tree order.
func TopFiles(root *Node, n int) []*Node {
	if root == nil || n <= 0 {
		return nil
	}
	var files []*Node
	Walk(root, func(node *Node) {
		if node.Kind == KindFile {
			files = append(files, node)
		}
	})
	sort.SliceStable(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	if len(files) > n {
		files = files[:n]
	}
	return files
}

// Count reports how many files and directories root contains, itself included.
func Count(root *Node) (files, dirs int) {
	Walk(root, func(n *Node) {
		if n.Kind == KindDir {
			dirs++
		} else {
			files++
		}
	})
	return files, dirs
}
