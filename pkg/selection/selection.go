// Package selection owns the tri-state check model over a scanned tree and
// the snapshot aggregation that feeds the exporter and watch controller.
package selection

import (
	"aiexport/pkg/scan"
)

// Tree wraps a scanned root node in an arena keyed by absolute path so
// toggles can address any node without holding pointers across mutations.
type Tree struct {
	root    *scan.Node
	rootDir string
	nodes   map[string]*scan.Node // abs path -> node
	parents map[string]*scan.Node // abs path -> parent node, root absent
}

// NewTree indexes a freshly scanned tree. All nodes start Unchecked; a
// rescan always builds a new Tree, so no selection survives a rebuild.
func NewTree(root *scan.Node) *Tree {
	t := &Tree{
		root:    root,
		rootDir: root.AbsPath,
		nodes:   make(map[string]*scan.Node),
		parents: make(map[string]*scan.Node),
	}
	t.index(root, nil)
	return t
}

func (t *Tree) index(node *scan.Node, parent *scan.Node) {
	t.nodes[node.AbsPath] = node
	if parent != nil {
		t.parents[node.AbsPath] = parent
	}
	for _, child := range node.Children {
		t.index(child, node)
	}
}

// Root returns the root node.
func (t *Tree) Root() *scan.Node { return t.root }

// RootDir returns the absolute path of the scanned root directory.
func (t *Tree) RootDir() string { return t.rootDir }

// Node looks up a node by absolute path.
func (t *Tree) Node(absPath string) (*scan.Node, bool) {
	n, ok := t.nodes[absPath]
	return n, ok
}

// Toggle applies a direct user action on one node: the node takes the given
// state, a directory forces it onto every descendant, and every ancestor up
// to the root is recomputed from its immediate children. Toggling to a state
// the node already effectively has is a no-op in observable state.
func (t *Tree) Toggle(absPath string, checked bool) bool {
	node, ok := t.nodes[absPath]
	if !ok {
		return false
	}

	state := scan.Unchecked
	if checked {
		state = scan.Checked
	}

	setDownward(node, state)
	t.recomputeUpward(node)
	return true
}

// setDownward forces state onto node and, for directories, every descendant.
func setDownward(node *scan.Node, state scan.State) {
	node.State = state
	for _, child := range node.Children {
		setDownward(child, state)
	}
}

// recomputeUpward folds children states into each ancestor, root included.
func (t *Tree) recomputeUpward(node *scan.Node) {
	for parent := t.parents[node.AbsPath]; parent != nil; parent = t.parents[parent.AbsPath] {
		parent.State = foldChildren(parent)
	}
}

// foldChildren computes a directory's state from its immediate children:
// Checked iff all Checked, Unchecked iff all Unchecked and none Partial,
// Partial otherwise. A childless directory has nothing to fold, so its own
// stored state stands; toggling an empty directory directly is therefore
// not undone by ancestor recomputation.
func foldChildren(dir *scan.Node) scan.State {
	if len(dir.Children) == 0 {
		return dir.State
	}
	checked := 0
	partial := 0
	for _, child := range dir.Children {
		switch child.State {
		case scan.Checked:
			checked++
		case scan.Partial:
			partial++
		}
	}
	switch {
	case checked == len(dir.Children):
		return scan.Checked
	case checked == 0 && partial == 0:
		return scan.Unchecked
	default:
		return scan.Partial
	}
}
