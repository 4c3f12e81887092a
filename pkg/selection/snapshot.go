package selection

import (
	"path/filepath"

	"aiexport/pkg/scan"
)

// RootGroupKey is the reserved group key for files living directly in the
// project root. The NUL prefix keeps it distinct from any real relative
// path, so a top-level subdirectory can never collide with it.
const RootGroupKey = "\x00root"

// SelectedFile is one file chosen for export.
type SelectedFile struct {
	RelPath string // relative to the project root, host separators
	AbsPath string
}

// Snapshot is the immutable result of one aggregation pass over the tree.
// It is a plain value; the tree may be mutated freely afterwards.
type Snapshot struct {
	Files      []SelectedFile
	FileCount  int
	GroupCount int
}

// GroupKey returns the directory-group key for a selected file: its parent
// directory relative to the root, or RootGroupKey for top-level files.
func GroupKey(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return RootGroupKey
	}
	return dir
}

// Snap walks the tree in scanner order and collects every file node whose
// state is exactly Checked, together with the selection counts.
func Snap(t *Tree) Snapshot {
	var snap Snapshot
	groups := make(map[string]struct{})

	var walk func(node *scan.Node)
	walk = func(node *scan.Node) {
		for _, child := range node.Children {
			if child.IsDir() {
				walk(child)
				continue
			}
			if child.State != scan.Checked {
				continue
			}
			relPath, err := filepath.Rel(t.rootDir, child.AbsPath)
			if err != nil {
				continue
			}
			snap.Files = append(snap.Files, SelectedFile{RelPath: relPath, AbsPath: child.AbsPath})
			groups[GroupKey(relPath)] = struct{}{}
		}
	}
	walk(t.root)

	snap.FileCount = len(snap.Files)
	snap.GroupCount = len(groups)
	return snap
}
