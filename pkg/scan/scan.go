// Package scan walks a project root and builds the in-memory tree the
// selection model and exporter operate on.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aiexport/pkg/events"

	"go.uber.org/zap"
)

// Kind distinguishes directory nodes from file nodes.
type Kind int

const (
	Dir Kind = iota
	File
)

// State is the tri-state selection value carried by every node.
type State int

const (
	Unchecked State = iota
	Checked
	Partial
)

// Node represents one file-system entry in the scanned tree.
type Node struct {
	Name     string
	AbsPath  string
	Kind     Kind
	State    State
	Children []*Node // nil for files; dirs before files, case-insensitive name order
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Kind == Dir }

// Stats summarizes one completed scan.
type Stats struct {
	Files int
	Dirs  int
}

// defaultIgnoreNames are the base names never included in the tree:
// version control, editor state, dependency caches and build output.
var defaultIgnoreNames = map[string]struct{}{
	".git":          {},
	".idea":         {},
	".vscode":       {},
	"node_modules":  {},
	"venv":          {},
	"__pycache__":   {},
	".hg":           {},
	".svn":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// Scanner builds project trees. It is safe to call Scan repeatedly; every
// call rebuilds fresh state.
type Scanner struct {
	ignoreNames map[string]struct{}
	bus         *events.Bus
	logger      *zap.Logger
}

// NewScanner creates a scanner with the built-in ignore set plus any extra
// base names from configuration.
func NewScanner(logger *zap.Logger, bus *events.Bus, extraNames ...string) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make(map[string]struct{}, len(defaultIgnoreNames)+len(extraNames))
	for name := range defaultIgnoreNames {
		names[name] = struct{}{}
	}
	for _, name := range extraNames {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = struct{}{}
		}
	}
	return &Scanner{ignoreNames: names, bus: bus, logger: logger}
}

// Scan walks root and returns the tree rooted at it. The root must be a
// readable directory; unreadable subdirectories are skipped with a warning.
func (s *Scanner) Scan(root string) (*Node, Stats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to resolve root path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("root is not readable: %w", err)
	}
	if !info.IsDir() {
		return nil, Stats{}, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	s.bus.Publish(events.Event{Type: events.ScanStarted, Path: absRoot})
	s.logger.Info("Starting project scan", zap.String("root", absRoot))

	patterns, err := LoadPatternFile(filepath.Join(absRoot, IgnoreFileName), s.logger)
	if err != nil {
		s.logger.Warn("Failed to load ignore pattern file", zap.Error(err))
		patterns = NewPatternSet(s.logger)
	}

	rootName := filepath.Base(absRoot)
	rootNode := &Node{
		Name:     rootName,
		AbsPath:  absRoot,
		Kind:     Dir,
		Children: []*Node{},
	}

	var stats Stats
	s.addChildren(rootNode, absRoot, patterns, &stats)

	s.bus.Publish(events.Event{Type: events.ScanFinished, Files: stats.Files, Dirs: stats.Dirs})
	s.logger.Info("Project scan finished",
		zap.String("root", absRoot),
		zap.Int("files", stats.Files),
		zap.Int("dirs", stats.Dirs))

	return rootNode, stats, nil
}

// addChildren reads one directory level, filters it, and recurses.
func (s *Scanner) addChildren(parent *Node, rootDir string, patterns *PatternSet, stats *Stats) {
	entries, err := os.ReadDir(parent.AbsPath)
	if err != nil {
		s.logger.Warn("Skipping unreadable directory",
			zap.String("directory", parent.AbsPath),
			zap.Error(err))
		s.bus.Publish(events.Event{Type: events.ScanWarning, Path: parent.AbsPath, Reason: err.Error()})
		return
	}

	// Directories first, then files, case-insensitive by name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for _, entry := range entries {
		name := entry.Name()

		if _, ignored := s.ignoreNames[name]; ignored {
			continue
		}
		if entry.IsDir() && strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(parent.AbsPath, name)
		relPath, _ := filepath.Rel(rootDir, fullPath)
		if patterns.MatchesPath(relPath) {
			continue
		}

		if entry.IsDir() {
			child := &Node{
				Name:     name,
				AbsPath:  fullPath,
				Kind:     Dir,
				Children: []*Node{},
			}
			parent.Children = append(parent.Children, child)
			stats.Dirs++
			s.addChildren(child, rootDir, patterns, stats)
		} else {
			parent.Children = append(parent.Children, &Node{
				Name:    name,
				AbsPath: fullPath,
				Kind:    File,
			})
			stats.Files++
		}
	}
}
