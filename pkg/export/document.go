package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aiexport/pkg/selection"

	"go.uber.org/zap"
)

// FileSeparator is the literal marker written between file blocks. It never
// appears after the last file in a document.
const FileSeparator = "===END OF THE FILE==="

// documentHeader is written once at the top of every produced document.
const documentHeader = `THIS TXT FILE WAS GENERATED AUTOMATICALLY FOR AI MODELS.

Data format:
- each block corresponds to one source file of the project;
- the first line of a block is the file's relative path in the project;
- then the file's original content follows without modification;
- blocks are separated by the marker line:
  ===END OF THE FILE===

When analyzing the code, rely on the file path and line numbers,
and treat the separator marker only as a boundary between files.

`

// fileBlock is one resolved path-plus-content pair ready to be serialized.
type fileBlock struct {
	RelPath string // forward-slash separators
	Content string
}

// SingleDocumentName returns the document name used in Single mode.
func SingleDocumentName(rootName string) string {
	if rootName == "" {
		rootName = "project"
	}
	return rootName + "_all.txt"
}

// GroupFileName maps a directory-group key to a document name. Path
// separators become '-', characters outside a small safe set become '_',
// and leading/trailing punctuation is trimmed. The root sentinel key is
// named after the project root directory.
func GroupFileName(groupKey, rootName string) string {
	var base string
	if groupKey == selection.RootGroupKey || groupKey == "" || groupKey == "." {
		base = rootName
		if base == "" {
			base = "root"
		}
	} else {
		base = strings.ReplaceAll(filepath.ToSlash(groupKey), "/", "-")
	}

	const safeChars = "-_.() []{}"
	var cleaned strings.Builder
	for _, ch := range base {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			cleaned.WriteRune(ch)
		case strings.ContainsRune(safeChars, ch):
			cleaned.WriteRune(ch)
		default:
			cleaned.WriteRune('_')
		}
	}

	name := strings.Trim(cleaned.String(), "._ ")
	if name == "" {
		name = "group"
	}
	return name + ".txt"
}

// writeDocument serializes one document: the fixed header, then every block
// as relative path, blank line and raw content, with the separator marker
// between blocks but not after the final one.
func writeDocument(path string, blocks []fileBlock, logger *zap.Logger) error {
	outFile, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output document", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to create output document: %w", err)
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			logger.Error("Failed to close output document", zap.String("file", path), zap.Error(closeErr))
		}
	}()

	writer := bufio.NewWriter(outFile)

	if _, err := writer.WriteString(documentHeader); err != nil {
		return fmt.Errorf("failed to write document header: %w", err)
	}

	for i, block := range blocks {
		if _, err := writer.WriteString(block.RelPath + "\n\n"); err != nil {
			return fmt.Errorf("failed to write block path: %w", err)
		}
		if _, err := writer.WriteString(block.Content); err != nil {
			return fmt.Errorf("failed to write block content: %w", err)
		}
		if i != len(blocks)-1 {
			if _, err := writer.WriteString("\n\n" + FileSeparator + "\n\n"); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output document: %w", err)
	}
	return nil
}
