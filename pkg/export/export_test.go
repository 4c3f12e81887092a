package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aiexport/pkg/events"
	"aiexport/pkg/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject builds the scenario tree: a.py and sub/b.py as text,
// sub/c.bin as binary content.
func setupProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("print('a')\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.py"), []byte("print('b')\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.bin"), []byte{0x7F, 0x00, 0x01}, 0644))
	return root
}

func selected(root string, rels ...string) []selection.SelectedFile {
	files := make([]selection.SelectedFile, len(rels))
	for i, rel := range rels {
		files[i] = selection.SelectedFile{
			RelPath: filepath.FromSlash(rel),
			AbsPath: filepath.Join(root, filepath.FromSlash(rel)),
		}
	}
	return files
}

// splitBlocks splits a document body (after the header) on the separator.
func splitBlocks(t *testing.T, docPath string) []string {
	t.Helper()
	data, err := os.ReadFile(docPath)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, documentHeader), "document must start with the fixed header")
	body := strings.TrimPrefix(text, documentHeader)
	return strings.Split(body, "\n\n"+FileSeparator+"\n\n")
}

func TestSingleExportScenario(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	runner := NewRunner(nil, nil)

	result, err := runner.Run(Job{
		Mode:      Single,
		Files:     selected(root, "sub/b.py", "a.py"), // deliberately unsorted
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, 2, result.Files)
	assert.Empty(t, result.Errors)

	docPath := filepath.Join(outDir, "proj_all.txt")
	blocks := splitBlocks(t, docPath)
	require.Len(t, blocks, 2)

	// Sorted by relative path: a.py before sub/b.py, forward slashes.
	assert.Equal(t, "a.py", strings.SplitN(blocks[0], "\n", 2)[0])
	assert.Equal(t, "sub/b.py", strings.SplitN(blocks[1], "\n", 2)[0])
	assert.Equal(t, "a.py\n\nprint('a')\n", blocks[0])

	// No trailing marker after the final file.
	data, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(strings.TrimRight(string(data), "\n"), FileSeparator))
}

func TestGroupedExportScenario(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	runner := NewRunner(nil, nil)

	result, err := runner.Run(Job{
		Mode:      Grouped,
		Files:     selected(root, "a.py", "sub/b.py"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.Equal(t, 2, result.Files)

	rootDoc := splitBlocks(t, filepath.Join(outDir, "proj.txt"))
	require.Len(t, rootDoc, 1)
	assert.Equal(t, "a.py", strings.SplitN(rootDoc[0], "\n", 2)[0])

	subDoc := splitBlocks(t, filepath.Join(outDir, "sub.txt"))
	require.Len(t, subDoc, 1)
	assert.Equal(t, "sub/b.py", strings.SplitN(subDoc[0], "\n", 2)[0])
}

func TestBinaryFileExportsPlaceholder(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	runner := NewRunner(nil, nil)

	_, err := runner.Run(Job{
		Mode:      Single,
		Files:     selected(root, "sub/c.bin"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err)

	blocks := splitBlocks(t, filepath.Join(outDir, "proj_all.txt"))
	require.Len(t, blocks, 1)
	assert.Equal(t, "sub/c.bin\n\n"+BinaryPlaceholder, blocks[0])
}

func TestExportIsByteIdenticalOnRerun(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	runner := NewRunner(nil, nil)
	job := Job{
		Mode:      Single,
		Files:     selected(root, "a.py", "sub/b.py"),
		OutputDir: outDir,
		RootName:  "proj",
	}

	_, err := runner.Run(job)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(outDir, "proj_all.txt"))
	require.NoError(t, err)

	_, err = runner.Run(job)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outDir, "proj_all.txt"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReadFailureBecomesPlaceholderAndError(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	runner := NewRunner(nil, nil)

	result, err := runner.Run(Job{
		Mode:      Single,
		Files:     selected(root, "a.py", "missing.py"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err, "a single unreadable file must not abort the job")
	assert.Equal(t, 2, result.Files)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, filepath.Join(root, "missing.py"), result.Errors[0].Path)

	blocks := splitBlocks(t, filepath.Join(outDir, "proj_all.txt"))
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[1], "<<Failed to read file:")
}

func TestExportPublishesProgress(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()

	bus := events.NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	runner := NewRunner(nil, bus)
	_, err := runner.Run(Job{
		Mode:      Single,
		Files:     selected(root, "a.py", "sub/b.py"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err)

	var started, ticks, finished int
	for done := false; !done; {
		select {
		case ev := <-ch:
			switch ev.Type {
			case events.ExportStarted:
				started++
				assert.Equal(t, "single", ev.Mode)
			case events.FileProcessed:
				ticks++
				assert.Equal(t, 2, ev.Total)
			case events.ExportFinished:
				finished++
				assert.Equal(t, 1, ev.Documents)
				assert.Equal(t, 2, ev.Files)
				done = true
			}
		default:
			done = true
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 1, finished)
}

func TestGroupedWriteFailureAbandonsDocument(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()

	// A directory squatting on sub.txt makes that document unwritable.
	require.NoError(t, os.Mkdir(filepath.Join(outDir, "sub.txt"), 0755))

	runner := NewRunner(nil, nil)
	result, err := runner.Run(Job{
		Mode:      Grouped,
		Files:     selected(root, "a.py", "sub/b.py"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.NoError(t, err)

	// The root group survives; the sub group is abandoned and recorded.
	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, []string{filepath.Join(outDir, "proj.txt")}, result.Written)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, filepath.Join(outDir, "sub.txt"), result.Errors[0].Path)

	blocks := splitBlocks(t, filepath.Join(outDir, "proj.txt"))
	require.Len(t, blocks, 1)
	assert.Equal(t, "a.py", strings.SplitN(blocks[0], "\n", 2)[0])
}

func TestSingleWriteFailureAbortsJob(t *testing.T) {
	root := setupProject(t)
	outDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(outDir, "proj_all.txt"), 0755))

	bus := events.NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	runner := NewRunner(nil, bus)
	result, err := runner.Run(Job{
		Mode:      Single,
		Files:     selected(root, "a.py"),
		OutputDir: outDir,
		RootName:  "proj",
	})
	require.Error(t, err)
	assert.Equal(t, 0, result.Documents)
	assert.Empty(t, result.Written)

	var failed int
	for done := false; !done; {
		select {
		case ev := <-ch:
			if ev.Type == events.ExportFailed {
				failed++
				assert.NotEmpty(t, ev.Reason)
			}
		default:
			done = true
		}
	}
	assert.Equal(t, 1, failed)
}

func TestEmptyJobRejected(t *testing.T) {
	runner := NewRunner(nil, nil)
	_, err := runner.Run(Job{Mode: Single, OutputDir: t.TempDir(), RootName: "proj"})
	require.Error(t, err)
}

func TestMissingOutputDirRejected(t *testing.T) {
	root := setupProject(t)
	runner := NewRunner(nil, nil)
	_, err := runner.Run(Job{Mode: Single, Files: selected(root, "a.py"), RootName: "proj"})
	require.Error(t, err)
}
