// Package export turns a selection snapshot into one or more flattened text
// documents in the fixed serialization format.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"aiexport/pkg/events"
	"aiexport/pkg/selection"

	"go.uber.org/zap"
)

// Mode selects how the job's files are split into documents.
type Mode int

const (
	// Grouped writes one document per distinct parent-directory key.
	Grouped Mode = iota
	// Single writes exactly one document with every file sorted by path.
	Single
)

func (m Mode) String() string {
	if m == Single {
		return "single"
	}
	return "grouped"
}

// Job describes one export invocation. A job owns no state beyond its own
// execution; at most one job runs at a time per Runner caller.
type Job struct {
	Mode      Mode
	Files     []selection.SelectedFile
	OutputDir string
	RootName  string // base name of the project root, used for document naming
}

// FileError records one per-item failure that did not abort the job.
type FileError struct {
	Path    string
	Message string
}

// Result summarizes a completed job.
type Result struct {
	Documents int
	Files     int
	Written   []string // paths of the documents that were written
	Errors    []FileError
}

// Runner executes export jobs. Reads go through a worker pool; document
// writes stay ordered on the calling goroutine.
type Runner struct {
	MaxWorkers int

	bus    *events.Bus
	logger *zap.Logger
}

// NewRunner creates a runner publishing progress to bus.
func NewRunner(logger *zap.Logger, bus *events.Bus) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{bus: bus, logger: logger}
}

// Run executes the job to completion. Per-file read failures become
// placeholder blocks and Result entries; a document write failure abandons
// that document in Grouped mode and aborts the job in Single mode, since
// there is only one document.
func (r *Runner) Run(job Job) (Result, error) {
	var result Result

	if len(job.Files) == 0 {
		return result, fmt.Errorf("nothing selected for export")
	}
	if job.OutputDir == "" {
		return result, fmt.Errorf("no output directory chosen")
	}
	if err := os.MkdirAll(job.OutputDir, os.ModePerm); err != nil {
		r.bus.Publish(events.Event{Type: events.ExportFailed, Reason: err.Error()})
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	r.bus.Publish(events.Event{Type: events.ExportStarted, Mode: job.Mode.String()})
	r.logger.Info("Starting export",
		zap.String("mode", job.Mode.String()),
		zap.Int("files", len(job.Files)),
		zap.String("outputDir", job.OutputDir))

	blocks, readErrors := r.readAll(job.Files)
	result.Errors = append(result.Errors, readErrors...)

	switch job.Mode {
	case Single:
		sort.Slice(blocks, func(i, j int) bool {
			return blocks[i].RelPath < blocks[j].RelPath
		})
		target := filepath.Join(job.OutputDir, SingleDocumentName(job.RootName))
		if err := writeDocument(target, blocks, r.logger); err != nil {
			r.bus.Publish(events.Event{Type: events.ExportFailed, Reason: err.Error()})
			return result, err
		}
		result.Documents = 1
		result.Files = len(blocks)
		result.Written = append(result.Written, target)

	case Grouped:
		groups := make(map[string][]fileBlock)
		var order []string
		for i, file := range job.Files {
			key := selection.GroupKey(file.RelPath)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], blocks[i])
		}
		sort.Strings(order) // root sentinel sorts first

		for _, key := range order {
			target := filepath.Join(job.OutputDir, GroupFileName(key, job.RootName))
			if err := writeDocument(target, groups[key], r.logger); err != nil {
				r.logger.Error("Abandoning document after write failure",
					zap.String("document", target),
					zap.Error(err))
				result.Errors = append(result.Errors, FileError{Path: target, Message: err.Error()})
				continue
			}
			result.Documents++
			result.Files += len(groups[key])
			result.Written = append(result.Written, target)
		}
	}

	r.bus.Publish(events.Event{
		Type:      events.ExportFinished,
		Documents: result.Documents,
		Files:     result.Files,
	})
	r.logger.Info("Export finished",
		zap.Int("documents", result.Documents),
		zap.Int("files", result.Files),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// readAll reads every selected file through the worker pool, preserving the
// job's file order in the returned blocks. A progress tick is published for
// each completed file.
func (r *Runner) readAll(files []selection.SelectedFile) ([]fileBlock, []FileError) {
	type outcome struct {
		index int
		block fileBlock
		err   error
	}

	maxWorkers := r.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	jobs := make(chan int, len(files))
	results := make(chan outcome, len(files))

	for w := 0; w < maxWorkers; w++ {
		go func() {
			for i := range jobs {
				file := files[i]
				content, wasBinary, err := ReadSafe(file.AbsPath)
				if wasBinary {
					r.logger.Debug("Binary file substituted with placeholder",
						zap.String("filePath", file.AbsPath))
				}
				results <- outcome{
					index: i,
					block: fileBlock{RelPath: filepath.ToSlash(file.RelPath), Content: content},
					err:   err,
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	blocks := make([]fileBlock, len(files))
	var readErrors []FileError
	for done := 1; done <= len(files); done++ {
		out := <-results
		blocks[out.index] = out.block
		if out.err != nil {
			readErrors = append(readErrors, FileError{
				Path:    files[out.index].AbsPath,
				Message: out.err.Error(),
			})
		}
		r.bus.Publish(events.Event{Type: events.FileProcessed, Index: done, Total: len(files)})
	}

	return blocks, readErrors
}
