// Package watch implements the live re-export controller: it subscribes to
// change notifications for the selected files, coalesces bursts with a
// debounce window, and re-runs the Single-mode export once per burst.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aiexport/pkg/events"
	"aiexport/pkg/export"
	"aiexport/pkg/selection"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet window required before a re-export fires.
const DefaultDebounce = 500 * time.Millisecond

// Controller drives one live session. It is constructed fresh per session
// and discarded after Stop; it is not reusable.
type Controller struct {
	runner   *export.Runner
	bus      *events.Bus
	logger   *zap.Logger
	debounce time.Duration

	watcher    *fsnotify.Watcher
	watched    map[string]struct{} // intended subscription set
	outputPath string              // the Single-mode document this session writes
	job        export.Job

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewController creates an idle controller. A non-positive debounce falls
// back to DefaultDebounce.
func NewController(runner *export.Runner, bus *events.Bus, logger *zap.Logger, debounce time.Duration) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		runner:   runner,
		bus:      bus,
		logger:   logger,
		debounce: debounce,
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Start enters live mode: it subscribes to exactly the snapshot's absolute
// paths, runs one Single-mode export synchronously as the baseline, and
// then reacts to change notifications until Stop. Preconditions: a root, an
// output directory and at least one selected file.
func (c *Controller) Start(snap selection.Snapshot, rootDir, outputDir string) error {
	if rootDir == "" {
		return fmt.Errorf("no project root chosen")
	}
	if outputDir == "" {
		return fmt.Errorf("no output directory chosen")
	}
	if snap.FileCount == 0 {
		return fmt.Errorf("nothing selected to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	c.watcher = watcher

	rootName := filepath.Base(filepath.Clean(rootDir))
	c.outputPath = filepath.Join(outputDir, export.SingleDocumentName(rootName))
	c.job = export.Job{
		Mode:      export.Single,
		Files:     snap.Files,
		OutputDir: outputDir,
		RootName:  rootName,
	}

	for _, file := range snap.Files {
		if err := watcher.Add(file.AbsPath); err != nil {
			c.logger.Warn("Failed to subscribe to path, continuing without it",
				zap.String("path", file.AbsPath),
				zap.Error(err))
			c.bus.Publish(events.Event{Type: events.WatchError, Path: file.AbsPath, Reason: err.Error()})
			continue
		}
		c.watched[file.AbsPath] = struct{}{}
	}

	// Baseline export. A failure is reported but does not abort the
	// session; live mode keeps trying on subsequent changes.
	if _, err := c.runner.Run(c.job); err != nil {
		c.logger.Error("Baseline export failed", zap.Error(err))
	}

	c.bus.Publish(events.Event{Type: events.WatchStarted, Files: len(c.watched)})
	c.logger.Info("Live mode started",
		zap.Int("watchedFiles", len(c.watched)),
		zap.Duration("debounce", c.debounce))

	c.wg.Add(1)
	go c.loop()
	return nil
}

// Stop leaves live mode: all subscriptions are removed, any armed debounce
// timer is cancelled, and no further exports fire. Safe to call more than
// once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.watcher != nil {
			if err := c.watcher.Close(); err != nil {
				c.logger.Warn("Failed to close file watcher", zap.Error(err))
			}
		}
		c.wg.Wait()
		c.bus.Publish(events.Event{Type: events.WatchStopped})
		c.logger.Info("Live mode stopped")
	})
}

// loop is the controller goroutine: it owns the debounce timer and runs
// every re-export, so at most one export executes at a time even under
// notification storms.
func (c *Controller) loop() {
	defer c.wg.Done()

	timer := time.NewTimer(c.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !c.accept(ev) {
				continue
			}
			resetTimer(timer, c.debounce)

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("Watcher error", zap.Error(err))
			c.bus.Publish(events.Event{Type: events.WatchError, Reason: err.Error()})

		case <-timer.C:
			if _, err := c.runner.Run(c.job); err != nil {
				// Reported, not fatal: only an explicit Stop leaves
				// live mode.
				c.logger.Error("Re-export failed", zap.Error(err))
			}

		case <-c.done:
			return
		}
	}
}

// accept filters one notification. Events for the session's own output
// document are discarded so the controller never reacts to its own writes.
// A path that still exists on disk but fell out of the underlying
// subscription (delete-then-recreate atomic saves) is re-added before the
// debounce timer starts.
func (c *Controller) accept(ev fsnotify.Event) bool {
	path := filepath.Clean(ev.Name)

	if path == filepath.Clean(c.outputPath) {
		return false
	}
	if _, ours := c.watched[path]; !ours {
		return false
	}

	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		if _, err := os.Stat(path); err == nil {
			if err := c.watcher.Add(path); err != nil {
				c.logger.Warn("Failed to re-subscribe recreated path",
					zap.String("path", path),
					zap.Error(err))
				c.bus.Publish(events.Event{Type: events.WatchError, Path: path, Reason: err.Error()})
			} else {
				c.logger.Debug("Re-subscribed recreated path", zap.String("path", path))
			}
		}
	}

	c.bus.Publish(events.Event{Type: events.ChangeDetected, Path: path})
	c.logger.Debug("Change detected", zap.String("path", path), zap.String("op", ev.Op.String()))
	return true
}

// resetTimer re-arms the debounce window, draining a stale tick first.
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
