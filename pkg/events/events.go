// Package events provides the event bus that carries scan, export and watch
// progress notifications to whatever presentation layer is listening.
package events

import (
	"sync"
	"time"
)

// Event types published by the core packages.
const (
	ScanStarted    = "scan_started"
	ScanFinished   = "scan_finished"
	ScanWarning    = "scan_warning"
	ExportStarted  = "export_started"
	FileProcessed  = "file_processed"
	ExportFinished = "export_finished"
	ExportFailed   = "export_failed"
	WatchStarted   = "watch_started"
	WatchStopped   = "watch_stopped"
	ChangeDetected = "change_detected"
	WatchError     = "watch_error"
)

// Event represents one discrete log-worthy occurrence in the export pipeline.
// Only the fields relevant to the event type are populated.
type Event struct {
	Type      string
	Path      string // affected path (ScanWarning, ChangeDetected, WatchError)
	Mode      string // export mode (ExportStarted)
	Index     int    // 1-based file index within the job (FileProcessed)
	Total     int    // total files in the job (FileProcessed)
	Files     int    // file count (ScanFinished, ExportFinished, WatchStarted)
	Dirs      int    // directory count (ScanFinished)
	Documents int    // documents written (ExportFinished)
	Reason    string // failure description (ExportFailed, WatchError)
	Timestamp int64
}

// Bus fans events out to subscribers. Publishing never blocks: events are
// dropped for subscribers that cannot keep up.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan Event]struct{})}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers. A nil bus is a valid no-op
// target so core packages can run without any listener attached.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// Count returns the current number of subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
