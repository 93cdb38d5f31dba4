package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanUpdate is a snapshot of scan progress. The scanner emits one per
// fixed file interval, one per warning, and one at completion.
type ScanUpdate struct {
	Phase       Phase
	CurrentPath string
	FilesSeen   int
	DirsSeen    int
	BytesSeen   int64
	Reused      int // unchanged directories whose file records were copied forward
	Warning     string
	StartTime   time.Time
	Error       error
}

// CleanUpdate is a snapshot of cleanup progress.
type CleanUpdate struct {
	Phase       Phase
	CurrentPath string
	Done        int
	Total       int
	FreedBytes  int64
	Failed      int
	StartTime   time.Time
	Error       error
}

// Reporter provides thread-safe progress reporting. Producers call the
// Update methods; consumers receive snapshots on subscribed channels.
type Reporter struct {
	scan      *ScanUpdate
	clean     *CleanUpdate
	mu        sync.RWMutex
	listeners []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan interface{}, 10)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScan records scan progress and notifies listeners
func (r *Reporter) UpdateScan(update *ScanUpdate) {
	r.mu.Lock()
	r.scan = update
	listeners := make([]chan interface{}, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	// Notify all listeners (non-blocking)
	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// UpdateClean records cleanup progress and notifies listeners
func (r *Reporter) UpdateClean(update *CleanUpdate) {
	r.mu.Lock()
	r.clean = update
	listeners := make([]chan interface{}, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// ScanSnapshot returns the latest scan progress
func (r *Reporter) ScanSnapshot() *ScanUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scan
}

// CleanSnapshot returns the latest cleanup progress
func (r *Reporter) CleanSnapshot() *CleanUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clean
}

// FormatScan returns a human-readable scan progress line
func FormatScan(u *ScanUpdate) string {
	if u == nil {
		return "Initializing..."
	}

	elapsed := time.Since(u.StartTime)

	switch u.Phase {
	case PhaseScanning:
		if u.Warning != "" {
			return fmt.Sprintf("Warning: %s", u.Warning)
		}
		return fmt.Sprintf("Scanning %s... %d files, %d dirs (%s) [%s]",
			u.CurrentPath,
			u.FilesSeen,
			u.DirsSeen,
			humanize.IBytes(uint64(u.BytesSeen)),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d files, %d dirs (%s) in %s, %d dirs reused",
			u.FilesSeen,
			u.DirsSeen,
			humanize.IBytes(uint64(u.BytesSeen)),
			FormatDuration(elapsed),
			u.Reused)
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", u.Error)
	default:
		return "Scanning..."
	}
}

// FormatClean returns a human-readable cleanup progress line
func FormatClean(u *CleanUpdate) string {
	if u == nil {
		return "Preparing..."
	}

	elapsed := time.Since(u.StartTime)

	switch u.Phase {
	case PhaseCleaning:
		percentage := 0
		if u.Total > 0 {
			percentage = (u.Done * 100) / u.Total
		}
		return fmt.Sprintf("Cleaning... %d/%d (%d%%) - %s freed",
			u.Done,
			u.Total,
			percentage,
			humanize.IBytes(uint64(u.FreedBytes)))
	case PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %d moved to trash (%s) in %s, %d failed",
			u.Done,
			humanize.IBytes(uint64(u.FreedBytes)),
			FormatDuration(elapsed),
			u.Failed)
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", u.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
