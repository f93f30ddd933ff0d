// Package update implements the release feed client, the auto-update state
// machine and the manual version manager.
//
// Feed and install failures never escape as faults: they are converted to
// error status events so the host process keeps running.
package update

import (
	"sync"
)

// StatusType enumerates the status events emitted by the updater.
type StatusType string

const (
	StatusChecking         StatusType = "checking-for-update"
	StatusAvailable        StatusType = "update-available"
	StatusNotAvailable     StatusType = "update-not-available"
	StatusError            StatusType = "error"
	StatusDownloadProgress StatusType = "download-progress"
	StatusDownloaded       StatusType = "update-downloaded"
)

// Progress reports download progress. Percent is monotonic within a single
// download session.
type Progress struct {
	BytesPerSecond float64 `json:"bytesPerSecond"`
	Percent        float64 `json:"percent"`
	Transferred    int64   `json:"transferred"`
	Total          int64   `json:"total"`
}

// Status is the tagged union delivered to subscribers.
type Status struct {
	Type     StatusType `json:"type"`
	Version  string     `json:"version,omitempty"`
	Message  string     `json:"message,omitempty"`
	Progress *Progress  `json:"progress,omitempty"`
}

// Notifier fans status events out to any number of subscribers. Slow
// subscribers lose events rather than block the updater.
type Notifier struct {
	mu   sync.Mutex
	subs []chan Status
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe returns a channel receiving all future status events.
func (n *Notifier) Subscribe() <-chan Status {
	ch := make(chan Status, 32)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

// Publish delivers the event to all subscribers without blocking.
func (n *Notifier) Publish(s Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
