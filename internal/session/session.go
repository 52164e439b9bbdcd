// Package session tracks which document a conversation is about.
package session

import (
	"sync"

	"github.com/liliang-cn/pdfinsight/internal/domain"
)

// Snapshot is a point-in-time copy of the document session
type Snapshot struct {
	Name        string
	HasDocument bool
	Submitting  bool
}

// Document holds the active document identity and the submission flag.
// The zero value has no document and nothing in flight.
type Document struct {
	mu         sync.Mutex
	name       string
	active     bool
	submitting bool
}

// BeginSubmission marks a submission as in flight. Submissions are never queued.
func (d *Document) BeginSubmission() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submitting {
		return domain.ErrAlreadyInFlight
	}
	d.submitting = true
	return nil
}

// CompleteSubmission makes filename the active document
func (d *Document) CompleteSubmission(filename string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.name = filename
	d.active = true
	d.submitting = false
}

// FailSubmission ends the submission and keeps any previously active document
func (d *Document) FailSubmission() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.submitting = false
}

// Name returns the active document name, if any
func (d *Document) Name() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.name, d.active
}

// Snapshot returns the current state
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		Name:        d.name,
		HasDocument: d.active,
		Submitting:  d.submitting,
	}
}
