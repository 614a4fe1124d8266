package service

import (
	"sync"
	"time"
)

// SaveStatus is the surfaced state of a debounced auto-saver. Failed saves
// surface as StatusError and are retried on the next debounce tick; they
// never propagate to the caller.
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusDirty  SaveStatus = "dirty"  // edit scheduled, timer running
	StatusSaving SaveStatus = "saving" // upsert in flight
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error" // last save failed, retryable
)

// SaveFunc persists an auto-save payload and returns the draft id it was
// persisted under. The first successful call binds the id for all
// subsequent saves.
type SaveFunc func(payload DraftPayload) (string, error)

// AutoSaver debounces draft saves: repeated edits within the quiet window
// collapse into a single upsert carrying only the trailing payload. The
// timer handle is owned here, so cancellation does not depend on any
// caller lifecycle.
//
// Ordering per draft is guaranteed two ways: scheduling always stops the
// previous timer before arming a new one, and every fire carries a
// sequence number so a stale in-flight save can never overwrite the
// outcome of a newer one.
type AutoSaver struct {
	mu      sync.Mutex
	delay   time.Duration
	save    SaveFunc
	timer   *time.Timer
	pending DraftPayload
	draftID string
	seq     uint64
	status  SaveStatus
	enabled bool
	closed  bool
}

// NewAutoSaver creates an auto-saver firing after the given quiet window.
func NewAutoSaver(delay time.Duration, save SaveFunc) *AutoSaver {
	return &AutoSaver{
		delay:   delay,
		save:    save,
		status:  StatusIdle,
		enabled: true,
	}
}

// Schedule records an edit and (re)arms the debounce timer. Empty payloads
// never fire. Scheduling after Close or while disabled is a no-op.
func (a *AutoSaver) Schedule(payload DraftPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || !a.enabled {
		return
	}
	if payload.Title == "" && payload.Description == "" && payload.Content == "" {
		return
	}

	// Later edits reuse the draft id bound by the first successful save
	if payload.DraftID == "" {
		payload.DraftID = a.draftID
	}
	a.pending = payload
	a.seq++
	a.status = StatusDirty

	if a.timer != nil {
		a.timer.Stop()
	}
	seq := a.seq
	a.timer = time.AfterFunc(a.delay, func() { a.fire(seq) })
}

// fire runs the save for the edit identified by seq. A newer Schedule
// makes this fire stale; stale fires do nothing.
func (a *AutoSaver) fire(seq uint64) {
	a.mu.Lock()
	if a.closed || !a.enabled || seq != a.seq {
		a.mu.Unlock()
		return
	}
	payload := a.pending
	a.status = StatusSaving
	a.mu.Unlock()

	draftID, err := a.save(payload)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		// Previous persisted state is untouched; the payload stays pending
		// and the next scheduled edit retries.
		if seq == a.seq {
			a.status = StatusError
		}
		return
	}

	if a.draftID == "" {
		a.draftID = draftID
	}
	if seq == a.seq {
		a.status = StatusSaved
	}
}

// Cancel stops any armed timer without tearing the saver down. No save
// fires once cancelled until the next Schedule.
func (a *AutoSaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++ // invalidate any fire already scheduled on the old timer
	if a.status == StatusDirty {
		a.status = StatusIdle
	}
}

// SetEnabled toggles auto-saving. Disabling cancels the armed timer.
func (a *AutoSaver) SetEnabled(enabled bool) {
	a.mu.Lock()
	wasEnabled := a.enabled
	a.enabled = enabled
	a.mu.Unlock()

	if wasEnabled && !enabled {
		a.Cancel()
	}
}

// Close cancels the timer and rejects all further scheduling. Safe to call
// multiple times.
func (a *AutoSaver) Close() {
	a.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Status returns the current save status.
func (a *AutoSaver) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// DraftID returns the draft id bound by the first successful save, or ""
// if nothing has been persisted yet.
func (a *AutoSaver) DraftID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draftID
}
