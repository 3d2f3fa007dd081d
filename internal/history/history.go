// Package history defines the boundary to the undo/redo ledger.
//
// The ledger itself lives outside the engine; the engine only promises
// to hand it at most one change record per user gesture and to ask for
// the last recorded state when rolling back. MemoryLedger is a minimal
// in-process implementation used by the demo binary and the tests.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moviola/engine/internal/model"
)

// Change is one atomic change record: a complete user gesture's worth of
// mutation, however many fields it touched.
type Change struct {
	ID          string
	Description string
	ShotID      string
	Before      model.Shot
	After       model.Shot
	At          time.Time
}

// NewChange stamps a change record with an id and timestamp.
func NewChange(description, shotID string, before, after model.Shot) Change {
	return Change{
		ID:          uuid.New().String(),
		Description: description,
		ShotID:      shotID,
		Before:      before,
		After:       after,
		At:          time.Now(),
	}
}

// Recorder receives atomic change records. Record is called at most once
// per user gesture.
type Recorder interface {
	Record(change Change)
}

// MemoryLedger is a bounded in-memory change ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	changes []Change
	limit   int
}

// NewMemoryLedger creates a ledger keeping at most limit entries; older
// entries fall off the front.
func NewMemoryLedger(limit int) *MemoryLedger {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryLedger{limit: limit}
}

// Record appends one change record.
func (l *MemoryLedger) Record(change Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, change)
	if len(l.changes) > l.limit {
		l.changes = l.changes[len(l.changes)-l.limit:]
	}
}

// Last returns the most recent change, if any.
func (l *MemoryLedger) Last() (Change, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.changes) == 0 {
		return Change{}, false
	}
	return l.changes[len(l.changes)-1], true
}

// Pop removes and returns the most recent change. Rolling a store back
// to change.Before is the caller's business.
func (l *MemoryLedger) Pop() (Change, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.changes) == 0 {
		return Change{}, false
	}
	c := l.changes[len(l.changes)-1]
	l.changes = l.changes[:len(l.changes)-1]
	return c, true
}

// Len reports the number of recorded changes.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.changes)
}
