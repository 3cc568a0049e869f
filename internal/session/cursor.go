// Package session owns the per-operator review loop: the pagination
// cursor over the document set and the orchestration of load, scale,
// reconcile and persist for each operator action.
package session

import (
	"fmt"

	"github.com/curalab/invoice-curator/internal/annotation"
)

// Mover is the store-side effect of cursor movement: completing a
// document promotes its record to the curated stage, and navigating back
// demotes it again.
type Mover interface {
	Promote(name string) error
	Demote(name string) error
}

// Cursor tracks review progress over one label's document set. It is
// owned by a single session and never shared; a second operator needs a
// second cursor.
type Cursor struct {
	pending []string
	curated []string
	skip    map[string]bool
	mover   Mover
}

// NewCursor creates a cursor over the given record names, in review
// order.
func NewCursor(names []string, mover Mover) *Cursor {
	pending := make([]string, len(names))
	copy(pending, names)
	return &Cursor{
		pending: pending,
		skip:    make(map[string]bool),
		mover:   mover,
	}
}

// Current returns the record at the front of the pending queue.
func (c *Cursor) Current() (string, bool) {
	if len(c.pending) == 0 {
		return "", false
	}
	return c.pending[0], true
}

// Done reports whether every document has been advanced past.
func (c *Cursor) Done() bool {
	return len(c.pending) == 0
}

// AtStart reports whether no document has been completed yet.
func (c *Cursor) AtStart() bool {
	return len(c.curated) == 0
}

// Counts returns how many documents are completed and how many remain.
func (c *Cursor) Counts() (done, left int) {
	return len(c.curated), len(c.pending)
}

// MarkSkip flags a record so advance and retreat pass over it without
// stopping.
func (c *Cursor) MarkSkip(name string) {
	c.skip[name] = true
}

// Advance completes the current document: it moves from the front of the
// pending queue to the back of the curated queue and its record is
// promoted. Records flagged for skipping are passed over in the same
// call; the loop is bounded by the queue length.
func (c *Cursor) Advance() error {
	if len(c.pending) == 0 {
		return annotation.NewValidationError("cannot advance: no documents pending", nil)
	}

	if err := c.step(); err != nil {
		return err
	}
	for len(c.pending) > 0 && c.skip[c.pending[0]] {
		if err := c.step(); err != nil {
			return err
		}
	}
	return nil
}

// step moves exactly one document forward.
func (c *Cursor) step() error {
	name := c.pending[0]
	if err := c.mover.Promote(name); err != nil {
		return fmt.Errorf("promoting %s: %w", name, err)
	}
	c.pending = c.pending[1:]
	c.curated = append(c.curated, name)
	return nil
}

// Retreat reopens the most recently completed document: it moves from
// the back of the curated queue to the front of the pending queue and
// its record is demoted. Skipped records are passed over the same way
// advance passes over them.
func (c *Cursor) Retreat() error {
	if len(c.curated) == 0 {
		return annotation.NewValidationError("cannot retreat: no documents completed", nil)
	}

	if err := c.stepBack(); err != nil {
		return err
	}
	for len(c.curated) > 0 && c.skip[c.pending[0]] {
		if err := c.stepBack(); err != nil {
			return err
		}
	}
	return nil
}

// stepBack moves exactly one document backward.
func (c *Cursor) stepBack() error {
	name := c.curated[len(c.curated)-1]
	if err := c.mover.Demote(name); err != nil {
		return fmt.Errorf("demoting %s: %w", name, err)
	}
	c.curated = c.curated[:len(c.curated)-1]
	c.pending = append([]string{name}, c.pending...)
	return nil
}
