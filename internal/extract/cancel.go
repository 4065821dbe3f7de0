package extract

import "sync/atomic"

// CancelFlag is the cooperative cancellation flag checked between
// key-node iterations (spec §4.6 "Progress and cancellation" / §5
// "Cancellation is cooperative: the caller sets a quit flag observed by
// the extractor between key-node iterations. In-flight walks complete").
type CancelFlag struct {
	quit atomic.Bool
}

// Cancel requests the extractor stop at the next key-node boundary.
func (c *CancelFlag) Cancel() { c.quit.Store(true) }

// Requested reports whether cancellation has been requested.
func (c *CancelFlag) Requested() bool { return c.quit.Load() }
