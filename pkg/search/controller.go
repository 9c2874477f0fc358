// Package search holds the debounced query controller and the pure filter
// predicate backing the journal list.
package search

import (
	"strings"
	"sync"
	"time"

	"github.com/aryasaputra/journalvault/pkg/classify"
	"github.com/aryasaputra/journalvault/pkg/types"
)

// DefaultDelay keeps heavy refiltering off the per-keystroke path.
const DefaultDelay = 275 * time.Millisecond

// Controller debounces raw query input before committing it to the active
// filter. Every new keystroke cancels and replaces the pending timer, so
// only the last value within a burst is committed (no stale queries).
// Composition-in-progress input is held back entirely; only the finalized
// composition result is scheduled.
type Controller struct {
	mu        sync.Mutex
	delay     time.Duration
	timer     *time.Timer
	composing bool
	commit    func(query string)
}

func NewController(delay time.Duration, commit func(query string)) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Controller{delay: delay, commit: commit}
}

// OnQueryChange schedules raw for commit after the debounce delay.
func (c *Controller) OnQueryChange(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.composing {
		return
	}
	c.schedule(raw)
}

// CompositionStart marks the beginning of an IME composition; keystrokes
// until CompositionEnd are partial and must not become queries.
func (c *Controller) CompositionStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composing = true
	c.stopTimer()
}

// CompositionEnd finalizes a composition and schedules its result.
func (c *Controller) CompositionEnd(final string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composing = false
	c.schedule(final)
}

// Stop cancels any pending commit.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
}

func (c *Controller) schedule(raw string) {
	c.stopTimer()
	c.timer = time.AfterFunc(c.delay, func() {
		c.commit(raw)
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Matches is the pure filter predicate: case-insensitive substring match
// on title or original name, plus optional category equality.
func Matches(rec *types.FileRecord, query string, category types.Category) bool {
	if category != "" && classify.Classify(rec.MimeType, rec.OriginalName) != category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if rec.Title != nil && strings.Contains(strings.ToLower(*rec.Title), q) {
		return true
	}
	return strings.Contains(strings.ToLower(rec.OriginalName), q)
}
