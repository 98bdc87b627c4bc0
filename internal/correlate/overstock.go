package correlate

import "sync"

// maxNoProgressRounds is the fixed number of consecutive reclaim passes
// that may complete with zero matches before the queue is forcibly
// emptied.
const maxNoProgressRounds = 5

// Unresolved bounds the overstock queue: Low is the length past which
// Reclaim becomes eligible to run, High is the hard cap past which the
// queue is force-emptied, Step is the minimum growth since the last
// reclaim attempt required to try again. Defaults (9, 99, 3) match the
// original's MAX_UNRESOLVED_LINES.
type Unresolved struct {
	Low, High, Step int
}

// DefaultUnresolved is the default unresolved-line bound.
var DefaultUnresolved = Unresolved{Low: 9, High: 99, Step: 3}

// Item is one line that didn't match any active order on first try.
type Item struct {
	Filename string
	Text     string
}

// Overstock is the bounded, in-memory unresolved-line queue. Items are
// held in arrival order; Reclaim walks them oldest-first and is never
// sorted by content — arrival order is the only ordering this queue guarantees.
type Overstock struct {
	mu     sync.Mutex
	bounds Unresolved
	items  []Item

	lastReclaimLen   int
	noProgressRounds int
}

// NewOverstock constructs an Overstock with the given bounds.
func NewOverstock(bounds Unresolved) *Overstock {
	return &Overstock{bounds: bounds}
}

// Push appends item to the tail of the queue.
func (o *Overstock) Push(item Item) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, item)
}

// Len reports the current queue length.
func (o *Overstock) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// ShouldReclaim reports whether the queue has both passed Low and grown by
// at least Step items since the last reclaim attempt.
func (o *Overstock) ShouldReclaim() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.items)
	return n > o.bounds.Low && n-o.lastReclaimLen >= o.bounds.Step
}

// Reclaim re-attempts each queued item, oldest first, against tryMatch
// (true = matched, remove from the queue). It returns the number of items
// matched. If the queue is over High, or this call and the
// maxNoProgressRounds-1 before it made no progress, the queue is forcibly
// emptied — a diagnostic dump is the caller's responsibility via the
// returned dropped count.
func (o *Overstock) Reclaim(tryMatch func(Item) bool) (matched int, dropped int) {
	o.mu.Lock()
	items := o.items
	o.mu.Unlock()

	remaining := make([]Item, 0, len(items))
	for _, it := range items {
		if tryMatch(it) {
			matched++
			continue
		}
		remaining = append(remaining, it)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.items = remaining
	o.lastReclaimLen = len(o.items)

	if matched == 0 {
		o.noProgressRounds++
	} else {
		o.noProgressRounds = 0
	}

	forceEmpty := len(o.items) > o.bounds.High || o.noProgressRounds >= maxNoProgressRounds
	if forceEmpty {
		dropped = len(o.items)
		o.items = nil
		o.lastReclaimLen = 0
		o.noProgressRounds = 0
	}
	return matched, dropped
}
