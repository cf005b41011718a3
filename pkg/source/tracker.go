package source

import "sync"

// Ticket identifies one generation of inputs handed out by a Tracker.
type Ticket uint64

// Tracker tracks which inputs are current so stale completions can be
// discarded. The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	current Ticket
}

// Next returns a ticket for the latest inputs. Every call supersedes all
// earlier tickets, even when the inputs did not change.
func (t *Tracker) Next() Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	return t.current
}

// Current reports whether tk is still the latest ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk == t.current
}
