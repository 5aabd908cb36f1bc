// control/journal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded journal of bring-up and dispatch events. The newest events win:
// once the limit is reached, recording pushes the oldest event out.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Event is one journaled occurrence on one core.
type Event struct {
	Time time.Time
	Core int
	Msg  string
}

// Journal is a fixed-length FIFO of events, safe for concurrent use.
type Journal struct {
	mu    sync.Mutex
	q     *queue.Queue
	limit int
}

// NewJournal creates a journal keeping at most limit events.
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 256
	}
	return &Journal{q: queue.New(), limit: limit}
}

// Record appends a formatted event for the given core.
func (j *Journal) Record(core int, format string, args ...any) {
	ev := Event{Time: time.Now(), Core: core, Msg: fmt.Sprintf(format, args...)}
	j.mu.Lock()
	if j.q.Length() == j.limit {
		j.q.Remove()
	}
	j.q.Add(ev)
	j.mu.Unlock()
}

// Snapshot returns the retained events, oldest first.
func (j *Journal) Snapshot() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, j.q.Length())
	for i := range out {
		out[i] = j.q.Get(i).(Event)
	}
	return out
}

// Len returns the number of retained events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.q.Length()
}
