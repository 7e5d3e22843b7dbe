package battle

import "time"

type queuedAction struct {
	callback func(now time.Time)
	duration time.Duration
	start    time.Time
}

// ActionQueue is a FIFO of delayed actions with at most one current action.
// An action's delay starts when it becomes current; its callback runs on the
// first Update at or after start+duration.
// It is not safe for concurrent use; the battle owns it.
type ActionQueue struct {
	current *queuedAction
	pending []*queuedAction
}

// NewActionQueue creates an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// Enqueue appends cb to run d after it becomes current.
//
// Precondition: cb must not be nil; d >= 0.
func (q *ActionQueue) Enqueue(cb func(now time.Time), d time.Duration) {
	q.pending = append(q.pending, &queuedAction{callback: cb, duration: max(d, 0)})
}

// Update promotes the next pending action if none is current and runs the
// current action if its delay has elapsed.
//
// Postcondition: at most one callback runs per call; returns true iff one ran.
func (q *ActionQueue) Update(now time.Time) bool {
	if q.current == nil {
		if len(q.pending) == 0 {
			return false
		}
		q.current = q.pending[0]
		q.pending = q.pending[1:]
		q.current.start = now
	}
	if now.Sub(q.current.start) < q.current.duration {
		return false
	}
	a := q.current
	q.current = nil
	a.callback(now)
	return true
}

// Busy reports whether an action is current or pending.
func (q *ActionQueue) Busy() bool { return q.current != nil || len(q.pending) > 0 }

// Len returns the number of current and pending actions.
func (q *ActionQueue) Len() int {
	n := len(q.pending)
	if q.current != nil {
		n++
	}
	return n
}

// Clear drops every action without running it.
func (q *ActionQueue) Clear() {
	q.current = nil
	q.pending = nil
}
