// Package schedule provides cooperative timers for single-threaded UI code.
//
// A Queue holds tasks with deadlines. Nothing runs on its own: the owner
// calls RunDue from its event loop (a bubbletea tick, or a test advancing
// a manual clock), so task callbacks never race with the code that
// scheduled them. Each scheduled task returns a handle that can cancel it.
package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock func() time.Time

// Scheduler schedules fn to run d after now.
type Scheduler interface {
	After(d time.Duration, fn func()) *Task
	Now() time.Time
}

// Task is a handle to a scheduled callback.
type Task struct {
	id       uint64
	label    string
	deadline time.Time
	fn       func()
	index    int
	state    taskState
	q        *Queue
}

type taskState int

const (
	taskPending taskState = iota
	taskDone
	taskCancelled
)

// Cancel removes the task if it has not run yet. It reports whether the
// call prevented the task from running. Cancel on a nil task is a no-op.
func (t *Task) Cancel() bool {
	if t == nil || t.q == nil {
		return false
	}
	return t.q.cancel(t)
}

// Pending reports whether the task is still waiting to run.
func (t *Task) Pending() bool {
	if t == nil || t.q == nil {
		return false
	}
	t.q.mu.Lock()
	defer t.q.mu.Unlock()
	return t.state == taskPending
}

// Deadline returns when the task is due.
func (t *Task) Deadline() time.Time { return t.deadline }

// Label returns the name given with AfterLabeled.
func (t *Task) Label() string { return t.label }

// Queue is a deadline-ordered set of tasks. Tasks with equal deadlines run
// in scheduling order.
type Queue struct {
	mu    sync.Mutex
	clock Clock
	tasks taskHeap
	seq   uint64
}

// NewQueue creates a queue driven by clock. A nil clock uses time.Now.
func NewQueue(clock Clock) *Queue {
	if clock == nil {
		clock = time.Now
	}
	return &Queue{clock: clock}
}

// Now returns the queue's notion of the current time.
func (q *Queue) Now() time.Time { return q.clock() }

// After schedules fn to run once d has elapsed.
func (q *Queue) After(d time.Duration, fn func()) *Task {
	return q.AfterLabeled("", d, fn)
}

// AfterLabeled is After with a label for debugging and tests.
func (q *Queue) AfterLabeled(label string, d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	t := &Task{
		id:       q.seq,
		label:    label,
		deadline: q.clock().Add(d),
		fn:       fn,
		q:        q,
	}
	heap.Push(&q.tasks, t)
	return t
}

func (q *Queue) cancel(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.state != taskPending {
		return false
	}
	t.state = taskCancelled
	heap.Remove(&q.tasks, t.index)
	return true
}

// RunDue runs every task whose deadline is not after the current time, in
// deadline order, and returns how many ran. Tasks scheduled by a callback
// run in the same call if they are already due.
func (q *Queue) RunDue() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 || q.tasks[0].deadline.After(q.clock()) {
			q.mu.Unlock()
			return ran
		}
		t := heap.Pop(&q.tasks).(*Task)
		t.state = taskDone
		q.mu.Unlock()

		if t.fn != nil {
			t.fn()
		}
		ran++
	}
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// NextDeadline returns the earliest pending deadline.
func (q *Queue) NextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return time.Time{}, false
	}
	return q.tasks[0].deadline, true
}

// PendingLabels lists labels of pending tasks in deadline order.
func (q *Queue) PendingLabels() []string {
	q.mu.Lock()
	cp := make(taskHeap, len(q.tasks))
	copy(cp, q.tasks)
	q.mu.Unlock()

	out := make([]string, 0, len(cp))
	for len(cp) > 0 {
		// Pop from the copy without disturbing task indices.
		best := 0
		for i := range cp {
			if cp.less(cp[i], cp[best]) {
				best = i
			}
		}
		out = append(out, cp[best].label)
		cp = append(cp[:best], cp[best+1:]...)
	}
	return out
}

type taskHeap []*Task

func (h taskHeap) less(a, b *Task) bool {
	if a.deadline.Equal(b.deadline) {
		return a.id < b.id
	}
	return a.deadline.Before(b.deadline)
}

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h.less(h[i], h[j]) }
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
