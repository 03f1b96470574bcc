package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue keeps one timer per task inside the process. Pending tasks are
// lost on restart; the sweeper picks up what they would have done.
type MemoryQueue struct {
	router *Router

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewMemoryQueue(router *Router) *MemoryQueue {
	return &MemoryQueue{router: router, timers: make(map[string]*time.Timer)}
}

func (q *MemoryQueue) Schedule(_ context.Context, kind Kind, entityID uuid.UUID, delay time.Duration) error {
	task := NewTask(kind, entityID, time.Now().Add(delay))

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.timers[task.ID] = time.AfterFunc(delay, func() { q.fire(task) })
	return nil
}

func (q *MemoryQueue) fire(task Task) {
	q.mu.Lock()
	delete(q.timers, task.ID)
	q.mu.Unlock()

	_ = q.router.Run(context.Background(), task)
}

func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Close stops every pending timer.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}
