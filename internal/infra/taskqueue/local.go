package taskqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DispatchFunc receives a task when its schedule time arrives.
type DispatchFunc func(ctx context.Context, task NotificationTask)

// VolatileQueue is a queue whose pending tasks do not outlive the process. Has reports
// whether a task is still waiting to fire.
type VolatileQueue interface {
	TaskQueue
	Has(taskID string) bool
}

var _ VolatileQueue = (*LocalQueue)(nil)

// LocalQueue keeps tasks in process and fires each one on its own timer.
// Pending tasks are lost on restart.
type LocalQueue struct {
	dispatch DispatchFunc
	now      func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

type LocalOption func(*LocalQueue)

// WithLocalClock sets the clock timer delays are measured against.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(q *LocalQueue) {
		q.now = now
	}
}

func NewLocalQueue(dispatch DispatchFunc, opts ...LocalOption) *LocalQueue {
	if dispatch == nil {
		dispatch = LogDispatch
	}
	q := &LocalQueue{
		dispatch: dispatch,
		now:      time.Now,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// LogDispatch writes the delivered reminder to the log.
func LogDispatch(ctx context.Context, task NotificationTask) {
	slog.InfoContext(ctx, "reminder delivered",
		slog.String("task_id", task.TaskID),
		slog.String("product_id", task.ProductID),
		slog.String("title", task.Title),
		slog.String("body", task.Body),
	)
}

func (q *LocalQueue) RegisterNotification(_ context.Context, task *NotificationTask) (*TaskResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}
	if _, exists := q.timers[task.TaskID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskAlreadyExists, task.TaskID)
	}

	now := q.now()
	delay := max(task.ScheduleAt.Sub(now), 0)

	snapshot := *task
	q.timers[task.TaskID] = time.AfterFunc(delay, func() {
		q.fire(snapshot)
	})

	scheduleTime := task.ScheduleAt
	if scheduleTime.IsZero() {
		scheduleTime = now
	}

	return &TaskResponse{
		Name:         task.TaskID,
		ScheduleTime: scheduleTime,
		CreateTime:   now,
	}, nil
}

func (q *LocalQueue) DeleteTask(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[taskID]; ok {
		timer.Stop()
		delete(q.timers, taskID)
	}
	return nil
}

func (q *LocalQueue) Has(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.timers[taskID]
	return ok
}

// Pending returns the number of tasks that have not fired yet.
func (q *LocalQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Close stops every pending timer. Later registrations fail with ErrQueueClosed.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.closed = true
	return nil
}

func (q *LocalQueue) fire(task NotificationTask) {
	q.mu.Lock()
	if _, ok := q.timers[task.TaskID]; !ok {
		q.mu.Unlock()
		return
	}
	delete(q.timers, task.TaskID)
	q.mu.Unlock()

	q.dispatch(context.Background(), task)
}
