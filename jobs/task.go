package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindExpireOrder Kind = "expire_order"
	KindExpireOffer Kind = "expire_offer"
)

var (
	ErrUnknownKind = errors.New("no handler for job kind")
	ErrQueueClosed = errors.New("job queue closed")
)

type Task struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	EntityID uuid.UUID `json:"entity_id"`
	DueAt    time.Time `json:"due_at"`
}

func NewTask(kind Kind, entityID uuid.UUID, dueAt time.Time) Task {
	return Task{ID: uuid.NewString(), Kind: kind, EntityID: entityID, DueAt: dueAt}
}

// Scheduler runs a job for an entity once the delay has passed. Jobs are
// advisory: handlers check the entity state when they fire.
type Scheduler interface {
	Schedule(ctx context.Context, kind Kind, entityID uuid.UUID, delay time.Duration) error
}

type Handler func(ctx context.Context, entityID uuid.UUID) error

// Router dispatches due tasks to the handler registered for their kind.
// Failures are logged and dead-lettered, never retried.
type Router struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	dead     DeadLetter
	log      *logrus.Logger
	timeout  time.Duration
}

func NewRouter(dead DeadLetter, log *logrus.Logger) *Router {
	if dead == nil {
		dead = NewLogDeadLetter(log)
	}
	return &Router{
		handlers: make(map[Kind]Handler),
		dead:     dead,
		log:      log,
		timeout:  30 * time.Second,
	}
}

func (r *Router) Handle(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Router) Run(ctx context.Context, task Task) (err error) {
	r.mu.RLock()
	h, ok := r.handlers[task.Kind]
	r.mu.RUnlock()

	fields := logrus.Fields{"job_id": task.ID, "kind": task.Kind, "entity_id": task.EntityID}

	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownKind, task.Kind)
	} else {
		err = r.invoke(ctx, h, task)
	}
	if err == nil {
		r.log.WithFields(fields).Debug("job done")
		return nil
	}

	r.log.WithFields(fields).WithError(err).Error("job failed")
	if dlErr := r.dead.Publish(ctx, task, err); dlErr != nil {
		r.log.WithFields(fields).WithError(dlErr).Error("dead letter publish failed")
	}
	return err
}

func (r *Router) invoke(ctx context.Context, h Handler, task Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return h(ctx, task.EntityID)
}
