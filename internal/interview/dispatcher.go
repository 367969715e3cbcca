package interview

import (
	"context"
	"sync"
)

// Handler processes one candidate message. *Engine is the production
// implementation.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) (string, error)
}

// Dispatcher serializes message handling per candidate: concurrent messages
// from the same external user run one at a time, in arrival order, while
// different candidates proceed in parallel.
type Dispatcher struct {
	handler Handler

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewDispatcher wraps a handler with per-candidate serialization.
func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Handle runs the handler under the candidate's lock.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (string, error) {
	lock := d.candidateLock(msg.ExternalUserID)
	lock.Lock()
	defer lock.Unlock()
	return d.handler.HandleMessage(ctx, msg)
}

func (d *Dispatcher) candidateLock(externalID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[externalID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[externalID] = lock
	}
	return lock
}
