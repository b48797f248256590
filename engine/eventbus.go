package engine

import (
	"context"
	"sync"

	"learnledger/core"
)

// DispatchMode selects how Publish delivers events to handlers.
type DispatchMode int

const (
	// DispatchSync invokes handlers inline before Publish returns.
	DispatchSync DispatchMode = iota
	// DispatchAsync queues events for a worker pool; full queues drop.
	DispatchAsync
)

const (
	asyncQueueSize = 2048
	asyncWorkers   = 4
)

// EventBus is a typed pub/sub for ledger events. Handlers for one event
// type never see events of another.
type EventBus struct {
	mode DispatchMode

	mu       sync.RWMutex
	handlers map[core.EventType]map[int64]func(context.Context, core.Event)
	lastID   int64

	queue chan core.Event
	stop  chan struct{}
	wg    sync.WaitGroup
}

func NewEventBus(mode DispatchMode) *EventBus {
	b := &EventBus{
		mode:     mode,
		handlers: make(map[core.EventType]map[int64]func(context.Context, core.Event)),
		queue:    make(chan core.Event, asyncQueueSize),
		stop:     make(chan struct{}),
	}
	if mode == DispatchAsync {
		b.wg.Add(asyncWorkers)
		for i := 0; i < asyncWorkers; i++ {
			go b.worker()
		}
	}
	return b
}

func (b *EventBus) worker() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(context.Background(), ev)
		case <-b.stop:
			return
		}
	}
}

// Close stops the async workers and waits for them to exit. In-flight
// queue entries may be discarded.
func (b *EventBus) Close() {
	close(b.stop)
	b.wg.Wait()
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID++
	id := b.lastID
	if b.handlers[typ] == nil {
		b.handlers[typ] = make(map[int64]func(context.Context, core.Event))
	}
	b.handlers[typ][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[typ], id)
	}
}

// Publish delivers an event per the bus dispatch mode. Async publishing
// never blocks: when the queue is full the event is dropped.
func (b *EventBus) Publish(ctx context.Context, ev core.Event) {
	if b.mode == DispatchAsync {
		select {
		case b.queue <- ev:
		default:
		}
		return
	}
	b.deliver(ctx, ev)
}

func (b *EventBus) deliver(ctx context.Context, ev core.Event) {
	b.mu.RLock()
	fns := make([]func(context.Context, core.Event), 0, len(b.handlers[ev.Type]))
	for _, fn := range b.handlers[ev.Type] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
}
