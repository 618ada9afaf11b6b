package realtime

import (
	"context"
	"fmt"
	"sync"
)

// Bus carries events between instances. Publish may be called from any
// request goroutine; StartForwarder delivers everything published to onEvent.
type Bus interface {
	Publisher
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}

type localBus struct {
	mu       sync.RWMutex
	handlers []func(ev Event)
	closed   bool
}

// NewLocalBus is the single-instance bus used when no Redis is configured.
func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("local bus closed")
	}
	handlers := append([]func(Event){}, b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("local bus closed")
	}
	b.handlers = append(b.handlers, onEvent)
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
