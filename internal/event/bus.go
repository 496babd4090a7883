package event

import (
	"log/slog"
	"sync"
)

type HandlerFunc func(raw any)

// Bus delivers each published event to its subscribers on separate
// goroutines. Publishers never wait for handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
	}
}

func (b *Bus) Subscribe(eventName string, handler HandlerFunc) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *Bus) Publish(eventName string, evt any) {
	b.mu.RLock()
	handlers := make([]HandlerFunc, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.inflight.Add(1)
		go func(h HandlerFunc) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Event handler panicked", "event", eventName, "panic", r)
				}
			}()
			h(evt)
		}(handler)
	}
}

// Drain blocks until every handler started by Publish so far has returned.
func (b *Bus) Drain() {
	b.inflight.Wait()
}
