package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// EventName identifies a registry event.
type EventName string

const (
	EventPluginRegistered   EventName = "plugin-registered"
	EventPluginUnregistered EventName = "plugin-unregistered"
	EventDictionaryLoaded   EventName = "dictionary-loaded"
	EventDictionaryUnloaded EventName = "dictionary-unloaded"
	EventLocaleChanged      EventName = "locale-changed"
)

// Event is delivered to subscribers. Namespace is empty for
// EventLocaleChanged.
type Event struct {
	Name      EventName
	Namespace string
	Locale    string
}

// Handler handles an event. Returned errors are logged; they never stop
// delivery to the remaining subscribers.
type Handler func(ctx context.Context, ev Event) error

// Subscription identifies a handler registered with On.
type Subscription struct {
	name EventName
	id   uint64
}

type subscriber struct {
	id uint64
	h  Handler
}

type bus struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[EventName][]subscriber
}

func newBus(logger *slog.Logger) *bus {
	return &bus{logger: logger, subs: make(map[EventName][]subscriber)}
}

func (b *bus) on(name EventName, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[name] = append(b.subs[name], subscriber{id: b.nextID, h: h})
	return Subscription{name: name, id: b.nextID}
}

func (b *bus) off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[sub.name]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (b *bus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[EventName][]subscriber)
}

// emit calls every subscriber of ev.Name in subscription order. The list is
// copied first so handlers may subscribe, unsubscribe or call back into the
// registry.
func (b *bus) emit(ctx context.Context, ev Event) {
	b.mu.Lock()
	list := make([]subscriber, len(b.subs[ev.Name]))
	copy(list, b.subs[ev.Name])
	b.mu.Unlock()

	for _, s := range list {
		if err := b.call(ctx, s.h, ev); err != nil {
			b.logger.Error("event handler failed", "event", string(ev.Name), "namespace", ev.Namespace, "err", err)
		}
	}
}

func (b *bus) call(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, ev)
}
