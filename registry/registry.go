// Package registry maps namespace identifiers to translators, broadcasts
// the active locale to all of them and carries a small event bus.
//
// A Registry is constructed explicitly and passed to the components that
// need it. Consumers should depend on the Handle interface; translators are
// consumed through the Translator interface.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/minios-linux/polyglot/dictionary"
)

// Translator is the contract the registry needs from a translator.
type Translator interface {
	Namespace() string
	Locale() string
	SetLocale(locale string)
	LoadDictionary(locale string, doc *dictionary.Document) dictionary.ValidationResult
	UnloadDictionary(locale string)
}

// Handle is the registry surface exposed to other components.
type Handle interface {
	Register(ctx context.Context, id string, t Translator)
	Unregister(ctx context.Context, id string)
	LoadDictionary(ctx context.Context, id, locale string, doc *dictionary.Document) dictionary.ValidationResult
	UnloadDictionary(ctx context.Context, id, locale string)
	SetGlobalLocale(ctx context.Context, locale string)
	IDs() []string
	IsRegistered(id string) bool
	Translator(id string) (Translator, bool)
	On(name EventName, h Handler) Subscription
	Off(sub Subscription)
}

var _ Handle = (*Registry)(nil)

// Registry is the directory of registered translators.
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	order       []string
	translators map[string]Translator

	bus *bus
}

// New creates an empty registry. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:      logger,
		translators: make(map[string]Translator),
		bus:         newBus(logger),
	}
}

// Register adds t under id, replacing (with a warning) any translator
// already registered under that id, then emits EventPluginRegistered.
// A nil translator or an empty id is logged and ignored.
func (r *Registry) Register(ctx context.Context, id string, t Translator) {
	if id == "" || isNil(t) {
		r.logger.Warn("ignoring invalid registration", "namespace", id, "nil_translator", isNil(t))
		return
	}

	r.mu.Lock()
	if _, exists := r.translators[id]; exists {
		r.logger.Warn("namespace already registered, replacing translator", "namespace", id)
	} else {
		r.order = append(r.order, id)
	}
	r.translators[id] = t
	r.mu.Unlock()

	r.bus.emit(ctx, Event{Name: EventPluginRegistered, Namespace: id, Locale: t.Locale()})
}

func isNil(t Translator) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Unregister removes id and emits EventPluginUnregistered.
func (r *Registry) Unregister(ctx context.Context, id string) {
	r.mu.Lock()
	_, exists := r.translators[id]
	if exists {
		delete(r.translators, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if exists {
		r.bus.emit(ctx, Event{Name: EventPluginUnregistered, Namespace: id})
	}
}

// LoadDictionary loads doc into the translator registered under id and
// emits EventDictionaryLoaded when it was accepted.
func (r *Registry) LoadDictionary(ctx context.Context, id, locale string, doc *dictionary.Document) dictionary.ValidationResult {
	t, ok := r.Translator(id)
	if !ok {
		return dictionary.Invalid("", fmt.Sprintf("namespace %q is not registered", id))
	}

	res := t.LoadDictionary(locale, doc)
	if res.Valid {
		r.bus.emit(ctx, Event{Name: EventDictionaryLoaded, Namespace: id, Locale: locale})
	}
	return res
}

// UnloadDictionary removes the overlay for locale from id's translator.
func (r *Registry) UnloadDictionary(ctx context.Context, id, locale string) {
	t, ok := r.Translator(id)
	if !ok {
		return
	}
	t.UnloadDictionary(locale)
	r.bus.emit(ctx, Event{Name: EventDictionaryUnloaded, Namespace: id, Locale: locale})
}

// SetGlobalLocale sets locale on every registered translator, in
// registration order, before emitting EventLocaleChanged.
func (r *Registry) SetGlobalLocale(ctx context.Context, locale string) {
	r.mu.RLock()
	for _, id := range r.order {
		r.translators[id].SetLocale(locale)
	}
	r.mu.RUnlock()

	r.bus.emit(ctx, Event{Name: EventLocaleChanged, Locale: locale})
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// IsRegistered reports whether id has a translator.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.Translator(id)
	return ok
}

// Translator returns the translator registered under id.
func (r *Registry) Translator(id string) (Translator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.translators[id]
	return t, ok
}

// On subscribes h to events named name.
func (r *Registry) On(name EventName, h Handler) Subscription {
	return r.bus.on(name, h)
}

// Off removes a subscription.
func (r *Registry) Off(sub Subscription) {
	r.bus.off(sub)
}

// Reset drops every translator and subscription.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.order = nil
	r.translators = make(map[string]Translator)
	r.mu.Unlock()
	r.bus.reset()
}
