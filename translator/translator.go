// Package translator resolves text for a single namespace (an extension or
// a theme) from its base dictionary and any loaded overlay dictionaries.
//
// Lookup never fails: a key that no dictionary knows is returned unchanged
// so that user interfaces never render an empty label.
//
// Usage:
//
//	t := translator.New("demo", "en", dictionary.Dictionary{"hello": "Hello {name}"}, translator.Options{})
//	t.LoadDictionary("fr", frDoc)
//	t.SetLocale("fr")
//	fmt.Println(t.Resolve("hello", translator.Params{"name": "Ana"}))
package translator

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/minios-linux/polyglot/dictionary"
)

// ContextParam is the reserved parameter selecting a context variant.
// Resolve("save", Params{"context": "menu"}) tries "save_menu" first.
const ContextParam = "context"

// Params holds interpolation values and the optional context variant.
type Params map[string]any

// Options configures a Translator.
type Options struct {
	// Logger receives missing-translation and validation warnings.
	Logger *slog.Logger
	// OnError is called when LoadDictionary rejects a document.
	OnError func(locale string, result dictionary.ValidationResult)
}

// Translator owns one namespace's base dictionary and overlays.
type Translator struct {
	namespace  string
	baseLocale string
	base       dictionary.Dictionary
	logger     *slog.Logger
	onError    func(string, dictionary.ValidationResult)

	mu             sync.Mutex
	currentLocale  string
	overlays       map[string]dictionary.Dictionary
	lastSuccessful string
}

// New creates a Translator. The base dictionary is copied and is never
// modified afterwards.
func New(namespace, baseLocale string, base dictionary.Dictionary, opts Options) *Translator {
	baseCopy := make(dictionary.Dictionary, len(base))
	for k, v := range base {
		baseCopy[k] = v
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Translator{
		namespace:     namespace,
		baseLocale:    baseLocale,
		base:          baseCopy,
		logger:        logger.With("namespace", namespace),
		onError:       opts.OnError,
		currentLocale: baseLocale,
		overlays:      map[string]dictionary.Dictionary{baseLocale: baseCopy},
	}
}

// Namespace returns the namespace identifier.
func (t *Translator) Namespace() string { return t.namespace }

// BaseLocale returns the locale of the base dictionary.
func (t *Translator) BaseLocale() string { return t.baseLocale }

// Locale returns the current locale.
func (t *Translator) Locale() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocale
}

// SetLocale switches the current locale. The locale does not need a loaded
// overlay; lookups then fall through to the base dictionary.
func (t *Translator) SetLocale(locale string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentLocale = locale
}

// LastResolvedLocale returns the most recent locale whose overlay produced
// a hit, or "" if none has yet.
func (t *Translator) LastResolvedLocale() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSuccessful
}

// ---------------------------------------------------------------------------
// Loading and unloading
// ---------------------------------------------------------------------------

// LoadDictionary validates doc and, unless it has errors, installs it as
// the overlay for locale, replacing any previous overlay for that locale.
func (t *Translator) LoadDictionary(locale string, doc *dictionary.Document) dictionary.ValidationResult {
	res := t.Validate(doc)
	if !res.Valid {
		t.logger.Warn("dictionary rejected", "locale", locale, "errors", len(res.Errors))
		if t.onError != nil {
			t.onError(locale, res)
		}
		return res
	}
	if len(res.Warnings) > 0 {
		t.logger.Debug("dictionary loaded with warnings", "locale", locale, "warnings", len(res.Warnings))
	}

	overlay := doc.Strings()

	t.mu.Lock()
	defer t.mu.Unlock()
	// An overlay for the base locale shadows t.overlays[baseLocale] only;
	// t.base stays the second lookup tier.
	t.overlays[locale] = overlay
	return res
}

// UnloadDictionary removes the overlay for locale. The base locale cannot
// be removed. Unloading the current locale resets it to the base locale.
func (t *Translator) UnloadDictionary(locale string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if locale == t.baseLocale {
		t.logger.Warn("refusing to unload base locale", "locale", locale)
		return
	}
	delete(t.overlays, locale)
	if t.currentLocale == locale {
		t.currentLocale = t.baseLocale
	}
}

// ---------------------------------------------------------------------------
// Locale listing
// ---------------------------------------------------------------------------

// Base returns a copy of the base dictionary.
func (t *Translator) Base() dictionary.Dictionary {
	out := make(dictionary.Dictionary, len(t.base))
	for k, v := range t.base {
		out[k] = v
	}
	return out
}

// BuiltinLocales returns the locales shipped with the extension.
func (t *Translator) BuiltinLocales() []string {
	return []string{t.baseLocale}
}

// ExternalLocales returns the loaded overlay locales, excluding the base
// locale, sorted.
func (t *Translator) ExternalLocales() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.overlays))
	for l := range t.overlays {
		if l != t.baseLocale {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// LoadedLocales returns the base locale followed by the external locales.
func (t *Translator) LoadedLocales() []string {
	return append(t.BuiltinLocales(), t.ExternalLocales()...)
}

func sortedKeys(d map[string]string) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
