// Package store persists overlay dictionaries and keeps registered
// translators in sync with what is on disk.
//
// Layout, relative to the storage root:
//
//	dictionaries/
//	    plugins/<namespace>/<locale>.json
//	    themes/<theme>/<locale>.json
//	    polyglot.lock
//
// Read paths never fail: a missing or unparsable file is logged and
// reported as absent. Write paths return errors.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minios-linux/polyglot/dictionary"
	"github.com/minios-linux/polyglot/lockfile"
	"github.com/minios-linux/polyglot/registry"
	"github.com/minios-linux/polyglot/storage"
)

// Root is the dictionaries directory inside the storage root.
const Root = "dictionaries"

// UnknownVersion is reported by ListAll for files whose metadata cannot be
// read.
const UnknownVersion = "unknown"

// Kind selects the plugins or themes subtree.
type Kind string

const (
	Plugins Kind = "plugins"
	Themes  Kind = "themes"
)

// Kinds lists every kind in listing order.
var Kinds = []Kind{Plugins, Themes}

// ParseKind converts a directory name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Plugins, Themes:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown dictionary kind %q (want plugins or themes)", s)
}

// Entry describes one dictionary file found by ListAll.
type Entry struct {
	Kind        Kind
	Namespace   string
	Locale      string
	DictVersion string
	Path        string
}

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	// PreferredLocale is applied to translators as their overlays are
	// loaded. It follows locale-changed events afterwards.
	PreferredLocale string
	// ThemeBaseLocale is the locale generated theme base dictionaries are
	// written under. Defaults to "en".
	ThemeBaseLocale string
	// Now overrides the clock used to stamp dictVersion.
	Now func() time.Time
}

// baser is implemented by translators that expose their base dictionary.
type baser interface {
	Base() dictionary.Dictionary
}

// Store is the dictionary store.
type Store struct {
	st        storage.Storage
	reg       registry.Handle
	logger    *slog.Logger
	now       func() time.Time
	themeBase string

	mu        sync.Mutex
	preferred string
	subs      []registry.Subscription

	// lockMu serializes lock file read-modify-write cycles.
	lockMu sync.Mutex
}

// New creates a Store on st and subscribes it to reg: overlays are loaded
// when a namespace registers and the preferred locale follows
// locale-changed.
func New(st storage.Storage, reg registry.Handle, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	themeBase := opts.ThemeBaseLocale
	if themeBase == "" {
		themeBase = "en"
	}

	s := &Store{
		st:        st,
		reg:       reg,
		logger:    logger,
		now:       now,
		themeBase: themeBase,
		preferred: opts.PreferredLocale,
	}

	s.subs = append(s.subs,
		reg.On(registry.EventPluginRegistered, func(ctx context.Context, ev registry.Event) error {
			s.LoadForNamespace(ctx, ev.Namespace)
			return nil
		}),
		reg.On(registry.EventLocaleChanged, func(_ context.Context, ev registry.Event) error {
			s.SetPreferredLocale(ev.Locale)
			return nil
		}),
	)
	return s
}

// Close unsubscribes the store from the registry.
func (s *Store) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		s.reg.Off(sub)
	}
}

// PreferredLocale returns the locale applied to newly loaded translators.
func (s *Store) PreferredLocale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferred
}

// SetPreferredLocale changes the preferred locale.
func (s *Store) SetPreferredLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferred = locale
}

// Path returns the storage path of a dictionary file.
func Path(kind Kind, namespace, locale string) string {
	return path.Join(Root, string(kind), namespace, locale+".json")
}

func dir(kind Kind, namespace string) string {
	return path.Join(Root, string(kind), namespace)
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Save persists doc as the overlay for namespace/locale. $meta.locale, the
// namespace field and $meta.dictVersion (current time in milliseconds) are
// set on the written copy; doc itself is not modified.
//
// For plugin namespaces that are registered, the base text of every saved
// key is recorded in the lock file so OutdatedKeys can detect base changes.
func (s *Store) Save(ctx context.Context, kind Kind, namespace, locale string, doc *dictionary.Document) error {
	return s.write(ctx, kind, namespace, locale, doc, true)
}

// Install is Save without restamping: the document keeps its own
// dictVersion, so later catalog comparisons see the remote version. A
// document without a version is stamped like Save.
func (s *Store) Install(ctx context.Context, kind Kind, namespace, locale string, doc *dictionary.Document) error {
	return s.write(ctx, kind, namespace, locale, doc, doc != nil && doc.Meta.DictVersion == "")
}

func (s *Store) write(ctx context.Context, kind Kind, namespace, locale string, doc *dictionary.Document, stamp bool) error {
	if doc == nil {
		return fmt.Errorf("saving %s/%s: nil document", namespace, locale)
	}
	if namespace == "" || locale == "" {
		return fmt.Errorf("saving dictionary: namespace and locale are required")
	}

	if err := s.st.Mkdir(ctx, dir(kind, namespace)); err != nil {
		s.logger.Debug("mkdir failed", "dir", dir(kind, namespace), "err", err)
	}

	out := doc.Clone()
	meta := out.Meta
	meta.Locale = locale
	switch kind {
	case Themes:
		meta.ThemeName = namespace
		meta.PluginID = ""
	default:
		meta.PluginID = namespace
	}
	if stamp {
		meta.DictVersion = strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	out.SetMeta(meta)

	data, err := out.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", namespace, locale, err)
	}
	if err := s.st.Write(ctx, Path(kind, namespace, locale), data); err != nil {
		return err
	}
	s.logger.Debug("dictionary saved", "kind", kind, "namespace", namespace, "locale", locale, "version", meta.DictVersion)

	if kind == Plugins {
		s.recordChecksums(ctx, namespace, locale, out)
	}
	return nil
}

func (s *Store) base(namespace string) (dictionary.Dictionary, bool) {
	t, ok := s.reg.Translator(namespace)
	if !ok {
		return nil, false
	}
	b, ok := t.(baser)
	if !ok {
		return nil, false
	}
	return b.Base(), true
}

func (s *Store) recordChecksums(ctx context.Context, namespace, locale string, doc *dictionary.Document) {
	base, ok := s.base(namespace)
	if !ok {
		return
	}

	entries := make(map[string]string)
	for _, k := range doc.Keys() {
		if text, ok := base[k]; ok {
			entries[k] = text
		}
	}

	s.updateLock(ctx, func(lf *lockfile.LockFile) {
		target := lockfile.TargetKey(namespace, locale)
		lf.UpdateBatch(target, entries)
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		lf.Clean(target, keys)
	})
}

func (s *Store) updateLock(ctx context.Context, fn func(lf *lockfile.LockFile)) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lf, err := lockfile.Load(ctx, s.st)
	if err != nil {
		s.logger.Warn("lock file unreadable, starting fresh", "err", err)
		lf = lockfile.New()
	}
	fn(lf)
	if err := lf.Save(ctx, s.st); err != nil {
		s.logger.Warn("saving lock file failed", "err", err)
	}
}

// Delete removes one dictionary file, forgets its lock file entries and
// unloads it from the namespace's translator when registered.
func (s *Store) Delete(ctx context.Context, kind Kind, namespace, locale string) error {
	if err := s.st.Remove(ctx, Path(kind, namespace, locale)); err != nil {
		return err
	}
	if kind == Plugins {
		s.updateLock(ctx, func(lf *lockfile.LockFile) {
			lf.RemoveTarget(lockfile.TargetKey(namespace, locale))
		})
	}
	if s.reg.IsRegistered(namespace) {
		s.reg.UnloadDictionary(ctx, namespace, locale)
	}
	return nil
}

// DeleteNamespace removes every dictionary file of a namespace. This is
// the manual cleanup path for orphans.
func (s *Store) DeleteNamespace(ctx context.Context, kind Kind, namespace string) error {
	files, _, err := s.st.List(ctx, dir(kind, namespace))
	if err != nil {
		return err
	}

	var errs []error
	for _, f := range files {
		if err := s.st.Remove(ctx, path.Join(dir(kind, namespace), f)); err != nil {
			errs = append(errs, err)
			continue
		}
		if locale, ok := strings.CutSuffix(f, ".json"); ok && s.reg.IsRegistered(namespace) {
			s.reg.UnloadDictionary(ctx, namespace, locale)
		}
	}
	if kind == Plugins {
		s.updateLock(ctx, func(lf *lockfile.LockFile) {
			lf.RemoveNamespace(namespace)
		})
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Load reads one dictionary. It returns nil when the file is missing or
// cannot be parsed.
func (s *Store) Load(ctx context.Context, kind Kind, namespace, locale string) *dictionary.Document {
	p := Path(kind, namespace, locale)
	data, err := s.st.Read(ctx, p)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("reading dictionary failed", "path", p, "err", err)
		}
		return nil
	}
	doc, err := dictionary.Parse(data)
	if err != nil {
		s.logger.Warn("parsing dictionary failed", "path", p, "err", err)
		return nil
	}
	return doc
}

// Locales returns the locales stored for a namespace, sorted.
func (s *Store) Locales(ctx context.Context, kind Kind, namespace string) []string {
	files, _, err := s.st.List(ctx, dir(kind, namespace))
	if err != nil {
		s.logger.Warn("listing dictionaries failed", "kind", kind, "namespace", namespace, "err", err)
		return nil
	}
	var locales []string
	for _, f := range files {
		if locale, ok := strings.CutSuffix(f, ".json"); ok && locale != "" {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales)
	return locales
}

// Namespaces returns the namespaces that have a directory under kind,
// sorted.
func (s *Store) Namespaces(ctx context.Context, kind Kind) []string {
	_, dirs, err := s.st.List(ctx, path.Join(Root, string(kind)))
	if err != nil {
		s.logger.Warn("listing namespaces failed", "kind", kind, "err", err)
		return nil
	}
	sort.Strings(dirs)
	return dirs
}

// ListAll returns every dictionary file of both kinds. Files whose
// metadata cannot be read are listed with DictVersion UnknownVersion.
func (s *Store) ListAll(ctx context.Context) []Entry {
	var out []Entry
	for _, kind := range Kinds {
		for _, ns := range s.Namespaces(ctx, kind) {
			for _, locale := range s.Locales(ctx, kind, ns) {
				e := Entry{
					Kind:        kind,
					Namespace:   ns,
					Locale:      locale,
					DictVersion: UnknownVersion,
					Path:        Path(kind, ns, locale),
				}
				if doc := s.Load(ctx, kind, ns, locale); doc != nil && doc.Meta.DictVersion != "" {
					e.DictVersion = doc.Meta.DictVersion
				}
				out = append(out, e)
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// LoadForNamespace pushes every stored overlay of a registered namespace
// into its translator and applies the preferred locale. It returns the
// number of overlays accepted. Unregistered namespaces are ignored.
func (s *Store) LoadForNamespace(ctx context.Context, namespace string) int {
	if !s.reg.IsRegistered(namespace) {
		return 0
	}

	loaded := 0
	for _, kind := range Kinds {
		for _, locale := range s.Locales(ctx, kind, namespace) {
			doc := s.Load(ctx, kind, namespace, locale)
			if doc == nil {
				continue
			}
			res := s.reg.LoadDictionary(ctx, namespace, locale, doc)
			if !res.Valid {
				s.logger.Warn("stored dictionary rejected", "namespace", namespace, "locale", locale, "errors", res.Summary())
				continue
			}
			loaded++
		}
	}

	if preferred := s.PreferredLocale(); preferred != "" {
		if t, ok := s.reg.Translator(namespace); ok && t.Locale() != preferred {
			t.SetLocale(preferred)
		}
	}

	if loaded > 0 {
		s.logger.Debug("overlays loaded", "namespace", namespace, "count", loaded)
	}
	return loaded
}

// ImportFile loads a dictionary document from data into the namespace's
// translator and, only if that succeeds, persists it and switches the
// global locale to the imported one. When namespace is empty the
// document's own namespace is used.
func (s *Store) ImportFile(ctx context.Context, data []byte, namespace string) dictionary.ValidationResult {
	doc, err := dictionary.Parse(data)
	if err != nil {
		return dictionary.Invalid("", err.Error())
	}
	if !doc.IsObject() {
		return dictionary.Invalid("", "dictionary must be a JSON object")
	}
	locale := doc.Meta.Locale
	if locale == "" {
		return dictionary.Invalid(dictionary.MetaKey, "missing $meta.locale")
	}
	if namespace == "" {
		namespace = doc.Meta.NamespaceID()
	}
	if namespace == "" {
		return dictionary.Invalid(dictionary.MetaKey, "missing $meta.pluginId or $meta.themeName")
	}

	kind := Plugins
	if doc.Meta.PluginID == "" && (doc.Meta.ThemeName != "" || doc.Meta.ID != "") {
		kind = Themes
	}

	res := s.reg.LoadDictionary(ctx, namespace, locale, doc)
	if !res.Valid {
		return res
	}

	if err := s.Save(ctx, kind, namespace, locale, doc); err != nil {
		s.logger.Error("persisting imported dictionary failed", "namespace", namespace, "locale", locale, "err", err)
		res.AddWarning(dictionary.MetaKey, "loaded but not saved: "+err.Error())
	}
	s.reg.SetGlobalLocale(ctx, locale)
	return res
}

// ---------------------------------------------------------------------------
// Orphans
// ---------------------------------------------------------------------------

// Orphans returns the plugin namespaces that have stored dictionaries but
// no registered translator. They are never deleted automatically.
//
// Only the plugins kind is classified: themes are not registered with the
// registry, so every theme directory would otherwise count as an orphan.
// Callers that track installed themes can pass the theme directories from
// Namespaces(ctx, Themes) to ClassifyOrphans themselves.
func (s *Store) Orphans(ctx context.Context) []string {
	return ClassifyOrphans(s.Namespaces(ctx, Plugins), s.reg.IDs())
}

// ClassifyOrphans returns the entries of onDisk that are not in
// registered, sorted.
func ClassifyOrphans(onDisk, registered []string) []string {
	known := make(map[string]bool, len(registered))
	for _, id := range registered {
		known[id] = true
	}
	var out []string
	for _, ns := range onDisk {
		if !known[ns] {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}
