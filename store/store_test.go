package store

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"gocloud.dev/blob/memblob"

	"github.com/minios-linux/polyglot/cloud"
	"github.com/minios-linux/polyglot/dictionary"
	"github.com/minios-linux/polyglot/registry"
	"github.com/minios-linux/polyglot/storage"
	"github.com/minios-linux/polyglot/translator"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.UnixMilli(1700000000000)

type fixture struct {
	st    *storage.Bucket
	reg   *registry.Registry
	store *Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := storage.NewBucket(memblob.OpenBucket(nil))
	t.Cleanup(func() { st.Close() })

	reg := registry.New(quietLogger())
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	s := New(st, reg, opts)
	t.Cleanup(s.Close)
	return &fixture{st: st, reg: reg, store: s}
}

func (f *fixture) register(t *testing.T, ns string, base dictionary.Dictionary) *translator.Translator {
	t.Helper()
	tr := translator.New(ns, "en", base, translator.Options{Logger: quietLogger()})
	f.reg.Register(context.Background(), ns, tr)
	return tr
}

func frDoc() *dictionary.Document {
	return dictionary.New(dictionary.Meta{Locale: "fr", DictVersion: "42"}, dictionary.Dictionary{"hello": "Bonjour"})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	if err := f.store.Save(ctx, Plugins, "demo", "fr", frDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := f.store.Load(ctx, Plugins, "demo", "fr")
	if got == nil {
		t.Fatal("Load returned nil")
	}
	if got.Meta.DictVersion != "1700000000000" {
		t.Errorf("dictVersion = %q, want save time", got.Meta.DictVersion)
	}
	if got.Meta.Locale != "fr" || got.Meta.PluginID != "demo" {
		t.Errorf("meta = %+v", got.Meta)
	}
	if !reflect.DeepEqual(got.Strings(), dictionary.Dictionary{"hello": "Bonjour"}) {
		t.Errorf("entries = %v", got.Strings())
	}

	if f.store.Load(ctx, Plugins, "demo", "de") != nil {
		t.Error("Load of a missing file should return nil")
	}
}

func TestSaveThemeSetsThemeName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	if err := f.store.Save(ctx, Themes, "Minimal", "de", frDoc()); err != nil {
		t.Fatal(err)
	}
	got := f.store.Load(ctx, Themes, "Minimal", "de")
	if got == nil || got.Meta.ThemeName != "Minimal" || got.Meta.PluginID != "" || got.Meta.Locale != "de" {
		t.Fatalf("theme meta = %+v", got)
	}
}

func TestInstallKeepsVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	if err := f.store.Install(ctx, Plugins, "demo", "fr", frDoc()); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Load(ctx, Plugins, "demo", "fr"); got.Meta.DictVersion != "42" {
		t.Errorf("dictVersion = %q, want 42", got.Meta.DictVersion)
	}

	noVersion := dictionary.New(dictionary.Meta{Locale: "de"}, dictionary.Dictionary{"hello": "Hallo"})
	if err := f.store.Install(ctx, Plugins, "demo", "de", noVersion); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Load(ctx, Plugins, "demo", "de"); got.Meta.DictVersion != "1700000000000" {
		t.Errorf("unversioned install dictVersion = %q", got.Meta.DictVersion)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	if err := f.st.Write(ctx, Path(Plugins, "demo", "fr"), []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	if f.store.Load(ctx, Plugins, "demo", "fr") != nil {
		t.Fatal("corrupt file should load as nil")
	}

	entries := f.store.ListAll(ctx)
	if len(entries) != 1 || entries[0].DictVersion != UnknownVersion {
		t.Fatalf("ListAll = %+v", entries)
	}
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	for _, p := range []struct {
		kind   Kind
		ns, lc string
	}{
		{Plugins, "demo", "fr"},
		{Plugins, "demo", "de"},
		{Plugins, "ghost", "it"},
		{Themes, "Minimal", "de"},
	} {
		if err := f.store.Save(ctx, p.kind, p.ns, p.lc, frDoc()); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	for _, e := range f.store.ListAll(ctx) {
		got = append(got, string(e.Kind)+"/"+e.Namespace+"/"+e.Locale+"@"+e.DictVersion)
	}
	want := []string{
		"plugins/demo/de@1700000000000",
		"plugins/demo/fr@1700000000000",
		"plugins/ghost/it@1700000000000",
		"themes/Minimal/de@1700000000000",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListAll = %v", got)
	}
}

func TestOverlaysLoadOnRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{PreferredLocale: "fr"})

	if err := f.store.Save(ctx, Plugins, "demo", "fr", frDoc()); err != nil {
		t.Fatal(err)
	}
	bad := []byte(`{"$meta": {"locale": "de"}, "hello": 5}`)
	if err := f.st.Write(ctx, Path(Plugins, "demo", "de"), bad); err != nil {
		t.Fatal(err)
	}

	tr := f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})

	if tr.Locale() != "fr" {
		t.Fatalf("preferred locale not applied: %q", tr.Locale())
	}
	if got := tr.Resolve("hello", nil); got != "Bonjour" {
		t.Fatalf("Resolve(hello) = %q, want Bonjour", got)
	}
	if got := tr.ExternalLocales(); !reflect.DeepEqual(got, []string{"fr"}) {
		t.Fatalf("ExternalLocales = %v, rejected overlay must not load", got)
	}

	if n := f.store.LoadForNamespace(ctx, "unregistered"); n != 0 {
		t.Fatalf("LoadForNamespace(unregistered) = %d", n)
	}
}

func TestPreferredLocaleFollowsLocaleChanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.reg.SetGlobalLocale(ctx, "de")
	if got := f.store.PreferredLocale(); got != "de" {
		t.Fatalf("PreferredLocale = %q", got)
	}

	tr := f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})
	if tr.Locale() != "de" {
		t.Fatalf("late registrant locale = %q, want de", tr.Locale())
	}
}

func TestGhostOrphan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})

	if err := f.store.Save(ctx, Plugins, "demo", "fr", frDoc()); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Save(ctx, Plugins, "ghost", "fr", frDoc()); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Save(ctx, Themes, "Minimal", "de", frDoc()); err != nil {
		t.Fatal(err)
	}

	// Theme directories are never classified.
	if got := f.store.Orphans(ctx); !reflect.DeepEqual(got, []string{"ghost"}) {
		t.Fatalf("Orphans = %v, want [ghost]", got)
	}
	if ok, _ := f.st.Exists(ctx, Path(Plugins, "ghost", "fr")); !ok {
		t.Fatal("orphan data must not be deleted automatically")
	}

	if err := f.store.DeleteNamespace(ctx, Plugins, "ghost"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
	if got := f.store.Orphans(ctx); len(got) != 0 {
		t.Fatalf("Orphans after delete = %v", got)
	}
}

func TestClassifyOrphans(t *testing.T) {
	tests := []struct {
		name       string
		onDisk     []string
		registered []string
		want       []string
	}{
		{"none on disk", nil, []string{"a"}, nil},
		{"all registered", []string{"a", "b"}, []string{"b", "a"}, nil},
		{"sorted orphans", []string{"z", "a", "m"}, []string{"m"}, []string{"a", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyOrphans(tt.onDisk, tt.registered); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ClassifyOrphans = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteUnloadsOverlay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{PreferredLocale: "fr"})
	if err := f.store.Save(ctx, Plugins, "demo", "fr", frDoc()); err != nil {
		t.Fatal(err)
	}
	tr := f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})

	if err := f.store.Delete(ctx, Plugins, "demo", "fr"); err != nil {
		t.Fatal(err)
	}
	if f.store.Load(ctx, Plugins, "demo", "fr") != nil {
		t.Fatal("file still present")
	}
	if got := tr.Resolve("hello", nil); got != "Hello" {
		t.Fatalf("Resolve after delete = %q", got)
	}
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, Options{})
		tr := f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})

		var changed string
		f.reg.On(registry.EventLocaleChanged, func(_ context.Context, ev registry.Event) error {
			changed = ev.Locale
			return nil
		})

		data := []byte(`{"$meta": {"pluginId": "demo", "locale": "fr", "dictVersion": "1"}, "hello": "Bonjour"}`)
		res := f.store.ImportFile(ctx, data, "")
		if !res.Valid {
			t.Fatalf("ImportFile: %s", res.Summary())
		}
		if changed != "fr" || tr.Locale() != "fr" {
			t.Fatalf("global locale not switched: event %q, translator %q", changed, tr.Locale())
		}
		if got := tr.Resolve("hello", nil); got != "Bonjour" {
			t.Fatalf("Resolve = %q", got)
		}
		if f.store.Load(ctx, Plugins, "demo", "fr") == nil {
			t.Fatal("imported dictionary not persisted")
		}
	})

	failures := []struct {
		name string
		data string
	}{
		{"malformed", `{"hello": `},
		{"not an object", `["hello"]`},
		{"no locale", `{"$meta": {"pluginId": "demo"}, "hello": "Bonjour"}`},
		{"non-string value", `{"$meta": {"pluginId": "demo", "locale": "fr"}, "hello": 5}`},
		{"unregistered namespace", `{"$meta": {"pluginId": "other", "locale": "fr"}, "hello": "Bonjour"}`},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			tr := f.register(t, "demo", dictionary.Dictionary{"hello": "Hello"})

			res := f.store.ImportFile(ctx, []byte(tt.data), "")
			if res.Valid || len(res.Errors) == 0 {
				t.Fatalf("ImportFile accepted %s", tt.data)
			}
			if len(f.store.ListAll(ctx)) != 0 {
				t.Fatal("rejected import was persisted")
			}
			if tr.Locale() != "en" {
				t.Fatalf("locale switched to %q on failure", tr.Locale())
			}
		})
	}
}

const themeCSS = `/* @settings
name: Minimal
id: minimal-style
settings:
  - id: accent
    title: Accent color
*/`

func TestRefreshThemeBase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	if !f.store.ThemeBaseStale(ctx, "Minimal", themeCSS) {
		t.Fatal("missing base should be stale")
	}

	wrote, err := f.store.RefreshThemeBase(ctx, "Minimal", themeCSS)
	if err != nil || !wrote {
		t.Fatalf("first refresh = %v, %v", wrote, err)
	}
	doc := f.store.Load(ctx, Themes, "Minimal", "en")
	if doc == nil {
		t.Fatal("base dictionary not written")
	}
	if v, _ := doc.Get("Accent color"); v != "Accent color" {
		t.Errorf("Accent color = %q", v)
	}
	if v, _ := doc.Get("@@ids"); v != `["minimal-style"]` {
		t.Errorf("@@ids = %q", v)
	}
	if doc.Meta.ThemeName != "Minimal" || doc.Meta.SourceHash == "" {
		t.Errorf("meta = %+v", doc.Meta)
	}

	if f.store.ThemeBaseStale(ctx, "Minimal", themeCSS) {
		t.Fatal("base should be fresh after refresh")
	}
	if wrote, _ := f.store.RefreshThemeBase(ctx, "Minimal", themeCSS); wrote {
		t.Fatal("unchanged css regenerated the base")
	}

	changed := themeCSS + "\n/* @settings\nname: More\n*/"
	if !f.store.ThemeBaseStale(ctx, "Minimal", changed) {
		t.Fatal("changed css should be stale")
	}
	if wrote, _ := f.store.RefreshThemeBase(ctx, "Minimal", changed); !wrote {
		t.Fatal("changed css did not regenerate the base")
	}
	if v, _ := f.store.Load(ctx, Themes, "Minimal", "en").Get("More"); v != "More" {
		t.Fatal("regenerated base misses new string")
	}

	if wrote, _ := f.store.RefreshThemeBase(ctx, "Plain", "body {}"); wrote {
		t.Fatal("css without @settings wrote a base")
	}
}

func TestUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	install := func(ns, locale, version string) {
		doc := dictionary.New(dictionary.Meta{Locale: locale, DictVersion: version}, dictionary.Dictionary{"k": "v"})
		if err := f.store.Install(ctx, Plugins, ns, locale, doc); err != nil {
			t.Fatal(err)
		}
	}
	install("demo", "fr", "5")
	install("demo", "de", "1.10.0")

	catalog := []cloud.RemoteDictionary{
		{NamespaceID: "demo", Kind: cloud.KindPlugins, Locale: "fr", DictVersion: "12"},
		{NamespaceID: "demo", Kind: cloud.KindPlugins, Locale: "de", DictVersion: "1.2.0"},
		{NamespaceID: "demo", Kind: cloud.KindPlugins, Locale: "it", DictVersion: "1"},
		{NamespaceID: "demo", Kind: cloud.KindThemes, Locale: "fr", DictVersion: "99"},
	}
	got := f.store.Updates(ctx, catalog)
	if len(got) != 1 || got[0].Locale != "fr" || got[0].Kind != cloud.KindPlugins {
		t.Fatalf("Updates = %+v", got)
	}
}

func TestOutdatedKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.register(t, "demo", dictionary.Dictionary{"hello": "Hello", "bye": "Bye"})
	overlay := dictionary.New(dictionary.Meta{}, dictionary.Dictionary{"hello": "Bonjour", "bye": "Au revoir"})
	if err := f.store.Save(ctx, Plugins, "demo", "fr", overlay); err != nil {
		t.Fatal(err)
	}
	if got := f.store.OutdatedKeys(ctx, "demo", "fr"); len(got) != 0 {
		t.Fatalf("fresh overlay reported outdated keys %v", got)
	}

	// The extension ships a new base text for "hello".
	f.reg.Unregister(ctx, "demo")
	f.register(t, "demo", dictionary.Dictionary{"hello": "Hello there", "bye": "Bye"})

	if got := f.store.OutdatedKeys(ctx, "demo", "fr"); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("OutdatedKeys = %v, want [hello]", got)
	}
	if got := f.store.OutdatedKeys(ctx, "ghost", "fr"); got != nil {
		t.Fatalf("OutdatedKeys(unregistered) = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("themes"); err != nil || k != Themes {
		t.Fatalf("ParseKind(themes) = %v, %v", k, err)
	}
	if _, err := ParseKind("fonts"); err == nil {
		t.Fatal("ParseKind(fonts) succeeded")
	}
}
