package translator

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/minios-linux/polyglot/dictionary"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDemo(t *testing.T) *Translator {
	t.Helper()
	return New("demo", "en", dictionary.Dictionary{
		"hello":      "Hello",
		"greet":      "Hi {name}",
		"save":       "Save",
		"save_menu":  "Save (base menu)",
		"only_base":  "Base only",
		"empty_text": "",
	}, Options{Logger: quietLogger()})
}

func mustParse(t *testing.T, data string) *dictionary.Document {
	t.Helper()
	d, err := dictionary.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse(%s): %v", data, err)
	}
	return d
}

func TestResolveFallback(t *testing.T) {
	tr := newDemo(t)

	t.Run("base hit", func(t *testing.T) {
		if got := tr.Resolve("hello", nil); got != "Hello" {
			t.Fatalf("Resolve(hello) = %q, want %q", got, "Hello")
		}
	})

	t.Run("missing key returns key", func(t *testing.T) {
		if got := tr.Resolve("nope.missing", nil); got != "nope.missing" {
			t.Fatalf("Resolve(missing) = %q, want key", got)
		}
	})

	t.Run("empty base value falls back to key", func(t *testing.T) {
		if got := tr.Resolve("empty_text", nil); got != "empty_text" {
			t.Fatalf("Resolve(empty_text) = %q, want key", got)
		}
	})

	t.Run("locale without overlay falls through", func(t *testing.T) {
		tr.SetLocale("ja")
		defer tr.SetLocale("en")
		if got := tr.Resolve("hello", nil); got != "Hello" {
			t.Fatalf("Resolve(hello) in ja = %q, want %q", got, "Hello")
		}
	})
}

func TestResolveNeverEmptyForBaseKeys(t *testing.T) {
	tr := newDemo(t)
	tr.LoadDictionary("fr", mustParse(t, `{"hello": "", "greet": "Salut {name}"}`))
	tr.SetLocale("fr")

	for key := range tr.base {
		if got := tr.Resolve(key, nil); got == "" {
			t.Fatalf("Resolve(%q) returned empty string", key)
		}
	}
}

func TestResolveContextPrecedence(t *testing.T) {
	tr := newDemo(t)
	res := tr.LoadDictionary("fr", mustParse(t, `{
		"save": "Enregistrer",
		"save_toolbar": "Enreg.",
		"hello": "Bonjour"
	}`))
	if !res.Valid {
		t.Fatalf("LoadDictionary: %s", res.Summary())
	}
	tr.SetLocale("fr")

	t.Run("overlay context key beats plain key", func(t *testing.T) {
		if got := tr.Resolve("save", Params{"context": "toolbar"}); got != "Enreg." {
			t.Fatalf("Resolve(save, toolbar) = %q, want %q", got, "Enreg.")
		}
	})

	t.Run("base context key beats overlay plain key", func(t *testing.T) {
		// (save_menu, fr) misses, (save_menu, base) hits before (save, fr).
		if got := tr.Resolve("save", Params{"context": "menu"}); got != "Save (base menu)" {
			t.Fatalf("Resolve(save, menu) = %q, want %q", got, "Save (base menu)")
		}
	})

	t.Run("unknown context falls back to plain key", func(t *testing.T) {
		if got := tr.Resolve("save", Params{"context": "other"}); got != "Enregistrer" {
			t.Fatalf("Resolve(save, other) = %q, want %q", got, "Enregistrer")
		}
	})

	if tr.LastResolvedLocale() != "fr" {
		t.Fatalf("LastResolvedLocale() = %q, want fr", tr.LastResolvedLocale())
	}
}

func TestInterpolate(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		params Params
		want   string
	}{
		{"single braces", "Hi {name}", Params{"name": "Ana"}, "Hi Ana"},
		{"double braces", "Hi {{name}}!", Params{"name": "Ana"}, "Hi Ana!"},
		{"numbers", "{n} files", Params{"n": 3}, "3 files"},
		{"unmatched kept", "Hi {missing}", Params{}, "Hi {missing}"},
		{"unmatched kept with other params", "Hi {missing} {name}", Params{"name": "Bo"}, "Hi {missing} Bo"},
		{"context not substituted", "{context}", Params{"context": "menu"}, "{context}"},
		{"repeated", "{a}{a}", Params{"a": "x"}, "xx"},
		{"values are not rescanned", "Hello {a}", Params{"a": "{b}", "b": "SECRET"}, "Hello {b}"},
		{"double brace value not rescanned", "{{name}}", Params{"name": "{x}", "x": "y"}, "{x}"},
		{"order independent", "{z} {a}", Params{"z": "{a}", "a": "{z}"}, "{a} {z}"},
		{"unmatched double kept", "{{missing}} {name}", Params{"name": "Bo"}, "{{missing}} Bo"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Interpolate(tc.text, tc.params); got != tc.want {
				t.Fatalf("Interpolate(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}

	tr := newDemo(t)
	if got := tr.Resolve("Hi {missing}", Params{}); got != "Hi {missing}" {
		t.Fatalf("Resolve with unmatched placeholder = %q", got)
	}
	if got := tr.Resolve("greet", Params{"name": "Zoe"}); got != "Hi Zoe" {
		t.Fatalf("Resolve(greet) = %q", got)
	}
}

func TestUnloadDictionary(t *testing.T) {
	tr := newDemo(t)
	tr.LoadDictionary("fr", mustParse(t, `{"hello": "Bonjour"}`))
	tr.LoadDictionary("de", mustParse(t, `{"hello": "Hallo"}`))
	tr.SetLocale("fr")

	t.Run("base locale is protected", func(t *testing.T) {
		tr.UnloadDictionary("en")
		if got := tr.LoadedLocales(); !reflect.DeepEqual(got, []string{"en", "de", "fr"}) {
			t.Fatalf("LoadedLocales() = %v", got)
		}
	})

	t.Run("unloading another locale keeps current", func(t *testing.T) {
		tr.UnloadDictionary("de")
		if tr.Locale() != "fr" || tr.Resolve("hello", nil) != "Bonjour" {
			t.Fatalf("locale=%q resolve=%q", tr.Locale(), tr.Resolve("hello", nil))
		}
	})

	t.Run("unloading current resets to base", func(t *testing.T) {
		tr.UnloadDictionary("fr")
		if tr.Locale() != "en" {
			t.Fatalf("Locale() = %q, want en", tr.Locale())
		}
		if got := tr.Resolve("hello", nil); got != "Hello" {
			t.Fatalf("Resolve(hello) = %q, want Hello", got)
		}
	})

	if got := tr.ExternalLocales(); len(got) != 0 {
		t.Fatalf("ExternalLocales() = %v, want none", got)
	}
	if got := tr.BuiltinLocales(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("BuiltinLocales() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tr := newDemo(t)

	t.Run("non-object payload", func(t *testing.T) {
		res := tr.Validate(mustParse(t, `"just a string"`))
		if res.Valid || len(res.Errors) != 1 {
			t.Fatalf("unexpected result: %#v", res)
		}
	})

	t.Run("meta must be object", func(t *testing.T) {
		res := tr.Validate(mustParse(t, `{"$meta": 5, "hello": "x"}`))
		if res.Valid {
			t.Fatalf("expected invalid: %#v", res)
		}
	})

	t.Run("missing meta fields are warnings", func(t *testing.T) {
		res := tr.Validate(mustParse(t, `{"$meta": {"pluginId": "demo"}, "hello": "x"}`))
		if !res.Valid {
			t.Fatalf("expected valid: %s", res.Summary())
		}
		count := 0
		for _, w := range res.Warnings {
			if w.Key == dictionary.MetaKey {
				count++
			}
		}
		if count != 2 {
			t.Fatalf("expected 2 $meta warnings, got %d: %#v", count, res.Warnings)
		}
	})

	t.Run("unknown and missing keys are warnings", func(t *testing.T) {
		res := tr.Validate(mustParse(t, `{"hello": "x", "extra": "y"}`))
		if !res.Valid {
			t.Fatalf("expected valid: %s", res.Summary())
		}
		var unknown, missing int
		for _, w := range res.Warnings {
			switch w.Message {
			case "key not present in base dictionary":
				unknown++
			case "missing translation":
				missing++
			}
		}
		if unknown != 1 || missing != len(tr.base)-1 {
			t.Fatalf("unknown=%d missing=%d warnings=%#v", unknown, missing, res.Warnings)
		}
	})

	t.Run("validation monotonicity", func(t *testing.T) {
		bad := tr.LoadDictionary("fr", mustParse(t, `{"hello": "Bonjour", "greet": 42}`))
		if bad.Valid {
			t.Fatal("non-string value accepted")
		}
		good := tr.LoadDictionary("fr", mustParse(t, `{"hello": "Bonjour", "greet": "42"}`))
		if !good.Valid {
			t.Fatalf("fixed dictionary rejected: %s", good.Summary())
		}
	})
}

func TestLoadDictionaryRejectsAndCallsOnError(t *testing.T) {
	var gotLocale string
	tr := New("demo", "en", dictionary.Dictionary{"hello": "Hello"}, Options{
		Logger: quietLogger(),
		OnError: func(locale string, _ dictionary.ValidationResult) {
			gotLocale = locale
		},
	})

	res := tr.LoadDictionary("fr", mustParse(t, `{"hello": ["Bonjour"]}`))
	if res.Valid {
		t.Fatal("array value accepted")
	}
	if gotLocale != "fr" {
		t.Fatalf("OnError locale = %q, want fr", gotLocale)
	}
	if got := tr.ExternalLocales(); len(got) != 0 {
		t.Fatalf("rejected overlay was installed: %v", got)
	}
}

func TestHas(t *testing.T) {
	tr := newDemo(t)
	if !tr.Has("hello") || tr.Has("unknown") || tr.Has("empty_text") {
		t.Fatalf("Has() results unexpected")
	}
}
