package dictionary

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_PreservesOrderAndMeta(t *testing.T) {
	data := []byte(`{
  "first": "One",
  "$meta": {"pluginId": "demo", "locale": "fr", "dictVersion": 1718000000000},
  "second": "Two",
  "count": 3
}`)

	d, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !d.IsObject() || !d.HasMeta() || !d.MetaIsObject() {
		t.Fatalf("unexpected flags: object=%v meta=%v metaObject=%v", d.IsObject(), d.HasMeta(), d.MetaIsObject())
	}

	if got, want := d.Keys(), []string{"first", "second", "count"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if d.Meta.PluginID != "demo" || d.Meta.Locale != "fr" {
		t.Fatalf("unexpected meta: %#v", d.Meta)
	}
	if d.Meta.DictVersion != "1718000000000" {
		t.Fatalf("numeric dictVersion = %q, want %q", d.Meta.DictVersion, "1718000000000")
	}
	if !d.HasMetaField("dictVersion") || d.HasMetaField("author") {
		t.Fatalf("unexpected meta field presence: %#v", d.metaPresent)
	}

	strs := d.Strings()
	if len(strs) != 2 || strs["first"] != "One" || strs["second"] != "Two" {
		t.Fatalf("Strings() = %v", strs)
	}
	if _, ok := d.Get("count"); ok {
		t.Fatal("Get(count) should not report a string value")
	}
}

func TestParse_NonObjectAndInvalid(t *testing.T) {
	d, err := Parse([]byte(`["a", "b"]`))
	if err != nil {
		t.Fatalf("Parse(array) error: %v", err)
	}
	if d.IsObject() {
		t.Fatal("array payload reported as object")
	}

	if _, err := Parse([]byte(`{"broken":`)); err == nil {
		t.Fatal("expected parse error for invalid JSON")
	}
}

func TestParse_MetaNotObject(t *testing.T) {
	d, err := Parse([]byte(`{"$meta": "nope", "a": "b"}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !d.HasMeta() || d.MetaIsObject() {
		t.Fatalf("HasMeta=%v MetaIsObject=%v, want true/false", d.HasMeta(), d.MetaIsObject())
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	d := New(Meta{PluginID: "demo", Locale: "de", Author: "Jo"}, Dictionary{
		"zeta":  "Z <b>",
		"alpha": "A \"quoted\"",
	})

	out, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "{\n    \"$meta\": {\n") {
		t.Fatalf("$meta not written first:\n%s", s)
	}
	if strings.Index(s, `"alpha"`) > strings.Index(s, `"zeta"`) {
		t.Fatalf("programmatic keys not sorted:\n%s", s)
	}
	if !strings.Contains(s, "<b>") {
		t.Fatalf("HTML characters should not be escaped:\n%s", s)
	}

	back, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error: %v", err)
	}
	if !reflect.DeepEqual(back.Strings(), d.Strings()) {
		t.Fatalf("entries changed: %v vs %v", back.Strings(), d.Strings())
	}
	if back.Meta != d.Meta {
		t.Fatalf("meta changed: %#v vs %#v", back.Meta, d.Meta)
	}
}

func TestMarshal_Empty(t *testing.T) {
	out, err := (&Document{}).Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != "{}\n" {
		t.Fatalf("Marshal(empty) = %q", out)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := New(Meta{Locale: "fr"}, Dictionary{"a": "1"})
	c := d.Clone()
	c.Set("b", "2")
	c.Meta.Locale = "de"

	if d.Len() != 1 || d.Meta.Locale != "fr" {
		t.Fatalf("original modified through clone: len=%d meta=%#v", d.Len(), d.Meta)
	}
}

func TestMetaNamespaceID(t *testing.T) {
	cases := []struct {
		meta Meta
		want string
	}{
		{Meta{PluginID: "p", ThemeName: "t"}, "p"},
		{Meta{ThemeName: "t", ID: "legacy"}, "t"},
		{Meta{ID: "legacy"}, "legacy"},
		{Meta{}, ""},
	}
	for _, tc := range cases {
		if got := tc.meta.NamespaceID(); got != tc.want {
			t.Fatalf("NamespaceID(%#v) = %q, want %q", tc.meta, got, tc.want)
		}
	}
}

func TestValidationResultSummary(t *testing.T) {
	ok := ValidationResult{Valid: true}
	if ok.Summary() != "valid" {
		t.Fatalf("Summary() = %q", ok.Summary())
	}
	ok.AddWarning("x", "unknown key")
	if !ok.Valid || ok.Summary() != "valid with 1 warning(s)" {
		t.Fatalf("Summary() = %q valid=%v", ok.Summary(), ok.Valid)
	}

	bad := Invalid("k", "value must be a string")
	if bad.Valid || bad.Summary() != "invalid: k: value must be a string" {
		t.Fatalf("Summary() = %q", bad.Summary())
	}
}
