// Package dictionary implements the dictionary document format shared by
// translators, the registry and the on-disk store.
//
// The expected file format is a flat JSON object with one reserved key:
//
//	{
//	    "$meta": {
//	        "pluginId": "demo",
//	        "locale": "fr",
//	        "dictVersion": "1718000000000"
//	    },
//	    "hello": "Bonjour",
//	    "hello_formal": "Bonjour à vous"
//	}
//
// Theme dictionaries carry "themeName" (legacy alias "id") instead of
// "pluginId". Values are expected to be strings; the parser keeps whatever
// the file contains so that validation can report non-string values instead
// of failing to decode.
package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MetaKey is the reserved key holding document metadata.
const MetaKey = "$meta"

// Dictionary is a flat key -> text mapping.
type Dictionary map[string]string

// Meta holds the $meta object of a dictionary document.
type Meta struct {
	PluginID          string `json:"pluginId,omitempty"`
	ThemeName         string `json:"themeName,omitempty"`
	ID                string `json:"id,omitempty"` // legacy alias of ThemeName
	Locale            string `json:"locale,omitempty"`
	DictVersion       string `json:"dictVersion,omitempty"`
	CompatibleVersion string `json:"compatibleVersion,omitempty"`
	Author            string `json:"author,omitempty"`
	Description       string `json:"description,omitempty"`
	// SourceHash is only set on generated theme base dictionaries.
	SourceHash string `json:"sourceHash,omitempty"`
}

// NamespaceID returns the namespace the document belongs to.
func (m Meta) NamespaceID() string {
	switch {
	case m.PluginID != "":
		return m.PluginID
	case m.ThemeName != "":
		return m.ThemeName
	default:
		return m.ID
	}
}

// metaFields lists the $meta fields in the order they are written.
var metaFields = []string{
	"pluginId", "themeName", "id", "locale", "dictVersion",
	"compatibleVersion", "author", "description", "sourceHash",
}

func (m *Meta) field(name string) *string {
	switch name {
	case "pluginId":
		return &m.PluginID
	case "themeName":
		return &m.ThemeName
	case "id":
		return &m.ID
	case "locale":
		return &m.Locale
	case "dictVersion":
		return &m.DictVersion
	case "compatibleVersion":
		return &m.CompatibleVersion
	case "author":
		return &m.Author
	case "description":
		return &m.Description
	case "sourceHash":
		return &m.SourceHash
	}
	return nil
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is a decoded dictionary file.
type Document struct {
	Meta Meta

	object       bool
	hasMeta      bool
	metaIsObject bool
	metaPresent  map[string]bool

	// keys preserves the original key order from the file.
	keys   []string
	values map[string]any
}

// New builds a document from metadata and string entries.
// Keys are written in sorted order.
func New(meta Meta, entries Dictionary) *Document {
	d := &Document{
		object: true,
		values: make(map[string]any, len(entries)),
	}
	d.SetMeta(meta)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, entries[k])
	}
	return d
}

// Parse parses dictionary JSON data, preserving key order.
// Malformed JSON is an error. Well-formed JSON that is not an object yields
// a document for which IsObject reports false.
func Parse(data []byte) (*Document, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		if err == nil {
			err = fmt.Errorf("invalid JSON")
		}
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	d := &Document{values: make(map[string]any)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return d, nil
	}
	d.object = true

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parsing value for key %q: %w", key, err)
		}

		if key == MetaKey {
			d.setRawMeta(value)
			continue
		}
		if _, dup := d.values[key]; !dup {
			d.keys = append(d.keys, key)
		}
		d.values[key] = value
	}

	return d, nil
}

func (d *Document) setRawMeta(raw any) {
	d.hasMeta = true
	d.metaPresent = make(map[string]bool)
	m, ok := raw.(map[string]any)
	if !ok {
		d.metaIsObject = false
		return
	}
	d.metaIsObject = true
	for _, name := range metaFields {
		v, ok := m[name]
		if !ok {
			continue
		}
		d.metaPresent[name] = true
		*d.Meta.field(name) = scalarString(v)
	}
}

// scalarString renders a decoded JSON scalar as a string.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// IsObject reports whether the parsed payload was a JSON object.
func (d *Document) IsObject() bool { return d.object }

// HasMeta reports whether a $meta entry is present.
func (d *Document) HasMeta() bool { return d.hasMeta }

// MetaIsObject reports whether $meta, when present, is a JSON object.
func (d *Document) MetaIsObject() bool { return d.metaIsObject }

// HasMetaField reports whether the named $meta field was present.
func (d *Document) HasMetaField(name string) bool { return d.metaPresent[name] }

// SetMeta replaces the document metadata.
func (d *Document) SetMeta(m Meta) {
	d.Meta = m
	d.hasMeta = true
	d.metaIsObject = true
	d.metaPresent = make(map[string]bool)
	for _, name := range metaFields {
		if *m.field(name) != "" {
			d.metaPresent[name] = true
		}
	}
}

// Keys returns the entry keys in document order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries, excluding $meta.
func (d *Document) Len() int { return len(d.keys) }

// Value returns the raw decoded value for key.
func (d *Document) Value(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Get returns the string value for key.
func (d *Document) Get(key string) (string, bool) {
	s, ok := d.values[key].(string)
	return s, ok
}

// Set stores a string entry, appending new keys at the end.
func (d *Document) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	d.object = true
}

// Strings returns the string-valued entries.
func (d *Document) Strings() Dictionary {
	out := make(Dictionary, len(d.keys))
	for _, k := range d.keys {
		if s, ok := d.values[k].(string); ok {
			out[k] = s
		}
	}
	return out
}

// Clone returns a copy that can be modified independently.
func (d *Document) Clone() *Document {
	c := &Document{
		Meta:         d.Meta,
		object:       d.object,
		hasMeta:      d.hasMeta,
		metaIsObject: d.metaIsObject,
		metaPresent:  make(map[string]bool, len(d.metaPresent)),
		keys:         d.Keys(),
		values:       make(map[string]any, len(d.values)),
	}
	for k, v := range d.metaPresent {
		c.metaPresent[k] = v
	}
	for k, v := range d.values {
		c.values[k] = v
	}
	return c
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal produces JSON with 4-space indentation, $meta first and entries
// in document order.
func (d *Document) Marshal() ([]byte, error) {
	var lines []string

	if d.hasMeta {
		var fields []string
		for _, name := range metaFields {
			v := *d.Meta.field(name)
			if v == "" {
				continue
			}
			s, err := jsonValue(v)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fmt.Sprintf("        %q: %s", name, s))
		}
		if len(fields) == 0 {
			lines = append(lines, fmt.Sprintf("    %q: {}", MetaKey))
		} else {
			lines = append(lines, fmt.Sprintf("    %q: {\n%s\n    }", MetaKey, strings.Join(fields, ",\n")))
		}
	}

	for _, k := range d.keys {
		key, err := jsonValue(k)
		if err != nil {
			return nil, err
		}
		val, err := jsonValue(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding value for key %q: %w", k, err)
		}
		lines = append(lines, fmt.Sprintf("    %s: %s", key, val))
	}

	if len(lines) == 0 {
		return []byte("{}\n"), nil
	}

	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}\n")
	return []byte(b.String()), nil
}

// jsonValue encodes v as compact JSON without HTML escaping.
func jsonValue(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
