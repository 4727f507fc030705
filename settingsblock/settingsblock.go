// Package settingsblock harvests human-readable strings from the
// "@settings" blocks embedded in theme stylesheets.
//
// A block is a CSS comment whose body is a YAML document:
//
//	/* @settings
//	name: Minimal
//	id: minimal-style
//	settings:
//	  - id: accent
//	    title: Accent color
//	    description: Used for links and buttons
//	    type: variable-color
//	  - id: font
//	    title: Font
//	    type: class-select
//	    options:
//	      - label: Serif
//	        value: font-serif
//	*/
//
// Every harvested string becomes its own key and default value, which
// makes the result usable directly as a theme's base dictionary.
package settingsblock

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/polyglot/dictionary"
)

// IDsKey is the reserved key holding the JSON list of block ids.
const IDsKey = "@@ids"

var blockRe = regexp.MustCompile(`(?s)/\*\s*@settings(.*?)\*/`)

// itemFields are the per-item fields shown to users.
var itemFields = []string{"title", "label", "description", "placeholder"}

// Result is the outcome of Extract.
type Result struct {
	// Strings maps each harvested string to itself. When any block has an
	// id, Strings[IDsKey] holds the JSON-encoded id list.
	Strings dictionary.Dictionary
	// IDs lists the top-level block ids in order of appearance.
	IDs []string
	// Hash is the Fingerprint of the full input text.
	Hash string
}

// Extract finds every @settings block in text and collects its strings.
// A block that fails to parse is logged and skipped.
func Extract(text string, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	res := Result{
		Strings: make(dictionary.Dictionary),
		Hash:    Fingerprint(text),
	}

	for i, m := range blockRe.FindAllStringSubmatch(text, -1) {
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(normalizeIndent(m[1])), &doc); err != nil {
			logger.Warn("skipping unparsable @settings block", "block", i, "err", err)
			continue
		}
		if doc == nil {
			continue
		}

		if id, ok := doc["id"].(string); ok && id != "" {
			res.IDs = append(res.IDs, id)
		}
		for _, field := range []string{"name", "description"} {
			res.add(doc[field])
		}
		res.collectItems(doc["settings"])
	}

	if len(res.IDs) > 0 {
		ids, _ := json.Marshal(res.IDs)
		res.Strings[IDsKey] = string(ids)
	}
	return res
}

// Keys returns the harvested strings sorted, without IDsKey.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r.Strings))
	for k := range r.Strings {
		if k != IDsKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (r *Result) add(v any) {
	s, ok := v.(string)
	if !ok {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	r.Strings[s] = s
}

func (r *Result) collectItems(v any) {
	items, ok := v.([]any)
	if !ok {
		return
	}
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for _, field := range itemFields {
			r.add(item[field])
		}
		r.collectOptions(item["options"])
		r.collectItems(item["settings"])
	}
}

func (r *Result) collectOptions(v any) {
	switch opts := v.(type) {
	case []any:
		for _, o := range opts {
			switch opt := o.(type) {
			case map[string]any:
				r.add(opt["label"])
			case string:
				r.add(opt)
			}
		}
	case map[string]any:
		// value -> label
		for _, label := range opts {
			r.add(label)
		}
	}
}

// normalizeIndent replaces leading tabs with two spaces each; YAML does
// not allow tab indentation.
func normalizeIndent(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		n := 0
		for n < len(line) && line[n] == '\t' {
			n++
		}
		if n > 0 {
			lines[i] = strings.Repeat("  ", n) + line[n:]
		}
	}
	return strings.Join(lines, "\n")
}
