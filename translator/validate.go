package translator

import (
	"fmt"

	"github.com/minios-linux/polyglot/dictionary"
)

// Validate checks doc against the base dictionary without loading it.
//
// Errors: payload is not an object, $meta is not an object, a value is not
// a string. Warnings: missing $meta.locale or $meta.dictVersion, keys not in
// the base dictionary, base keys missing from doc.
func (t *Translator) Validate(doc *dictionary.Document) dictionary.ValidationResult {
	res := dictionary.ValidationResult{Valid: true}

	if doc == nil || !doc.IsObject() {
		res.AddError("", "dictionary must be a JSON object")
		return res
	}

	if doc.HasMeta() {
		if !doc.MetaIsObject() {
			res.AddError(dictionary.MetaKey, "$meta must be an object")
		} else {
			for _, field := range []string{"locale", "dictVersion"} {
				if !doc.HasMetaField(field) {
					res.AddWarning(dictionary.MetaKey, fmt.Sprintf("missing $meta.%s", field))
				}
			}
		}
	}

	present := make(map[string]bool, doc.Len())
	for _, key := range doc.Keys() {
		present[key] = true
		v, _ := doc.Value(key)
		if _, ok := v.(string); !ok {
			res.AddError(key, fmt.Sprintf("value must be a string, got %s", jsonKind(v)))
			continue
		}
		if _, known := t.base[key]; !known {
			res.AddWarning(key, "key not present in base dictionary")
		}
	}

	for _, key := range sortedKeys(t.base) {
		if !present[key] {
			res.AddWarning(key, "missing translation")
		}
	}

	return res
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	default:
		return "number"
	}
}
