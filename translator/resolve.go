package translator

import (
	"fmt"
	"regexp"
)

// Resolve returns the text for key in the current locale.
//
// Candidates are "key_context" (when params carries a non-empty context)
// and then "key". Each candidate is probed in the current-locale overlay and
// then in the base dictionary before moving to the next candidate:
//
//	(key_ctx, current) → (key_ctx, base) → (key, current) → (key, base)
//
// Empty values count as untranslated. When nothing matches, a warning is
// logged and key is returned unchanged.
func (t *Translator) Resolve(key string, params Params) string {
	text, ok := t.lookup(key, params)
	if !ok {
		t.logger.Warn("missing translation", "key", key, "locale", t.Locale())
		return key
	}
	return Interpolate(text, params)
}

// Has reports whether key resolves to a dictionary entry.
func (t *Translator) Has(key string) bool {
	_, ok := t.lookup(key, nil)
	return ok
}

func (t *Translator) lookup(key string, params Params) (string, bool) {
	candidates := []string{key}
	if ctx := contextOf(params); ctx != "" {
		candidates = []string{key + "_" + ctx, key}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.overlays[t.currentLocale]
	for _, k := range candidates {
		if v := current[k]; v != "" {
			t.lastSuccessful = t.currentLocale
			return v, true
		}
		if v := t.base[k]; v != "" {
			return v, true
		}
	}
	return "", false
}

func contextOf(params Params) string {
	v, ok := params[ContextParam]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// placeholderRe matches {{name}} or {name}; the double form is tried first.
var placeholderRe = regexp.MustCompile(`\{\{([\w.-]+)\}\}|\{([\w.-]+)\}`)

// Interpolate replaces {name} and {{name}} with the matching parameter in a
// single pass over text; substituted values are never scanned again. The
// context parameter is never substituted and placeholders without a
// parameter are left as they are.
func Interpolate(text string, params Params) string {
	if len(params) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if name == ContextParam {
			return m
		}
		v, ok := params[name]
		if !ok {
			return m
		}
		return valueString(v)
	})
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
