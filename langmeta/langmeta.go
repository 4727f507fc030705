// Package langmeta provides locale canonicalization and display metadata
// (native and English names, emoji flags) for the CLI and status output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Tag is the canonical BCP 47 form, or the input when it cannot be
	// parsed.
	Tag string
	// Name is the language's own name for itself ("Deutsch").
	Name string
	// English is the English name ("German").
	English string
	Flag    string
}

// Canonicalize normalizes a locale code: "pt_br" -> "pt-BR",
// " EN-us " -> "en-US". Codes x/text cannot parse are normalized by case
// only.
func Canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	if tag, err := language.Parse(normalized); err == nil {
		return tag.String()
	}

	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a locale code. Unknown codes
// yield their input as the name and no flag.
func Resolve(lang string) Meta {
	canonical := Canonicalize(lang)
	tag, err := language.Parse(canonical)
	if err != nil || canonical == "" {
		return Meta{Tag: canonical, Name: lang, English: lang}
	}

	m := Meta{
		Tag:     canonical,
		Name:    display.Self.Name(tag),
		English: display.English.Tags().Name(tag),
	}
	if m.Name == "" {
		m.Name = lang
	}
	if m.English == "" {
		m.English = m.Name
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flag(region.String())
	}
	return m
}

// Label renders "Name (tag)" for lists, or just the tag when no name is
// known.
func Label(lang string) string {
	m := Resolve(lang)
	if m.Name == "" || m.Name == lang {
		return lang
	}
	if m.Flag != "" {
		return m.Flag + " " + m.Name + " (" + lang + ")"
	}
	return m.Name + " (" + lang + ")"
}

// Match picks the entry of available that best serves wanted, or "" when
// nothing matches with at least low confidence.
func Match(available []string, wanted string) string {
	if len(available) == 0 || strings.TrimSpace(wanted) == "" {
		return ""
	}
	tags := make([]language.Tag, 0, len(available))
	idx := make([]int, 0, len(available))
	for i, a := range available {
		t, err := language.Parse(Canonicalize(a))
		if err != nil {
			continue
		}
		tags = append(tags, t)
		idx = append(idx, i)
	}
	if len(tags) == 0 {
		return ""
	}

	want, err := language.Parse(Canonicalize(wanted))
	if err != nil {
		return ""
	}
	_, i, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return ""
	}
	return available[idx[i]]
}

// flag converts a two-letter region code to its emoji flag.
func flag(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(region) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
