// Package i18n translates the messages printed by the polyglot command.
//
// Catalogs are gettext .po files under locales/, compiled into the binary.
// The command calls Init once before building its cobra tree; every help
// text and log line then goes through T or N:
//
//	i18n.Init("")
//	logSuccess("%s", i18n.T("Sync complete!"))
//	logInfo(i18n.N("%d dictionary to download", "%d dictionaries to download", n), n)
//
// Unlike the dictionaries polyglot manages for extensions, these catalogs
// cover only the tool itself.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"

	"github.com/minios-linux/polyglot/langmeta"
)

// locales holds locales/<lang>/LC_MESSAGES/polyglot.po.
//
//go:embed all:locales
var locales embed.FS

const domain = "polyglot"

var (
	mu       sync.RWMutex
	po       *gotext.Locale
	language string
)

// Init picks the catalog for lang, or for the session language when lang
// is empty. The embedded catalog closest to lang is chosen, so "ru_RU"
// loads "ru"; a language without a catalog leaves messages in English.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	if match := langmeta.Match(Available(), lang); match != "" {
		lang = match
	}

	cat := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	cat.AddDomain(domain)
	cat.SetDomain(domain)

	mu.Lock()
	po, language = cat, lang
	mu.Unlock()
}

// Language returns the language selected by Init, or "" before Init.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	return language
}

// Available lists the languages that have an embedded catalog, sorted.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

func current() *gotext.Locale {
	mu.RLock()
	defer mu.RUnlock()
	return po
}

// T returns the catalog text for msgid, or msgid itself when the catalog
// has no entry or Init has not run.
func T(msgid string) string {
	cat := current()
	if cat == nil {
		return msgid
	}
	return cat.Get(msgid)
}

// N picks the plural form of a message for count n using the catalog's
// Plural-Forms rule. Without a catalog, singular is used only for n == 1.
func N(singular, plural string, n int) string {
	cat := current()
	if cat == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return cat.GetN(singular, plural, n)
}

// sessionVars are consulted in gettext priority order.
var sessionVars = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

// detectLanguage returns the first usable language from sessionVars,
// stripped of its codeset, or "en". The C and POSIX locales are skipped.
func detectLanguage() string {
	for _, name := range sessionVars {
		raw := os.Getenv(name)
		if name == "LANGUAGE" {
			raw, _, _ = strings.Cut(raw, ":")
		}
		lang, _, _ := strings.Cut(raw, ".")
		switch lang {
		case "", "C", "POSIX":
			continue
		}
		return lang
	}
	return "en"
}
