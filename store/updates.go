package store

import (
	"context"
	"sort"

	"github.com/minios-linux/polyglot/cloud"
	"github.com/minios-linux/polyglot/lockfile"
)

// Updates returns the catalog rows for installed dictionaries whose
// remote dictVersion is newer than the stored one. Rows for dictionaries
// that are not installed are not updates and are left out.
func (s *Store) Updates(ctx context.Context, catalog []cloud.RemoteDictionary) []cloud.RemoteDictionary {
	installed := make(map[string]string)
	for _, e := range s.ListAll(ctx) {
		installed[Path(e.Kind, e.Namespace, e.Locale)] = e.DictVersion
	}

	var out []cloud.RemoteDictionary
	for _, r := range catalog {
		local, ok := installed[Path(Kind(r.Kind), r.NamespaceID, r.Locale)]
		if !ok {
			continue
		}
		if local == UnknownVersion {
			local = ""
		}
		if cloud.IsNewer(local, r.DictVersion) {
			out = append(out, r)
		}
	}
	return out
}

// OutdatedKeys returns the keys of a plugin overlay whose base text has
// changed since the overlay was saved, sorted. It needs the namespace to
// be registered; otherwise there is no base to compare with.
func (s *Store) OutdatedKeys(ctx context.Context, namespace, locale string) []string {
	base, ok := s.base(namespace)
	if !ok {
		return nil
	}
	doc := s.Load(ctx, Plugins, namespace, locale)
	if doc == nil {
		return nil
	}

	s.lockMu.Lock()
	lf, err := lockfile.Load(ctx, s.st)
	s.lockMu.Unlock()
	if err != nil {
		s.logger.Warn("lock file unreadable", "err", err)
		return nil
	}

	entries := make(map[string]string)
	for _, k := range doc.Keys() {
		if text, ok := base[k]; ok {
			entries[k] = text
		}
	}

	changed := lf.FilterChanged(lockfile.TargetKey(namespace, locale), entries)
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
