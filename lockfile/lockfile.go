// Package lockfile implements polyglot.lock, a file that remembers which
// base text each overlay key was translated from.
//
// For every saved overlay the store records md5(base text) per key. When
// an extension later changes a base string, the overlay entry for it is
// reported as outdated even though the key still exists.
//
// The lock file lives at dictionaries/polyglot.lock inside the storage
// root.
package lockfile

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/polyglot/storage"
)

// Path is the lock file location relative to the storage root.
const Path = "dictionaries/polyglot.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the polyglot.lock structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> key -> md5

	mu sync.Mutex `yaml:"-"`
}

// New returns an empty lock file.
func New() *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from st. A missing file yields an empty lock
// file.
func Load(ctx context.Context, st storage.Storage) (*LockFile, error) {
	lf := New()

	data, err := st.Read(ctx, Path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return lf, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path, err)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to st.
func (lf *LockFile) Save(ctx context.Context, st storage.Storage) error {
	lf.mu.Lock()
	data, err := yaml.Marshal(lf)
	lf.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	return st.Write(ctx, Path, data)
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TargetKey builds the target for one overlay: "<namespace>/<locale>".
func TargetKey(namespace, locale string) string {
	return namespace + "/" + locale
}

// UpdateBatch records checksums for multiple keys at once. entries maps
// key -> base text.
func (lf *LockFile) UpdateBatch(target string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	for key, source := range entries {
		lf.Checksums[target][key] = Hash(source)
	}
}

// FilterChanged returns the entries whose base text differs from the one
// recorded for target. Keys never recorded are left out: there is nothing
// to compare them against.
func (lf *LockFile) FilterChanged(target string, entries map[string]string) map[string]string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	changed := make(map[string]string)
	for key, content := range entries {
		old, ok := existing[key]
		if ok && old != Hash(content) {
			changed[key] = content
		}
	}
	return changed
}

// Clean drops checksums of keys no longer present in currentKeys.
func (lf *LockFile) Clean(target string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// RemoveTarget removes all checksums for a target.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// RemoveNamespace removes every target of a namespace.
func (lf *LockFile) RemoveNamespace(namespace string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	prefix := namespace + "/"
	for t := range lf.Checksums {
		if strings.HasPrefix(t, prefix) {
			delete(lf.Checksums, t)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns the sorted list of targets.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, n))
	}
	return fmt.Sprintf("%d targets, %d keys (%s)", targets, keys, strings.Join(parts, ", "))
}
