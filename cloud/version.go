package cloud

import (
	"strconv"
	"strings"
)

// IsNewer reports whether remote is a newer dictVersion than local.
//
// When both versions are plain digit strings (millisecond timestamps, in
// practice) they are compared as integers of any length. Otherwise both
// are split on "." and compared component by component as integers, the
// shorter one padded with zeros; non-numeric components count as 0. An
// empty local version is always older.
func IsNewer(local, remote string) bool {
	local = strings.TrimSpace(local)
	remote = strings.TrimSpace(remote)
	if local == "" {
		return true
	}

	if isDigits(local) && isDigits(remote) {
		return compareDigits(local, remote) < 0
	}

	lp := strings.Split(local, ".")
	rp := strings.Split(remote, ".")
	n := max(len(lp), len(rp))
	for i := 0; i < n; i++ {
		l, r := component(lp, i), component(rp, i)
		if l != r {
			return r > l
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// compareDigits compares two non-negative decimal strings numerically.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return 0
	}
	return n
}
