package settingsblock

import (
	"strconv"
	"unicode/utf16"
)

// Fingerprint returns a fast, non-cryptographic 53-bit hash of text as a
// lowercase hex string.
//
// Two 32-bit multiplicative accumulators are fed every UTF-16 code unit,
// cross-mixed at the end and packed as (h2 & 0x1fffff)<<32 | h1. The
// result only has to be stable across runs and platforms; it is compared
// with the sourceHash stored in a previously generated dictionary.
func Fingerprint(text string) string {
	h1 := uint32(0xdeadbeef)
	h2 := uint32(0x41c6ce57)

	for _, c := range utf16.Encode([]rune(text)) {
		h1 = (h1 ^ uint32(c)) * 2654435761
		h2 = (h2 ^ uint32(c)) * 1597334677
	}

	h1 = (h1 ^ (h1 >> 16)) * 2246822507
	h1 ^= (h2 ^ (h2 >> 13)) * 3266489909
	h2 = (h2 ^ (h2 >> 16)) * 2246822507
	h2 ^= (h1 ^ (h1 >> 13)) * 3266489909

	return strconv.FormatUint(uint64(h2&0x1fffff)<<32|uint64(h1), 16)
}
