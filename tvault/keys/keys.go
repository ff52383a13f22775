// Package keys implements key normalization and the display grouping
// used by editor navigation. Keys are opaque slash-delimited strings;
// "directories" exist only as grouping prefixes, never as entities.
package keys

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidKey is returned for keys that fail normalization.
var ErrInvalidKey = errors.New("invalid key")

// Normalize strips leading and trailing slashes and rejects traversal
// segments. It is idempotent: Normalize(Normalize(k)) == Normalize(k).
func Normalize(key string) (string, error) {
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q contains a traversal segment", ErrInvalidKey, key)
	}
	trimmed := strings.Trim(key, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty after trimming", ErrInvalidKey)
	}
	return trimmed, nil
}

// Split returns the display prefix and filename of a normalized key.
// The prefix is everything before the final slash, empty for top-level keys.
func Split(key string) (prefix, filename string) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

// Join is the inverse of Split.
func Join(prefix, filename string) string {
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

// Group is one display bucket: all keys sharing the same prefix.
type Group struct {
	Prefix    string
	Filenames []string
}

// GroupKeys buckets keys by their display prefix. Groups are ordered by
// ascending prefix; within a group filenames starting with "index" come
// first, everything else in ascending lexicographic order. The result is
// deterministic regardless of input order.
func GroupKeys(ks []string) []Group {
	byPrefix := make(map[string][]string)
	for _, k := range ks {
		prefix, filename := Split(k)
		byPrefix[prefix] = append(byPrefix[prefix], filename)
	}

	prefixes := make([]string, 0, len(byPrefix))
	for prefix := range byPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	groups := make([]Group, 0, len(prefixes))
	for _, prefix := range prefixes {
		names := byPrefix[prefix]
		sort.Slice(names, func(i, j int) bool {
			ii := strings.HasPrefix(names[i], "index")
			ji := strings.HasPrefix(names[j], "index")
			if ii != ji {
				return ii
			}
			return names[i] < names[j]
		})
		groups = append(groups, Group{Prefix: prefix, Filenames: names})
	}
	return groups
}
