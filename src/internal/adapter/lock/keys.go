// Package lock provides the per-account locking used to serialize ledger
// mutations. Keys are always acquired in sorted order so two operations that
// touch the same pair of accounts cannot deadlock.
package lock

import (
	"sort"
	"strings"
)

func orderedKeys(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	sort.Strings(out)
	return out
}
