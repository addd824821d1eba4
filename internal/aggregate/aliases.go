package aggregate

import (
	"fmt"
	"sort"
)

// AliasMap maps a canonical ("main") player name to the alias names credited to it.
// It is read-only once built and safe to share between runs.
type AliasMap map[string][]string

// Validate checks that no alias belongs to two canonicals and that no alias
// is itself a canonical name.
func (m AliasMap) Validate() error {
	owner := make(map[string]string)

	for _, canonical := range m.canonicals() {
		for _, alt := range m[canonical] {
			if alt == "" {
				return fmt.Errorf("canonical %q has an empty alias", canonical)
			}
			if alt == canonical {
				continue
			}
			if _, ok := m[alt]; ok {
				return fmt.Errorf("alias %q of %q is also a canonical name", alt, canonical)
			}
			if prev, ok := owner[alt]; ok && prev != canonical {
				return fmt.Errorf("alias %q is claimed by both %q and %q", alt, prev, canonical)
			}
			owner[alt] = canonical
		}
	}

	return nil
}

// Canonical returns the canonical name for name, or name itself.
func (m AliasMap) Canonical(name string) string {
	for canonical, alts := range m {
		for _, alt := range alts {
			if alt == name {
				return canonical
			}
		}
	}
	return name
}

// IsAlias reports whether name is listed as an alias of some other name.
func (m AliasMap) IsAlias(name string) bool {
	return m.Canonical(name) != name
}

// Len returns the number of alias names across all canonicals.
func (m AliasMap) Len() int {
	n := 0
	for _, alts := range m {
		n += len(alts)
	}
	return n
}

func (m AliasMap) canonicals() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
