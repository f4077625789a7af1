// Package dedup holds the set of listing ids already notified and the stores
// that persist it between runs.
package dedup

import "sort"

// Set is a set of listing identifiers.
type Set map[string]struct{}

// NewSet returns a set containing ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	s.Add(ids...)
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids.
func (s Set) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Len returns the number of ids.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new set holding the ids of s and other.
func (s Set) Union(other Set) Set {
	out := s.Clone()
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// IsSuperset reports whether every id of other is in s.
func (s Set) IsSuperset(other Set) bool {
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
