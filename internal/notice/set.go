package notice

import "bitbucket.org/creachadair/stringset"

// Set is a first-seen ordered set of notice strings.
type Set struct {
	items []string
	seen  stringset.Set
}

// Add inserts value unless it is already present and reports whether it was
// inserted.
func (s *Set) Add(value string) bool {
	if !s.seen.Add(value) {
		return false
	}
	s.items = append(s.items, value)
	return true
}

func (s *Set) Contains(value string) bool {
	return s.seen.Contains(value)
}

func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the notices in insertion order.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
