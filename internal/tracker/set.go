package tracker

// orderedSet keeps insertion order so persisted arrays stay stable.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: make([]string, 0), index: make(map[string]struct{})}
}

// Add reports whether v was newly inserted.
func (s *orderedSet) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet) Len() int { return len(s.items) }

func (s *orderedSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
