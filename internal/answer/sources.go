package answer

// SourceSet is an insertion-ordered set of sources keyed by URI. The first
// title seen for a URI wins. The zero value is ready to use.
type SourceSet struct {
	items []Source
	index map[string]int
}

// Add inserts src unless its URI is empty or already present.
func (s *SourceSet) Add(src Source) bool {
	if src.URI == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[src.URI]; ok {
		return false
	}
	s.index[src.URI] = len(s.items)
	s.items = append(s.items, src)
	return true
}

// Merge adds every source in srcs.
func (s *SourceSet) Merge(srcs []Source) {
	for _, src := range srcs {
		s.Add(src)
	}
}

func (s *SourceSet) Len() int { return len(s.items) }

// List returns a copy of the set in insertion order.
func (s *SourceSet) List() []Source {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Source, len(s.items))
	copy(out, s.items)
	return out
}
