package match

// Selection models keyboard navigation over a ranked result list: a
// highlighted index clamped to [-1, size-1], where -1 means nothing is
// highlighted.
type Selection struct {
	size  int
	index int
}

// NewSelection creates a selection over a list of the given size with
// nothing highlighted
func NewSelection(size int) *Selection {
	if size < 0 {
		size = 0
	}
	return &Selection{size: size, index: -1}
}

// Next moves the highlight down one entry, stopping at the last one
func (s *Selection) Next() int {
	if s.index < s.size-1 {
		s.index++
	}
	return s.index
}

// Prev moves the highlight up one entry, stopping at -1 (nothing highlighted)
func (s *Selection) Prev() int {
	if s.index > -1 {
		s.index--
	}
	return s.index
}

// Index returns the currently highlighted index, or -1
func (s *Selection) Index() int {
	return s.index
}

// Commit returns the highlighted index if an entry is highlighted
func (s *Selection) Commit() (int, bool) {
	if s.index < 0 || s.index >= s.size {
		return -1, false
	}
	return s.index, true
}

// Dismiss clears the highlight
func (s *Selection) Dismiss() {
	s.index = -1
}
