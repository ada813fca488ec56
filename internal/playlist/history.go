package playlist

// History keeps the indices of recently played songs, oldest first.
// It is bounded relative to the playlist length so that the selector always
// has at least one index left to choose from.
type History struct {
	indices []int
}

// NewHistory creates a history from previously saved indices.
func NewHistory(indices []int) *History {
	h := &History{
		indices: make([]int, 0, len(indices)+1),
	}
	h.indices = append(h.indices, indices...)
	return h
}

// Limit returns the maximum history size for a playlist of n songs.
func Limit(n int) int {
	return (n + 1) / 2
}

// MakeRoom evicts the oldest entries until one more index fits under the
// limit for a playlist of n songs. Returns the number of evicted entries.
func (h *History) MakeRoom(n int) int {
	limit := Limit(n)
	evicted := 0
	for len(h.indices) > 0 && len(h.indices)+1 > limit {
		h.indices = h.indices[1:]
		evicted++
	}
	return evicted
}

// Push appends an index as the most recently played.
func (h *History) Push(index int) {
	h.indices = append(h.indices, index)
}

// Removed updates the history after the song at index was removed from the
// playlist: entries for that song are dropped and later entries shift down.
func (h *History) Removed(index int) {
	kept := h.indices[:0]
	for _, i := range h.indices {
		switch {
		case i == index:
			continue
		case i > index:
			kept = append(kept, i-1)
		default:
			kept = append(kept, i)
		}
	}
	h.indices = kept
}

// Indices returns a copy of the history, oldest first.
func (h *History) Indices() []int {
	result := make([]int, len(h.indices))
	copy(result, h.indices)
	return result
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.indices)
}
