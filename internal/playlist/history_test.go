package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{10, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Limit(tt.n), "Limit(%d)", tt.n)
	}
}

func TestHistory_MakeRoom_EvictsOldestFirst(t *testing.T) {
	h := NewHistory([]int{4, 1})

	evicted := h.MakeRoom(4)

	assert.Equal(t, 1, evicted)
	assert.Equal(t, []int{1}, h.Indices())
}

func TestHistory_MakeRoom_NothingToEvict(t *testing.T) {
	h := NewHistory([]int{0})

	evicted := h.MakeRoom(5)

	assert.Equal(t, 0, evicted)
	assert.Equal(t, []int{0}, h.Indices())
}

func TestHistory_MakeRoom_AfterPlaylistShrank(t *testing.T) {
	h := NewHistory([]int{0, 1, 2, 3, 4})

	evicted := h.MakeRoom(3)

	assert.Equal(t, 4, evicted)
	assert.Equal(t, []int{4}, h.Indices())
}

func TestHistory_StaysBounded(t *testing.T) {
	for n := MinSongsToSkip; n <= 12; n++ {
		h := NewHistory(nil)
		for i := range 50 {
			h.MakeRoom(n)
			h.Push(i % n)
			assert.LessOrEqual(t, h.Len(), Limit(n), "n=%d after push %d", n, i)
		}
	}
}

func TestHistory_Removed(t *testing.T) {
	h := NewHistory([]int{0, 2, 3, 1})

	h.Removed(2)

	assert.Equal(t, []int{0, 2, 1}, h.Indices())
}

func TestHistory_Indices_ReturnsCopy(t *testing.T) {
	h := NewHistory([]int{1, 2})

	indices := h.Indices()
	indices[0] = 9

	assert.Equal(t, []int{1, 2}, h.Indices())
}
