package playlist

import (
	"math/rand/v2"
	"slices"

	"github.com/cockroachdb/errors"
)

// MinSongsToSkip is the smallest playlist that can be skipped through.
const MinSongsToSkip = 3

// attemptsPerSong bounds the rejection sampler relative to playlist size.
const attemptsPerSong = 64

// ErrNotEnoughSongs is returned when the playlist is too short to pick a
// different song.
var ErrNotEnoughSongs = errors.New("not enough songs to skip")

// Selector picks the next song index at random, avoiding recent history.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector backed by the given random source.
// A nil source uses the runtime's global generator.
func NewSelector(src rand.Source) *Selector {
	s := &Selector{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

func (s *Selector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}

// Next draws a uniformly random index in [0, n) that is not in exclude.
//
// Draws are rejected and retried while they hit an excluded index. After
// attemptsPerSong*n failed draws it picks among the remaining indices
// directly, and if exclude covers every index it returns the least recently
// played one (the oldest in-range entry of exclude).
func (s *Selector) Next(n int, exclude []int) (int, error) {
	if n < MinSongsToSkip {
		return 0, ErrNotEnoughSongs
	}

	for range attemptsPerSong * n {
		i := s.intN(n)
		if !slices.Contains(exclude, i) {
			return i, nil
		}
	}

	free := make([]int, 0, n)
	for i := range n {
		if !slices.Contains(exclude, i) {
			free = append(free, i)
		}
	}
	if len(free) > 0 {
		return free[s.intN(len(free))], nil
	}

	for _, i := range exclude {
		if i >= 0 && i < n {
			return i, nil
		}
	}
	return 0, nil
}
