// internal/state/memory.go
package state

import (
	"context"
	"sync"

	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/playlist"
)

// Memory is an in-process repository. State is lost on exit.
type Memory struct {
	mu     sync.Mutex
	rooms  map[string]RoomState
	saves  int
	closed bool
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]RoomState)}
}

func (m *Memory) Load(_ context.Context, roomID string) (*RoomState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.rooms[roomID]
	if !ok {
		return DefaultRoomState(), nil
	}
	c := clone(st)
	return &c, nil
}

func (m *Memory) Save(_ context.Context, roomID string, st RoomState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms[roomID] = clone(st)
	m.saves++
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Set stores a room state directly.
func (m *Memory) Set(roomID string, st RoomState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID] = clone(st)
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// IsClosed reports whether Close was called.
func (m *Memory) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func clone(st RoomState) RoomState {
	return RoomState{
		Player: playback.Player{
			CurrentIndex:   st.Player.CurrentIndex,
			Playing:        st.Player.Playing,
			Started:        st.Player.Started,
			SkipVotes:      append([]string{}, st.Player.SkipVotes...),
			PreviousTracks: append([]int{}, st.Player.PreviousTracks...),
		},
		Songs: append([]playlist.Song{}, st.Songs...),
	}
}
