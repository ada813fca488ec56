// internal/state/interface.go
package state

import (
	"context"

	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/playlist"
)

// RoomState is everything persisted for a room.
type RoomState struct {
	Player playback.Player
	Songs  []playlist.Song
}

// DefaultRoomState is the state of a room that was never saved.
func DefaultRoomState() *RoomState {
	return &RoomState{
		Player: playback.DefaultPlayer(),
		Songs:  []playlist.Song{},
	}
}

// Repository loads and saves room state. Load returns the default state for
// unknown rooms.
type Repository interface {
	Load(ctx context.Context, roomID string) (*RoomState, error)
	Save(ctx context.Context, roomID string, state RoomState) error
	Close() error
}

// Verify implementations at compile time.
var (
	_ Repository = (*Store)(nil)
	_ Repository = (*Memory)(nil)
)
