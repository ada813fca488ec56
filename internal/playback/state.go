// internal/playback/state.go
package playback

// State represents the playback state as seen by the room.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// Player is the persisted per-room playback cursor.
type Player struct {
	CurrentIndex   int      // position in the playlist, valid while it is non-empty
	Playing        bool     // the surface is (believed to be) playing
	Started        bool     // playback was initiated this session
	SkipVotes      []string // distinct voters for the current song
	PreviousTracks []int    // recently played indices, oldest first
}

// DefaultPlayer returns the state of a room that never played anything.
func DefaultPlayer() Player {
	return Player{
		SkipVotes:      []string{},
		PreviousTracks: []int{},
	}
}

// State derives the playback state from the playing and started flags.
func (p Player) State() State {
	switch {
	case p.Playing:
		return StatePlaying
	case p.Started:
		return StatePaused
	default:
		return StateStopped
	}
}
