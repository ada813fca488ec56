package room

import (
	"time"

	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/playlist"
)

// SongView is the JSON form of a playlist entry.
type SongView struct {
	ID          string    `json:"youtubeID"`
	Title       string    `json:"title"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Snapshot is a read-only view of a room.
type Snapshot struct {
	Room      string     `json:"room"`
	State     string     `json:"state"`
	Playing   bool       `json:"playing"`
	Started   bool       `json:"started"`
	Current   *SongView  `json:"current"`
	Songs     []SongView `json:"songs"`
	SkipVotes []string   `json:"skipVotes"`
}

func newSnapshot(roomID string, p playback.Player, songs []playlist.Song) *Snapshot {
	s := &Snapshot{
		Room:      roomID,
		State:     p.State().String(),
		Playing:   p.Playing,
		Started:   p.Started,
		Songs:     make([]SongView, 0, len(songs)),
		SkipVotes: append([]string{}, p.SkipVotes...),
	}
	for _, song := range songs {
		s.Songs = append(s.Songs, viewOf(song))
	}
	if i := p.CurrentIndex; p.State().IsActive() && i >= 0 && i < len(s.Songs) {
		cur := s.Songs[i]
		s.Current = &cur
	}
	return s
}

func viewOf(s playlist.Song) SongView {
	return SongView{
		ID:          s.ID,
		Title:       s.Title,
		RequestedBy: s.RequestedBy,
		RequestedAt: s.RequestedAt,
	}
}
