package playlist

import "time"

// Song represents a single requested video in a room playlist.
// Songs are identified by their position; the same ID may appear twice.
type Song struct {
	ID          string    // external video id
	RequestedBy string    // user who requested the song
	RequestedAt time.Time // when the request was accepted
	Title       string
}

// Playlist holds an ordered collection of songs.
type Playlist struct {
	songs []Song
}

// NewPlaylist creates a playlist holding a copy of songs.
func NewPlaylist(songs ...Song) *Playlist {
	p := &Playlist{
		songs: make([]Song, 0, len(songs)),
	}
	p.songs = append(p.songs, songs...)
	return p
}

// Add appends songs to the playlist.
func (p *Playlist) Add(songs ...Song) {
	p.songs = append(p.songs, songs...)
}

// Remove removes the song at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.songs) {
		return false
	}
	p.songs = append(p.songs[:index], p.songs[index+1:]...)
	return true
}

// Songs returns a copy of all songs.
func (p *Playlist) Songs() []Song {
	result := make([]Song, len(p.songs))
	copy(result, p.songs)
	return result
}

// Song returns the song at the given index, or nil if out of bounds.
func (p *Playlist) Song(index int) *Song {
	if index < 0 || index >= len(p.songs) {
		return nil
	}
	return &p.songs[index]
}

// Len returns the number of songs.
func (p *Playlist) Len() int {
	return len(p.songs)
}

// IsEmpty returns true if the playlist has no songs.
func (p *Playlist) IsEmpty() bool {
	return len(p.songs) == 0
}

// Latest returns up to n songs, most recently added first.
func (p *Playlist) Latest(n int) []Song {
	if n <= 0 || len(p.songs) == 0 {
		return nil
	}
	n = min(n, len(p.songs))
	result := make([]Song, 0, n)
	for i := len(p.songs) - 1; i >= len(p.songs)-n; i-- {
		result = append(result, p.songs[i])
	}
	return result
}
