// internal/playback/room.go
package playback

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/llehouerou/roomdj/internal/playlist"
	"github.com/llehouerou/roomdj/internal/vote"
)

// UpcomingLimit is the number of songs listed by Upcoming.
const UpcomingLimit = 5

// Chat replies.
const (
	TextNotEnoughSongs = "Not enough songs in the playlist to skip! Add more songs!"
	TextVotesMet       = "Required votes to skip met, skipping song."
	TextNothingPlaying = "No song currently playing."
	TextNothingToDrop  = "There is no song to remove."
	TextEmptyPlaylist  = "The playlist is empty."
)

// ErrUnknownEvent is returned for surface events the room does not handle.
var ErrUnknownEvent = errors.New("unknown surface event")

// Actor identifies who issued a command.
type Actor struct {
	Name      string
	Moderator bool
}

// Options configures a Room.
type Options struct {
	VotesToSkip int
	Selector    *playlist.Selector // nil uses an unseeded selector
}

// Room is the playback state machine of a single room. It is not safe for
// concurrent use; callers serialize access per room.
type Room struct {
	playlist *playlist.Playlist
	history  *playlist.History
	ballot   *vote.Ballot
	selector *playlist.Selector

	currentIndex int
	playing      bool
	started      bool

	effects Effects
}

// New builds a room from a saved player and playlist.
func New(p Player, songs []playlist.Song, opts Options) *Room {
	sel := opts.Selector
	if sel == nil {
		sel = playlist.NewSelector(nil)
	}
	return &Room{
		playlist:     playlist.NewPlaylist(songs...),
		history:      playlist.NewHistory(p.PreviousTracks),
		ballot:       vote.NewBallot(opts.VotesToSkip, p.SkipVotes),
		selector:     sel,
		currentIndex: p.CurrentIndex,
		playing:      p.Playing,
		started:      p.Started,
	}
}

// Player returns the persisted form of the cursor.
func (r *Room) Player() Player {
	return Player{
		CurrentIndex:   r.currentIndex,
		Playing:        r.playing,
		Started:        r.started,
		SkipVotes:      r.ballot.Voters(),
		PreviousTracks: r.history.Indices(),
	}
}

// Songs returns a copy of the playlist.
func (r *Room) Songs() []playlist.Song {
	return r.playlist.Songs()
}

// CurrentSong returns the song under the cursor, or nil.
func (r *Room) CurrentSong() *playlist.Song {
	s := r.playlist.Song(r.currentIndex)
	if s == nil {
		return nil
	}
	song := *s
	return &song
}

func (r *Room) flush() Effects {
	e := r.effects
	r.effects = Effects{}
	return e
}

// Reset prepares the room after a restart: nothing is playing, playback has
// to be started again and pending votes are dropped.
func (r *Room) Reset() Effects {
	r.playing = false
	r.started = false
	r.ballot.Clear()
	r.effects.Changed = true
	return r.flush()
}

// Add appends a looked-up song and tells the requester.
func (r *Room) Add(song playlist.Song) Effects {
	r.playlist.Add(song)
	r.effects.Changed = true
	r.effects.replyTo(song.RequestedBy, song.Title+" has been added to the playlist!")
	return r.flush()
}

// Skip skips immediately for moderators and records a vote for everyone
// else.
func (r *Room) Skip(a Actor) Effects {
	if a.Moderator {
		r.skip()
		return r.flush()
	}

	res := r.ballot.Register(a.Name)
	if res.AlreadyVoted {
		return r.flush()
	}
	r.effects.Changed = true

	if res.ThresholdMet {
		r.effects.say(TextVotesMet)
		r.skip()
		return r.flush()
	}

	r.effects.say(fmt.Sprintf("Song skip vote recorded. %d more %s needed to skip song.",
		res.Remaining, english.PluralWord(res.Remaining, "vote", "")))
	return r.flush()
}

// Play starts playback. The first play of a session also selects a song.
func (r *Room) Play(a Actor) Effects {
	if !a.Moderator {
		return r.flush()
	}
	r.playing = true
	r.effects.Changed = true
	if !r.started {
		r.started = true
		r.skip()
	}
	r.effects.send(SurfaceMessage{Message: MsgPlay})
	return r.flush()
}

// Pause pauses playback.
func (r *Room) Pause(a Actor) Effects {
	if !a.Moderator {
		return r.flush()
	}
	r.playing = false
	r.effects.Changed = true
	r.effects.send(SurfaceMessage{Message: MsgPause})
	return r.flush()
}

// Remove drops the current song and moves on to another one.
func (r *Room) Remove(a Actor) Effects {
	if !a.Moderator {
		return r.flush()
	}
	if r.playlist.IsEmpty() {
		r.effects.say(TextNothingToDrop)
		return r.flush()
	}
	// A stale cursor past the end removes the last song.
	r.currentIndex = min(r.currentIndex, r.playlist.Len()-1)
	r.playlist.Remove(r.currentIndex)
	r.history.Removed(r.currentIndex)
	// Step back so the skip below leaves from the song before the removed one.
	if r.currentIndex > 0 {
		r.currentIndex--
	}
	r.effects.Changed = true
	r.skip()
	return r.flush()
}

// Current reports the song that is playing.
func (r *Room) Current() Effects {
	song := r.playlist.Song(r.currentIndex)
	if !r.playing || song == nil {
		r.effects.say(TextNothingPlaying)
		return r.flush()
	}
	r.effects.say("Current song: " + song.Title)
	return r.flush()
}

// Upcoming lists the most recently requested songs. Songs are picked at
// random, so the listing says nothing about play order.
func (r *Room) Upcoming(now time.Time) Effects {
	latest := r.playlist.Latest(UpcomingLimit)
	if len(latest) == 0 {
		r.effects.say(TextEmptyPlaylist)
		return r.flush()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s in the playlist, most recent requests (played in random order):",
		english.Plural(r.playlist.Len(), "song", ""))
	for _, s := range latest {
		fmt.Fprintf(&b, "\n%q requested by %s %s", s.Title, s.RequestedBy,
			humanize.RelTime(s.RequestedAt, now, "ago", "from now"))
	}
	r.effects.say(b.String())
	return r.flush()
}

// HandleEvent reconciles a report from the playback surface.
func (r *Room) HandleEvent(ev SurfaceEvent) (Effects, error) {
	switch ev.Message {
	case EventIsPlaying:
		// A stopped report also clears started, so the next play
		// selects a fresh song.
		r.playing = ev.Data
		r.started = ev.Data
		r.effects.Changed = true
	case EventSongEnded:
		r.skip()
	default:
		return r.flush(), errors.Wrapf(ErrUnknownEvent, "%q", ev.Message)
	}
	return r.flush(), nil
}

// skip moves the cursor to a random song that was not played recently.
func (r *Room) skip() {
	n := r.playlist.Len()
	if n < playlist.MinSongsToSkip {
		r.effects.say(TextNotEnoughSongs)
		return
	}

	r.history.MakeRoom(n)
	r.history.Push(r.currentIndex)

	next, err := r.selector.Next(n, r.history.Indices())
	if err != nil {
		r.effects.say(TextNotEnoughSongs)
		return
	}

	from := r.currentIndex
	r.currentIndex = next
	r.ballot.Clear()
	r.effects.Changed = true
	r.effects.Skips = append(r.effects.Skips, SkipChange{From: from, To: next, Length: n})

	if r.playing {
		r.effects.send(SurfaceMessage{
			Message:   MsgSkip,
			YouTubeID: r.playlist.Song(next).ID,
		})
	}
}
