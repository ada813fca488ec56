// internal/playback/room_test.go
package playback

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/roomdj/internal/playlist"
)

var (
	mod  = Actor{Name: "mod", Moderator: true}
	user = Actor{Name: "u1"}
)

func songs(n int) []playlist.Song {
	result := make([]playlist.Song, n)
	for i := range n {
		result[i] = playlist.Song{
			ID:          fmt.Sprintf("vid%d", i),
			Title:       fmt.Sprintf("Song %d", i),
			RequestedBy: "u1",
		}
	}
	return result
}

func newTestRoom(p Player, n int) *Room {
	return New(p, songs(n), Options{
		VotesToSkip: 3,
		Selector:    playlist.NewSelector(rand.NewPCG(1, 2)),
	})
}

func texts(e Effects) []string {
	result := make([]string, len(e.Replies))
	for i, r := range e.Replies {
		result[i] = r.Text
	}
	return result
}

func TestRoom_Skip_SingleSkipScenario(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 3)

	e := r.Skip(mod)

	p := r.Player()
	assert.True(t, e.Changed)
	assert.Contains(t, []int{1, 2}, p.CurrentIndex)
	assert.Equal(t, []int{0}, p.PreviousTracks)
	require.Len(t, e.Skips, 1)
	assert.Equal(t, SkipChange{From: 0, To: p.CurrentIndex, Length: 3}, e.Skips[0])
}

func TestRoom_Skip_RefusedWithFewSongs(t *testing.T) {
	for n := range playlist.MinSongsToSkip {
		start := Player{CurrentIndex: 0, Playing: true, Started: true, SkipVotes: []string{}, PreviousTracks: []int{}}
		r := newTestRoom(start, n)

		e := r.Skip(mod)

		assert.False(t, e.Changed, "n=%d", n)
		assert.Empty(t, e.Surface, "n=%d", n)
		assert.Equal(t, []string{TextNotEnoughSongs}, texts(e), "n=%d", n)
		assert.Equal(t, start, r.Player(), "n=%d", n)
	}
}

func TestRoom_Skip_NeverRepeatsHistoryAndStaysBounded(t *testing.T) {
	for n := playlist.MinSongsToSkip; n <= 9; n++ {
		r := newTestRoom(DefaultPlayer(), n)
		for i := range 100 {
			from := r.Player().CurrentIndex
			r.Skip(mod)
			p := r.Player()
			// The history now holds exactly the indices excluded from this draw.
			assert.NotContains(t, p.PreviousTracks, p.CurrentIndex, "n=%d skip=%d", n, i)
			assert.NotEqual(t, from, p.CurrentIndex, "n=%d skip=%d", n, i)
			assert.LessOrEqual(t, len(p.PreviousTracks), playlist.Limit(n), "n=%d skip=%d", n, i)
		}
	}
}

func TestRoom_Skip_EmitsSurfaceOnlyWhenPlaying(t *testing.T) {
	r := newTestRoom(Player{Playing: true, Started: true}, 4)

	e := r.Skip(mod)

	require.Len(t, e.Surface, 1)
	assert.Equal(t, MsgSkip, e.Surface[0].Message)
	assert.Equal(t, r.CurrentSong().ID, e.Surface[0].YouTubeID)

	r = newTestRoom(Player{Started: true}, 4)
	e = r.Skip(mod)

	assert.Empty(t, e.Surface, "paused room advances without telling the surface")
	assert.NotEqual(t, 0, r.Player().CurrentIndex)
}

func TestRoom_VoteSkip_Scenario(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 4)

	e := r.Skip(Actor{Name: "u1"})
	assert.Equal(t, []string{"Song skip vote recorded. 2 more votes needed to skip song."}, texts(e))

	e = r.Skip(Actor{Name: "u2"})
	assert.Equal(t, []string{"Song skip vote recorded. 1 more vote needed to skip song."}, texts(e))
	assert.Equal(t, []string{"u1", "u2"}, r.Player().SkipVotes)
	assert.Equal(t, 0, r.Player().CurrentIndex)

	e = r.Skip(Actor{Name: "u3"})
	assert.Equal(t, []string{TextVotesMet}, texts(e))
	require.Len(t, e.Skips, 1)
	assert.Empty(t, r.Player().SkipVotes)
	assert.NotEqual(t, 0, r.Player().CurrentIndex)
}

func TestRoom_VoteSkip_UnsetThresholdUsesDefault(t *testing.T) {
	r := New(DefaultPlayer(), songs(4), Options{})

	e := r.Skip(Actor{Name: "u1"})
	assert.Equal(t, []string{"Song skip vote recorded. 2 more votes needed to skip song."}, texts(e))

	e = r.Skip(Actor{Name: "u2"})
	assert.Empty(t, e.Skips)

	e = r.Skip(Actor{Name: "u3"})
	assert.Equal(t, []string{TextVotesMet}, texts(e))
	assert.Len(t, e.Skips, 1)
}

func TestRoom_VoteSkip_DuplicateIgnored(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 4)
	r.Skip(user)

	e := r.Skip(user)

	assert.False(t, e.Changed)
	assert.Empty(t, e.Replies)
	assert.Equal(t, []string{"u1"}, r.Player().SkipVotes)
}

func TestRoom_VoteSkip_ThresholdWithFewSongsKeepsVotes(t *testing.T) {
	r := New(DefaultPlayer(), songs(2), Options{VotesToSkip: 1})

	e := r.Skip(user)

	assert.Equal(t, []string{TextVotesMet, TextNotEnoughSongs}, texts(e))
	assert.Equal(t, []string{"u1"}, r.Player().SkipVotes)
}

func TestRoom_Play_FirstPlaySelectsSong(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 3)

	e := r.Play(mod)

	p := r.Player()
	assert.True(t, p.Playing)
	assert.True(t, p.Started)
	require.Len(t, e.Surface, 2)
	assert.Equal(t, SurfaceMessage{Message: MsgSkip, YouTubeID: r.CurrentSong().ID}, e.Surface[0])
	assert.Equal(t, SurfaceMessage{Message: MsgPlay}, e.Surface[1])
}

func TestRoom_Play_AlreadyStartedDoesNotSkip(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 2, Started: true}, 4)

	e := r.Play(mod)

	assert.Equal(t, 2, r.Player().CurrentIndex)
	assert.Empty(t, e.Skips)
	assert.Equal(t, []SurfaceMessage{{Message: MsgPlay}}, e.Surface)
}

func TestRoom_Play_FewSongsStillPlays(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 1)

	e := r.Play(mod)

	assert.Equal(t, []string{TextNotEnoughSongs}, texts(e))
	assert.Equal(t, []SurfaceMessage{{Message: MsgPlay}}, e.Surface)
	assert.True(t, r.Player().Started)
}

func TestRoom_PrivilegedCommandsIgnoredForUsers(t *testing.T) {
	start := Player{CurrentIndex: 1, Playing: true, Started: true, SkipVotes: []string{}, PreviousTracks: []int{}}
	r := newTestRoom(start, 4)

	for name, op := range map[string]func(Actor) Effects{
		"play":   r.Play,
		"pause":  r.Pause,
		"remove": r.Remove,
	} {
		e := op(user)
		assert.Equal(t, Effects{}, e, name)
	}
	assert.Equal(t, start, r.Player())
	assert.Len(t, r.Songs(), 4)
}

func TestRoom_Pause(t *testing.T) {
	r := newTestRoom(Player{Playing: true, Started: true}, 3)

	e := r.Pause(mod)

	assert.False(t, r.Player().Playing)
	assert.True(t, r.Player().Started)
	assert.Equal(t, []SurfaceMessage{{Message: MsgPause}}, e.Surface)
	assert.Empty(t, e.Skips)
}

func TestRoom_Remove_Scenario(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 2, PreviousTracks: []int{}}, 5)

	e := r.Remove(mod)

	p := r.Player()
	assert.Len(t, r.Songs(), 4)
	for _, s := range r.Songs() {
		assert.NotEqual(t, "vid2", s.ID)
	}
	require.Len(t, e.Skips, 1)
	assert.Equal(t, 1, e.Skips[0].From, "cursor steps back before the forced skip")
	assert.Equal(t, []int{1}, p.PreviousTracks)
	assert.NotEqual(t, 1, p.CurrentIndex)
}

func TestRoom_Remove_FirstSongKeepsIndex(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 0}, 4)

	e := r.Remove(mod)

	require.Len(t, e.Skips, 1)
	assert.Equal(t, 0, e.Skips[0].From)
	assert.Len(t, r.Songs(), 3)
}

func TestRoom_Remove_ShiftsHistory(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 1, PreviousTracks: []int{3, 1}}, 6)

	r.Remove(mod)

	p := r.Player()
	// 3 shifts to 2, the removed 1 disappears, then the cursor (0) is pushed.
	assert.Equal(t, []int{2, 0}, p.PreviousTracks)
}

func TestRoom_Remove_EmptyPlaylist(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 0)

	e := r.Remove(mod)

	assert.False(t, e.Changed)
	assert.Equal(t, []string{TextNothingToDrop}, texts(e))
}

func TestRoom_Remove_StaleCursorDropsLastSong(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 9}, 4)

	e := r.Remove(mod)

	assert.True(t, e.Changed)
	require.Len(t, r.Songs(), 3)
	assert.Equal(t, "vid2", r.Songs()[2].ID)
	assert.Empty(t, texts(e))
}

func TestRoom_Remove_ForcedSkipRefusedWhenTooShort(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 1, Playing: true, Started: true}, 3)

	e := r.Remove(mod)

	assert.True(t, e.Changed)
	assert.Len(t, r.Songs(), 2)
	assert.Equal(t, 0, r.Player().CurrentIndex)
	assert.Equal(t, []string{TextNotEnoughSongs}, texts(e))
	assert.Empty(t, e.Surface)
}

func TestRoom_HandleEvent_IsPlayingOverwritesBothFlags(t *testing.T) {
	r := newTestRoom(Player{Playing: true, Started: true}, 3)

	e, err := r.HandleEvent(SurfaceEvent{Message: EventIsPlaying, Data: false})

	require.NoError(t, err)
	assert.True(t, e.Changed)
	assert.False(t, r.Player().Playing)
	assert.False(t, r.Player().Started)

	_, err = r.HandleEvent(SurfaceEvent{Message: EventIsPlaying, Data: true})

	require.NoError(t, err)
	assert.True(t, r.Player().Playing)
	assert.True(t, r.Player().Started)
}

func TestRoom_HandleEvent_SongEndedAlwaysSkips(t *testing.T) {
	r := newTestRoom(Player{Playing: true, Started: true, SkipVotes: []string{"u1", "u2"}}, 4)

	e, err := r.HandleEvent(SurfaceEvent{Message: EventSongEnded})

	require.NoError(t, err)
	require.Len(t, e.Skips, 1)
	require.Len(t, e.Surface, 1)
	assert.Equal(t, MsgSkip, e.Surface[0].Message)
	assert.Empty(t, r.Player().SkipVotes)
}

func TestRoom_HandleEvent_Unknown(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 3)

	e, err := r.HandleEvent(SurfaceEvent{Message: "volumeChanged"})

	require.ErrorIs(t, err, ErrUnknownEvent)
	assert.False(t, e.Changed)
}

func TestRoom_Current(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 1, Playing: true, Started: true}, 3)
	assert.Equal(t, []string{"Current song: Song 1"}, texts(r.Current()))

	r = newTestRoom(Player{CurrentIndex: 1, Started: true}, 3)
	assert.Equal(t, []string{TextNothingPlaying}, texts(r.Current()))

	r = newTestRoom(Player{Playing: true}, 0)
	assert.Equal(t, []string{TextNothingPlaying}, texts(r.Current()))
}

func TestRoom_Upcoming(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	list := songs(7)
	for i := range list {
		list[i].RequestedAt = now.Add(-time.Duration(7-i) * time.Minute)
	}
	r := New(DefaultPlayer(), list, Options{})

	e := r.Upcoming(now)

	require.Len(t, e.Replies, 1)
	text := e.Replies[0].Text
	assert.True(t, strings.HasPrefix(text,
		"7 songs in the playlist, most recent requests (played in random order):\n"))
	assert.Contains(t, text, `"Song 6" requested by u1 1 minute ago`)
	assert.Contains(t, text, `"Song 2" requested by u1 5 minutes ago`)
	assert.NotContains(t, text, "Song 1")
	assert.False(t, e.Changed)
}

func TestRoom_Upcoming_Empty(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 0)

	assert.Equal(t, []string{TextEmptyPlaylist}, texts(r.Upcoming(time.Now())))
}

func TestRoom_Add_RepliesToRequester(t *testing.T) {
	r := newTestRoom(DefaultPlayer(), 0)

	e := r.Add(playlist.Song{ID: "abc", Title: "New Song", RequestedBy: "u9"})

	assert.True(t, e.Changed)
	assert.Equal(t, []Reply{{To: "u9", Text: "New Song has been added to the playlist!"}}, e.Replies)
	assert.Len(t, r.Songs(), 1)
}

func TestRoom_Reset(t *testing.T) {
	r := newTestRoom(Player{CurrentIndex: 2, Playing: true, Started: true, SkipVotes: []string{"u1"}, PreviousTracks: []int{1}}, 3)

	e := r.Reset()

	p := r.Player()
	assert.True(t, e.Changed)
	assert.False(t, p.Playing)
	assert.False(t, p.Started)
	assert.Empty(t, p.SkipVotes)
	assert.Equal(t, 2, p.CurrentIndex)
	assert.Equal(t, []int{1}, p.PreviousTracks)
}
