// Package room coordinates room state. Every command and surface event of a
// room runs under that room's lock: the state is loaded, changed by the
// playback reconciler, saved and the resulting messages are published to the
// room's subscribers.
package room

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/llehouerou/roomdj/internal/command"
	"github.com/llehouerou/roomdj/internal/errmsg"
	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/playlist"
	"github.com/llehouerou/roomdj/internal/state"
	"github.com/llehouerou/roomdj/internal/youtube"
)

// ErrClosed is returned by operations on a closed manager.
var ErrClosed = errors.New("room manager closed")

// Request replies.
const (
	TextNotFound         = "Your song could not be found."
	TextLookupFailed     = "Your song could not be looked up right now, try again later."
	TextInvalidReference = "That does not look like a YouTube video."
)

// Lookup resolves a song reference to video metadata.
type Lookup interface {
	Lookup(ctx context.Context, ref string) (*youtube.Video, error)
}

// ChatMessage is a message typed by a user in a room's chat. User and
// Moderator come from the authenticated connection, never from the message.
type ChatMessage struct {
	User      string
	Moderator bool
	Text      string
}

// Options configures a Manager.
type Options struct {
	VotesToSkip int
	// NewSource returns the random source of a room's selector. Nil uses
	// the global source.
	NewSource func() rand.Source
	// Now defaults to time.Now.
	Now func() time.Time
}

type roomEntry struct {
	mu       sync.Mutex
	ready    bool // startup reset saved
	selector *playlist.Selector
}

// Manager serializes access to rooms and fans their effects out to
// subscribers. Different rooms proceed in parallel.
type Manager struct {
	repo   state.Repository
	lookup Lookup
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	rooms   map[string]*roomEntry
	subs    map[string][]*Subscription
	closing bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager on top of repo.
func NewManager(repo state.Repository, lookup Lookup, opts Options, logger zerolog.Logger) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		repo:   repo,
		lookup: lookup,
		opts:   opts,
		logger: logger.With().Str("component", "room").Logger(),
		rooms:  make(map[string]*roomEntry),
		subs:   make(map[string][]*Subscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *Manager) entry(roomID string) (*roomEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return nil, ErrClosed
	}
	return m.entryLocked(roomID), nil
}

func (m *Manager) entryLocked(roomID string) *roomEntry {
	e, ok := m.rooms[roomID]
	if !ok {
		var src rand.Source
		if m.opts.NewSource != nil {
			src = m.opts.NewSource()
		}
		e = &roomEntry{selector: playlist.NewSelector(src)}
		m.rooms[roomID] = e
	}
	return e
}

// HandleChat runs a chat command. Messages that are not commands are
// ignored. Requests return before the song is looked up.
func (m *Manager) HandleChat(ctx context.Context, roomID string, msg ChatMessage) error {
	cmd, ok := command.Parse(msg.Text)
	if !ok {
		return nil
	}
	actor := playback.Actor{Name: msg.User, Moderator: msg.Moderator}

	m.logger.Debug().
		Str("room", roomID).
		Str("user", msg.User).
		Str("command", cmd.Kind.String()).
		Msg("chat command")

	if cmd.Kind == command.Request {
		return m.request(roomID, actor, cmd.Arg)
	}

	e, err := m.entry(roomID)
	if err != nil {
		return err
	}
	return m.apply(ctx, roomID, e, m.reportToRoom(roomID), func(r *playback.Room) (playback.Effects, error) {
		switch cmd.Kind {
		case command.Remove:
			return r.Remove(actor), nil
		case command.Skip:
			return r.Skip(actor), nil
		case command.Pause:
			return r.Pause(actor), nil
		case command.Play:
			return r.Play(actor), nil
		case command.Current:
			return r.Current(), nil
		case command.Upcoming:
			return r.Upcoming(m.opts.Now()), nil
		default:
			return playback.Effects{}, nil
		}
	})
}

// HandleSurfaceEvent reconciles a report from the room's player.
func (m *Manager) HandleSurfaceEvent(ctx context.Context, roomID string, ev playback.SurfaceEvent) error {
	e, err := m.entry(roomID)
	if err != nil {
		return err
	}
	return m.apply(ctx, roomID, e, m.reportToRoom(roomID), func(r *playback.Room) (playback.Effects, error) {
		return r.HandleEvent(ev)
	})
}

// loadLocked loads a room and, on the first touch in this process, resets
// its playback flags and saves the result. On failure it also returns the
// operation that failed. e.mu must be held.
func (m *Manager) loadLocked(ctx context.Context, roomID string, e *roomEntry) (*playback.Room, errmsg.Op, error) {
	st, err := m.repo.Load(ctx, roomID)
	if err != nil {
		return nil, errmsg.OpRoomLoad, err
	}

	r := playback.New(st.Player, st.Songs, playback.Options{
		VotesToSkip: m.opts.VotesToSkip,
		Selector:    e.selector,
	})
	if e.ready {
		return r, "", nil
	}

	r.Reset()
	if err := m.repo.Save(ctx, roomID, state.RoomState{Player: r.Player(), Songs: r.Songs()}); err != nil {
		return nil, errmsg.OpRoomSave, err
	}
	e.ready = true
	m.logger.Info().
		Str("room", roomID).
		Int("songs", len(st.Songs)).
		Str("state", st.Player.State().String()).
		Msg("room started")
	return r, "", nil
}

// report tells a room about a failed load or save.
type report func(op errmsg.Op, err error)

func (m *Manager) reportToRoom(roomID string) report {
	return func(op errmsg.Op, err error) {
		m.publish(roomID, playback.Effects{Replies: []playback.Reply{{Text: errmsg.Format(op, err)}}})
	}
}

// apply runs fn on the room under its lock and saves the room when fn
// changed it. Load and save failures go to rep.
func (m *Manager) apply(
	ctx context.Context,
	roomID string,
	e *roomEntry,
	rep report,
	fn func(r *playback.Room) (playback.Effects, error),
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := m.logger.With().Str("room", roomID).Logger()

	r, op, err := m.loadLocked(ctx, roomID, e)
	if err != nil {
		log.Error().Err(err).Msg(string(op))
		rep(op, err)
		return err
	}

	eff, err := fn(r)
	if err != nil {
		log.Warn().Err(err).Msg("rejected")
		return err
	}

	if eff.Changed {
		if err := m.repo.Save(ctx, roomID, state.RoomState{Player: r.Player(), Songs: r.Songs()}); err != nil {
			log.Error().Err(err).Msg("save room")
			rep(errmsg.OpRoomSave, err)
			return err
		}
	}

	for _, s := range eff.Skips {
		song := r.Songs()[s.To]
		log.Info().
			Int("from", s.From).
			Int("index", s.To).
			Int("length", s.Length).
			Str("youtube_id", song.ID).
			Str("state", r.Player().State().String()).
			Msg("song skipped")
	}
	if len(eff.Skips) == 0 && slices.Contains(eff.Replies, playback.Reply{Text: playback.TextNotEnoughSongs}) {
		log.Debug().Int("songs", len(r.Songs())).Msg("skip refused")
	}

	m.publish(roomID, eff)
	return nil
}

// request looks a song up in the background and appends it to the room.
func (m *Manager) request(roomID string, actor playback.Actor, ref string) error {
	if _, err := youtube.ExtractID(ref); err != nil {
		m.reply(roomID, actor.Name, TextInvalidReference)
		return nil
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return ErrClosed
	}
	e := m.entryLocked(roomID)
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.completeRequest(roomID, e, actor, ref)
	}()
	return nil
}

func (m *Manager) completeRequest(roomID string, e *roomEntry, actor playback.Actor, ref string) {
	log := m.logger.With().Str("room", roomID).Str("user", actor.Name).Logger()

	video, err := m.lookup.Lookup(m.ctx, ref)
	switch {
	case errors.Is(err, youtube.ErrNotFound):
		log.Debug().Str("ref", ref).Msg("song not found")
		m.reply(roomID, actor.Name, TextNotFound)
		return
	case errors.Is(err, youtube.ErrInvalidReference):
		m.reply(roomID, actor.Name, TextInvalidReference)
		return
	case err != nil:
		log.Error().Err(err).Str("ref", ref).Msg("song lookup")
		m.reply(roomID, actor.Name, TextLookupFailed)
		return
	}

	song := playlist.Song{
		ID:          video.ID,
		Title:       video.Title,
		RequestedBy: actor.Name,
		RequestedAt: m.opts.Now(),
	}
	failed := func(_ errmsg.Op, err error) {
		m.reply(roomID, actor.Name, errmsg.FormatWith(errmsg.OpSongAdd, song.Title, err))
	}
	err = m.apply(m.ctx, roomID, e, failed, func(r *playback.Room) (playback.Effects, error) {
		return r.Add(song), nil
	})
	if err != nil {
		return
	}
	log.Info().Str("youtube_id", song.ID).Str("title", song.Title).Msg("song added")
}

// Snapshot returns the state of a room. A room seen for the first time is
// reset first, like for any command.
func (m *Manager) Snapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	e, err := m.entry(roomID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r, _, err := m.loadLocked(ctx, roomID, e)
	if err != nil {
		return nil, err
	}
	return newSnapshot(roomID, r.Player(), r.Songs()), nil
}

// Subscribe registers for a room's surface messages and chat replies.
// Subscribing to a closed manager returns a subscription that is already
// done.
func (m *Manager) Subscribe(roomID string) *Subscription {
	sub := newSubscription(roomID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		sub.close()
		return sub
	}
	m.subs[roomID] = append(m.subs[roomID], sub)
	return sub
}

// Unsubscribe removes sub and closes its Done channel. It is a no-op for
// subscriptions that were already removed.
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[sub.Room]
	i := slices.Index(subs, sub)
	if i < 0 {
		return
	}
	m.subs[sub.Room] = slices.Delete(subs, i, i+1)
	if len(m.subs[sub.Room]) == 0 {
		delete(m.subs, sub.Room)
	}
	sub.close()
}

func (m *Manager) publish(roomID string, eff playback.Effects) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[roomID] {
		for _, msg := range eff.Surface {
			sub.sendSurface(msg)
		}
		for _, r := range eff.Replies {
			sub.sendChat(r)
		}
	}
}

func (m *Manager) reply(roomID, to, text string) {
	m.publish(roomID, playback.Effects{Replies: []playback.Reply{{To: to, Text: text}}})
}

// Wait blocks until every pending lookup has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close stops accepting commands, waits for pending lookups and closes all
// subscriptions. It does not close the repository.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	m.mu.Unlock()

	m.wg.Wait()
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, subs := range m.subs {
		for _, sub := range subs {
			sub.close()
		}
		delete(m.subs, roomID)
	}
	return nil
}
