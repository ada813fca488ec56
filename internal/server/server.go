// Package server exposes rooms over HTTP. Player surfaces and chat clients
// connect with websockets; dashboards read room snapshots as JSON.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/room"
)

// Rooms is the room coordinator as seen by the transport.
type Rooms interface {
	HandleChat(ctx context.Context, roomID string, msg room.ChatMessage) error
	HandleSurfaceEvent(ctx context.Context, roomID string, ev playback.SurfaceEvent) error
	Snapshot(ctx context.Context, roomID string) (*room.Snapshot, error)
	Subscribe(roomID string) *room.Subscription
	Unsubscribe(sub *room.Subscription)
}

// Options configures a Server.
type Options struct {
	// ModeratorToken grants moderator rights to chat connections that pass
	// it as the token query parameter. Empty disables moderators.
	ModeratorToken string
}

// Server routes HTTP requests to rooms.
type Server struct {
	rooms    Rooms
	opts     Options
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// New creates a server for rooms.
func New(rooms Rooms, opts Options, logger zerolog.Logger) *Server {
	return &Server{
		rooms:  rooms,
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Player pages are served from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/rooms/{room}", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Get("/player", s.handlePlayer)
		r.Get("/chat", s.handleChat)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")

	snap, err := s.rooms.Snapshot(r.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, room.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Error().Err(err).Str("room", roomID).Msg("snapshot")
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	sub := s.rooms.Subscribe(roomID)
	defer s.rooms.Unsubscribe(sub)

	c, err := s.accept(w, r, roomID, "player")
	if err != nil {
		return
	}
	go writePump(c, sub, sub.Surface)

	c.readPump(func(data []byte) error {
		var ev playback.SurfaceEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Debug().Err(err).Msg("malformed player event")
			return nil
		}
		return s.rooms.HandleSurfaceEvent(r.Context(), roomID, ev)
	})
}

// chatLine is what a chat client sends. The sender is fixed when the
// connection is opened.
type chatLine struct {
	Text string `json:"text"`
}

// handleChat serves /rooms/{room}/chat?user=NAME[&token=TOKEN].
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	q := r.URL.Query()
	user := strings.TrimSpace(q.Get("user"))
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}
	moderator := s.isModerator(q.Get("token"))

	sub := s.rooms.Subscribe(roomID)
	defer s.rooms.Unsubscribe(sub)

	c, err := s.accept(w, r, roomID, "chat")
	if err != nil {
		return
	}
	c.log = c.log.With().Str("user", user).Bool("moderator", moderator).Logger()
	go writePump(c, sub, sub.Chat)

	c.readPump(func(data []byte) error {
		var line chatLine
		if err := json.Unmarshal(data, &line); err != nil {
			c.log.Debug().Err(err).Msg("malformed chat message")
			return nil
		}
		return s.rooms.HandleChat(r.Context(), roomID, room.ChatMessage{
			User:      user,
			Moderator: moderator,
			Text:      line.Text,
		})
	})
}

func (s *Server) isModerator(token string) bool {
	want := s.opts.ModeratorToken
	return want != "" && subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
