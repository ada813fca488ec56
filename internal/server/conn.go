package server

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 64 << 10
)

type client struct {
	id   string
	ws   *websocket.Conn
	log  zerolog.Logger
	stop chan struct{} // closed when the read loop ends
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request, roomID, kind string) (*client, error) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Str("room", roomID).Msg("websocket upgrade")
		return nil, err
	}

	c := &client{
		id:   uuid.NewString(),
		ws:   ws,
		stop: make(chan struct{}),
	}
	c.log = s.logger.With().
		Str("room", roomID).
		Str("conn", c.id).
		Str("kind", kind).
		Logger()
	c.log.Debug().Str("remote", r.RemoteAddr).Msg("connected")
	return c, nil
}

// readPump hands every inbound message to handle until the connection
// fails or handle reports that the room is closed.
func (c *client) readPump(handle func(data []byte) error) {
	defer func() {
		close(c.stop)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("disconnected")
			return
		}
		if err := handle(data); err != nil {
			if errors.Is(err, room.ErrClosed) {
				return
			}
			c.log.Debug().Err(err).Msg("message rejected")
		}
	}
}

// writePump forwards room events to the websocket. It is the only writer
// of the connection.
func writePump[T playback.SurfaceMessage | playback.Reply](c *client, sub *room.Subscription, events <-chan T) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev := <-events:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "room closed"))
			return
		case <-c.stop:
			return
		}
	}
}
