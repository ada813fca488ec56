package room

import "github.com/llehouerou/roomdj/internal/playback"

const eventBufferSize = 16

// Subscription provides the event channels of one room.
type Subscription struct {
	Room    string
	Surface <-chan playback.SurfaceMessage
	Chat    <-chan playback.Reply
	Done    <-chan struct{}

	// Internal write channels
	surfaceCh chan playback.SurfaceMessage
	chatCh    chan playback.Reply
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription(roomID string) *Subscription {
	s := &Subscription{
		Room:      roomID,
		surfaceCh: make(chan playback.SurfaceMessage, eventBufferSize),
		chatCh:    make(chan playback.Reply, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.Surface = s.surfaceCh
	s.Chat = s.chatCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendSurface sends a surface message (non-blocking).
func (s *Subscription) sendSurface(msg playback.SurfaceMessage) {
	select {
	case s.surfaceCh <- msg:
	default:
		// Drop if buffer full
	}
}

// sendChat sends a chat reply (non-blocking).
func (s *Subscription) sendChat(r playback.Reply) {
	select {
	case s.chatCh <- r:
	default:
	}
}
