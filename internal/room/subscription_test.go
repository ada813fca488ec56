package room

import (
	"testing"
	"testing/synctest"

	"github.com/llehouerou/roomdj/internal/playback"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription("lobby")

		sub.sendSurface(playback.SurfaceMessage{Message: playback.MsgSkip, YouTubeID: "dQw4w9WgXcQ"})
		sub.sendChat(playback.Reply{To: "alice", Text: "hello"})

		m := <-sub.Surface
		if m.Message != playback.MsgSkip || m.YouTubeID != "dQw4w9WgXcQ" {
			t.Errorf("Surface = %+v, want skip to dQw4w9WgXcQ", m)
		}

		r := <-sub.Chat
		if r.To != "alice" || r.Text != "hello" {
			t.Errorf("Chat = %+v, want hello to alice", r)
		}

		if sub.Room != "lobby" {
			t.Errorf("Room = %q, want lobby", sub.Room)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription("lobby")
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription("lobby")

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendChat(playback.Reply{Text: "spam"})
	}

	count := 0
	for {
		select {
		case <-sub.Chat:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
