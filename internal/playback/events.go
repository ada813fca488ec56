package playback

// Outbound surface message names.
const (
	MsgPlay  = "youtube-play"
	MsgPause = "youtube-pause"
	MsgSkip  = "youtube-skip"
)

// Inbound surface event names.
const (
	EventIsPlaying = "isPlaying"
	EventSongEnded = "songEnded"
)

// SurfaceMessage is a command sent to the room's playback surface.
type SurfaceMessage struct {
	Message   string `json:"message"`
	YouTubeID string `json:"youtubeID,omitempty"`
}

// SurfaceEvent is a state report received from the playback surface.
type SurfaceEvent struct {
	Message string `json:"message"`
	Data    bool   `json:"data,omitempty"`
}

// Reply is a chat message produced by a room operation.
// An empty To addresses the whole room.
type Reply struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SkipChange records a cursor move caused by a skip.
type SkipChange struct {
	From   int
	To     int
	Length int
}

// Effects collects everything a room operation produced.
//
// Changed is set when the room state was mutated and must be saved. Surface
// and Replies are in emission order and must be delivered in that order.
type Effects struct {
	Changed bool
	Surface []SurfaceMessage
	Replies []Reply
	Skips   []SkipChange
}

func (e *Effects) send(msg SurfaceMessage) {
	e.Surface = append(e.Surface, msg)
}

func (e *Effects) say(text string) {
	e.Replies = append(e.Replies, Reply{Text: text})
}

func (e *Effects) replyTo(user, text string) {
	e.Replies = append(e.Replies, Reply{To: user, Text: text})
}
