// Package command parses chat messages into room commands.
package command

import (
	"regexp"
	"strings"
)

// Kind identifies a chat command.
type Kind int

const (
	None Kind = iota
	Request
	Remove
	Skip
	Pause
	Play
	Current
	Upcoming
)

// String returns the canonical command name.
func (k Kind) String() string {
	switch k {
	case Request:
		return "request"
	case Remove:
		return "remove"
	case Skip:
		return "skip"
	case Pause:
		return "pause"
	case Play:
		return "play"
	case Current:
		return "current"
	case Upcoming:
		return "upcoming"
	default:
		return "none"
	}
}

// Command is a parsed chat command.
type Command struct {
	Kind Kind
	Arg  string // request reference, empty for other kinds
}

var pattern = regexp.MustCompile(`^[!/](\S+)(?:\s+(.*))?$`)

var names = map[string]Kind{
	"request":  Request,
	"remove":   Remove,
	"skip":     Skip,
	"pause":    Pause,
	"play":     Play,
	"song":     Current,
	"track":    Current,
	"music":    Current,
	"current":  Current,
	"upcoming": Upcoming,
	"playlist": Upcoming,
}

// Parse reads a chat message. Command names are lower case. Only request
// takes an argument; any other command followed by more text is not a
// command. Unknown commands and requests without a reference return
// ok=false.
func Parse(text string) (Command, bool) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Command{}, false
	}

	kind, ok := names[m[1]]
	if !ok {
		return Command{}, false
	}

	arg := strings.TrimSpace(m[2])
	if (kind == Request) != (arg != "") {
		return Command{}, false
	}
	return Command{Kind: kind, Arg: arg}, true
}
