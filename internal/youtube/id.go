package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractID returns the video id referenced by ref, which is either a bare
// id or a YouTube watch, short, embed or youtu.be URL.
func ExtractID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if idPattern.MatchString(ref) {
		return ref, nil
	}

	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidReference
	}

	var id string
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		id = firstSegment(u.Path)
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/embed"))
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/shorts"))
		case strings.HasPrefix(u.Path, "/live/"):
			id = firstSegment(strings.TrimPrefix(u.Path, "/live"))
		}
	}

	if !idPattern.MatchString(id) {
		return "", ErrInvalidReference
	}
	return id, nil
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
