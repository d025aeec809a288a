package music

import (
	"net/url"
	"strings"
)

// ContainerHint tells the playback layer which demuxer to pick for a resolved
// stream. HintAuto means the playback layer should sniff the first bytes.
type ContainerHint string

const (
	HintMP3  ContainerHint = "mp3"
	HintMP4  ContainerHint = "mp4"
	HintOgg  ContainerHint = "ogg"
	HintWebM ContainerHint = "webm"
	HintAuto ContainerHint = "auto"
)

// ResolvedStream is the terminal result of a resolution call. It is immutable
// once returned; ownership passes to the playback layer.
type ResolvedStream struct {
	URL           string        `json:"url"`
	ArtworkURL    string        `json:"artworkUrl,omitempty"`
	ISRC          string        `json:"isrc,omitempty"`
	ContainerHint ContainerHint `json:"containerHint"`
}

// PlayableExtensions are the stream extensions the playback layer can handle
// when they appear as a direct metadata field.
var PlayableExtensions = []string{"mp3", "m4a", "flac", "ogg", "wav", "m3u8"}

// ExtensionOf returns the lowercased extension of a stream URL, ignoring any
// query string. Empty when there is none.
func ExtensionOf(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		s = u.Path
	} else if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	i := strings.LastIndexByte(s, '.')
	if i < 0 || i == len(s)-1 {
		return ""
	}
	ext := strings.ToLower(s[i+1:])
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

// IsPlayable reports whether the URL ends in an extension the playback layer
// supports for direct streaming.
func IsPlayable(rawURL string) bool {
	ext := ExtensionOf(rawURL)
	for _, e := range PlayableExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// HintFor maps a stream URL to the container hint the playback layer expects.
func HintFor(rawURL string) ContainerHint {
	switch ExtensionOf(rawURL) {
	case "mp3":
		return HintMP3
	case "m4a", "mp4":
		return HintMP4
	case "ogg":
		return HintOgg
	case "webm":
		return HintWebM
	default:
		return HintAuto
	}
}
