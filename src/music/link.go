package music

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Link is a parsed share URL: either a single track or a collection, with an
// optional embedded track id when an album link points at one of its tracks.
type Link struct {
	Kind    CollectionKind // empty for plain track links
	ID      string
	TrackID string
}

// IsTrack reports whether the link targets a single playable track.
func (l Link) IsTrack() bool {
	return l.Kind == "" || l.TrackID != ""
}

var linkPathPattern = regexp.MustCompile(`^/(?:[a-z]{2}(?:-[a-z]{2})?/)?(tracks?|albums?|playlists?|artists?)/([A-Za-z0-9][A-Za-z0-9._-]*)`)

// ParseLink extracts the reference a share URL points at. Accepted shapes:
//
//	https://host/tracks/<id>
//	https://host/albums/<id>?trackAsin=<trackId>
//	https://host/<locale>/playlists/<id>
//	https://host/artists/<id>
//
// Singular and plural path segments are both accepted.
func ParseLink(rawURL string) (Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Link{}, fmt.Errorf("unparseable link %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return Link{}, fmt.Errorf("link %q has no host", rawURL)
	}

	m := linkPathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Link{}, fmt.Errorf("link %q does not reference a track or collection", rawURL)
	}
	segment := strings.TrimSuffix(m[1], "s")
	id := m[2]

	embedded := u.Query().Get("trackAsin")
	switch segment {
	case "track":
		return Link{ID: id}, nil
	case "album":
		return Link{Kind: KindAlbum, ID: id, TrackID: embedded}, nil
	case "playlist":
		return Link{Kind: KindPlaylist, ID: id, TrackID: embedded}, nil
	case "artist":
		return Link{Kind: KindArtist, ID: id}, nil
	}
	return Link{}, fmt.Errorf("link %q does not reference a track or collection", rawURL)
}
