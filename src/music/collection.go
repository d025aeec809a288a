package music

import "fmt"

// CollectionKind distinguishes the aggregate reference types a source exposes.
type CollectionKind string

const (
	KindAlbum    CollectionKind = "album"
	KindPlaylist CollectionKind = "playlist"
	KindArtist   CollectionKind = "artist"
)

// ParseCollectionKind validates a kind string coming from the API surface.
func ParseCollectionKind(s string) (CollectionKind, error) {
	switch CollectionKind(s) {
	case KindAlbum, KindPlaylist, KindArtist:
		return CollectionKind(s), nil
	}
	return "", fmt.Errorf("unknown collection kind %q", s)
}

// Collection is a titled list of tracks (album, playlist, or artist top tracks).
type Collection struct {
	Kind   CollectionKind
	ID     string
	Title  string
	Tracks []Track
}
