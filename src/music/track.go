package music

import (
	"fmt"
	"strings"
)

// Track represents upstream track metadata as returned by a source catalog.
// AudioURL may already carry a playable location; resolution fills the gaps.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Duration   int64 // milliseconds
	ISRC       string
	AudioURL   string
	ArtworkURL string
	Qualities  []string // supported quality tags advertised by the source, may be empty
}

// Validate checks the minimum a track needs before resolution is attempted.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id cannot be empty")
	}
	if len(t.ID) > 128 {
		return fmt.Errorf("track id cannot exceed 128 characters, got %d", len(t.ID))
	}
	return nil
}

// DisplayName returns "Artist - Title" for logs, tolerating missing fields.
func (t *Track) DisplayName() string {
	switch {
	case t.Artist == "" && t.Title == "":
		return t.ID
	case t.Artist == "":
		return t.Title
	case t.Title == "":
		return t.Artist
	}
	return t.Artist + " - " + t.Title
}
