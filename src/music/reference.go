package music

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TrackReference is the serialized form of a resolved track, written when the
// playback layer queues a track so it can be reconstructed later without
// re-resolution.
type TrackReference struct {
	AudioURL   string
	ISRC       string
	ArtworkURL string
}

// Encode writes the reference as three length-prefixed UTF-8 fields. Each
// field is a big-endian uint16 byte length followed by the bytes; nil-ish
// fields are written as empty strings.
func (r TrackReference) Encode(w io.Writer) error {
	for _, field := range []string{r.AudioURL, r.ISRC, r.ArtworkURL} {
		if err := writeField(w, field); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTrackReference reads a reference previously written by Encode.
func DecodeTrackReference(r io.Reader) (TrackReference, error) {
	var ref TrackReference
	for _, dst := range []*string{&ref.AudioURL, &ref.ISRC, &ref.ArtworkURL} {
		s, err := readField(r)
		if err != nil {
			return TrackReference{}, err
		}
		*dst = s
	}
	return ref, nil
}

func writeField(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("reference field too long: %d bytes", len(s))
	}
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(s)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("failed to write field length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("failed to write field: %w", err)
	}
	return nil
}

func readField(r io.Reader) (string, error) {
	var length [2]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return "", fmt.Errorf("failed to read field length: %w", err)
	}
	n := binary.BigEndian.Uint16(length[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read field: %w", err)
	}
	return string(buf), nil
}
