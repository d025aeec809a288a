package music

import (
	"bytes"
	"testing"
)

func TestTrackReferenceRoundTrip(t *testing.T) {
	ref := TrackReference{
		AudioURL:   "https://cdn.example.com/track.mp3?token=abc",
		ISRC:       "USABC1234567",
		ArtworkURL: "https://cdn.example.com/cover.jpg",
	}

	var buf bytes.Buffer
	if err := ref.Encode(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeTrackReference(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != ref {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, ref)
	}
}

func TestTrackReferenceEmptyFields(t *testing.T) {
	ref := TrackReference{AudioURL: "https://cdn.example.com/track.flac"}

	var buf bytes.Buffer
	if err := ref.Encode(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// Three fields, two of them empty: 3 length prefixes plus the URL bytes.
	if want := 6 + len(ref.AudioURL); buf.Len() != want {
		t.Errorf("encoded length = %d, want %d", buf.Len(), want)
	}

	decoded, err := DecodeTrackReference(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ISRC != "" || decoded.ArtworkURL != "" {
		t.Errorf("expected empty optional fields, got %+v", decoded)
	}
}

func TestDecodeTrackReferenceTruncated(t *testing.T) {
	var buf bytes.Buffer
	ref := TrackReference{AudioURL: "https://cdn.example.com/track.mp3"}
	if err := ref.Encode(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	if _, err := DecodeTrackReference(truncated); err == nil {
		t.Error("expected error for truncated input")
	}
}
