package music

import "testing"

func TestExtensionOf(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/audio/track.mp3", "mp3"},
		{"https://cdn.example.com/audio/track.MP3", "mp3"},
		{"https://cdn.example.com/audio/track.flac?token=abc123", "flac"},
		{"https://cdn.example.com/stream/playlist.m3u8?sig=x&exp=1", "m3u8"},
		{"https://cdn.example.com/audio/track", ""},
		{"https://cdn.example.com/audio.dir/track", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ExtensionOf(c.url); got != c.want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestIsPlayable(t *testing.T) {
	if !IsPlayable("https://cdn.example.com/track.ogg") {
		t.Error("expected ogg to be playable")
	}
	if IsPlayable("https://cdn.example.com/manifest.mpd") {
		t.Error("expected mpd to not be playable")
	}
	if IsPlayable("https://cdn.example.com/track") {
		t.Error("expected extensionless URL to not be playable")
	}
}

func TestHintFor(t *testing.T) {
	cases := []struct {
		url  string
		want ContainerHint
	}{
		{"https://cdn.example.com/track.mp3", HintMP3},
		{"https://cdn.example.com/track.m4a", HintMP4},
		{"https://cdn.example.com/track.ogg", HintOgg},
		{"https://cdn.example.com/track.flac", HintAuto},
		{"https://cdn.example.com/playlist.m3u8", HintAuto},
	}
	for _, c := range cases {
		if got := HintFor(c.url); got != c.want {
			t.Errorf("HintFor(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestTrackValidate(t *testing.T) {
	track := Track{ID: "12345"}
	if err := track.Validate(); err != nil {
		t.Fatalf("expected valid track, got %v", err)
	}

	track.ID = "   "
	if err := track.Validate(); err == nil {
		t.Error("expected error for blank id")
	}

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	track.ID = string(long)
	if err := track.Validate(); err == nil {
		t.Error("expected error for oversized id")
	}
}
