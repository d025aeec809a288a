package music

import "testing"

func TestParseLink(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want Link
	}{
		{
			name: "track",
			url:  "https://music.example.com/tracks/B0TRACK123",
			want: Link{ID: "B0TRACK123"},
		},
		{
			name: "singular track segment",
			url:  "https://music.example.com/track/B0TRACK123",
			want: Link{ID: "B0TRACK123"},
		},
		{
			name: "album",
			url:  "https://music.example.com/albums/B0ALBUM99",
			want: Link{Kind: KindAlbum, ID: "B0ALBUM99"},
		},
		{
			name: "album with embedded track",
			url:  "https://music.example.com/albums/B0ALBUM99?trackAsin=B0TRACK123",
			want: Link{Kind: KindAlbum, ID: "B0ALBUM99", TrackID: "B0TRACK123"},
		},
		{
			name: "localized playlist",
			url:  "https://music.example.com/de-de/playlists/PL123?ref=share",
			want: Link{Kind: KindPlaylist, ID: "PL123"},
		},
		{
			name: "artist",
			url:  "https://music.example.com/artists/A77",
			want: Link{Kind: KindArtist, ID: "A77"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLink(tc.url)
			if err != nil {
				t.Fatalf("ParseLink(%q): %v", tc.url, err)
			}
			if got != tc.want {
				t.Errorf("ParseLink(%q) = %+v, want %+v", tc.url, got, tc.want)
			}
		})
	}
}

func TestParseLinkRejects(t *testing.T) {
	for _, url := range []string{
		"",
		"not a url at all %zz",
		"/tracks/B0TRACK123",
		"https://music.example.com/stations/ST1",
		"https://music.example.com/",
	} {
		if _, err := ParseLink(url); err == nil {
			t.Errorf("ParseLink(%q) succeeded, want error", url)
		}
	}
}

func TestLinkIsTrack(t *testing.T) {
	if !(Link{ID: "x"}).IsTrack() {
		t.Error("plain track link should be a track")
	}
	if !(Link{Kind: KindAlbum, ID: "a", TrackID: "t"}).IsTrack() {
		t.Error("album link with embedded track should be a track")
	}
	if (Link{Kind: KindPlaylist, ID: "p"}).IsTrack() {
		t.Error("playlist link should not be a track")
	}
}
