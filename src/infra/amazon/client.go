// Package amazon adapts the mirror catalog API: track, collection and search
// metadata plus the stream-urls endpoints the resolution engine walks.
package amazon

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"streamvault/src/infra/extract"
	"streamvault/src/infra/httpx"
	"streamvault/src/music"
)

// StreamEndpoints are the endpoint paths answering stream-url lookups, in
// confidence order: the current name first, then the names older deployments
// still answer on.
var StreamEndpoints = []string{"stream_urls", "streams", "playback"}

// Client talks to one configured catalog API base URL.
type Client struct {
	baseURL   string
	auth      func(ctx context.Context) (string, error)
	client    *httpx.Client
	extractor extract.Extractor
}

// New creates a catalog client. auth supplies the bearer token per call and
// may return an empty string when the deployment is unauthenticated.
func New(baseURL string, auth func(ctx context.Context) (string, error), client *httpx.Client, extractor extract.Extractor) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		auth:      auth,
		client:    client,
		extractor: extractor,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) (int, string, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	requestURL := c.baseURL + "/" + path
	if len(values) > 0 {
		requestURL += "?" + values.Encode()
	}
	headers := map[string]string{}
	if c.auth != nil {
		token, err := c.auth(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("failed to obtain upstream credential: %w", err)
		}
		if token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}
	return c.client.GetText(ctx, requestURL, headers)
}

// Track fetches a single track's metadata. The raw body is returned alongside
// so late resolution strategies can re-scan it.
func (c *Client) Track(ctx context.Context, id string) (music.Track, string, error) {
	status, body, err := c.get(ctx, "track", map[string]string{"id": id})
	if err != nil {
		return music.Track{}, "", music.WrapError(music.KindTransient, err)
	}
	if status == 404 {
		return music.Track{}, "", music.Errorf(music.KindNotFound, "track %s not found", id)
	}
	if status != 200 {
		return music.Track{}, "", music.Errorf(music.KindTransient, "track endpoint returned status %d", status)
	}
	track := c.parseTrack(body)
	if track.ID == "" {
		track.ID = id
	}
	return track, body, nil
}

// Collection fetches an album, playlist or artist top-tracks aggregate.
func (c *Client) Collection(ctx context.Context, kind music.CollectionKind, id string) (music.Collection, error) {
	path := string(kind)
	status, body, err := c.get(ctx, path, map[string]string{"id": id})
	if err != nil {
		return music.Collection{}, music.WrapError(music.KindTransient, err)
	}
	if status == 404 {
		return music.Collection{}, music.Errorf(music.KindNotFound, "%s %s not found", kind, id)
	}
	if status != 200 {
		return music.Collection{}, music.Errorf(music.KindTransient, "%s endpoint returned status %d", kind, status)
	}

	titleKey := "title"
	if kind == music.KindArtist {
		titleKey = "name"
	}
	title, _ := c.extractor.String(body, titleKey)

	var tracks []music.Track
	for _, raw := range c.extractor.Objects(body, "tracks") {
		tracks = append(tracks, c.parseTrack(raw))
	}
	if len(tracks) == 0 {
		return music.Collection{}, music.Errorf(music.KindNotFound, "%s %s has no tracks", kind, id)
	}
	return music.Collection{Kind: kind, ID: id, Title: title, Tracks: tracks}, nil
}

// Search queries the catalog, keeping only results that already carry a
// playable direct URL or an id a later stream lookup can use.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]music.Track, error) {
	params := map[string]string{"query": query}
	if limit > 0 {
		params["limit"] = fmt.Sprintf("%d", limit)
	}
	status, body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, music.WrapError(music.KindTransient, err)
	}
	if status != 200 {
		return nil, music.Errorf(music.KindTransient, "search endpoint returned status %d", status)
	}
	var tracks []music.Track
	for _, raw := range c.extractor.Objects(body, "tracks") {
		t := c.parseTrack(raw)
		if t.ID == "" && !music.IsPlayable(t.AudioURL) {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// FetchStream calls one stream endpoint for a track, with optional extra query
// parameters (quality or codec forcing). Status and raw body are handed back
// untouched; the engine owns retry and parsing policy.
func (c *Client) FetchStream(ctx context.Context, endpoint, id string, params map[string]string) (int, string, error) {
	merged := map[string]string{"id": id}
	for k, v := range params {
		merged[k] = v
	}
	return c.get(ctx, endpoint, merged)
}

// StreamEndpointNames implements the engine's endpoint ordering contract.
func (c *Client) StreamEndpointNames() []string {
	return StreamEndpoints
}

func (c *Client) parseTrack(raw string) music.Track {
	var t music.Track
	t.ID, _ = c.extractor.String(raw, "id")
	t.Title, _ = c.extractor.String(raw, "title")
	t.Artist, _ = c.extractor.String(raw, "artist")
	t.ISRC, _ = c.extractor.String(raw, "isrc")
	t.AudioURL, _ = c.extractor.String(raw, "audioUrl")
	t.ArtworkURL, _ = c.extractor.String(raw, "artworkUrl")
	if t.ArtworkURL == "" {
		t.ArtworkURL, _ = c.extractor.String(raw, "artwork")
	}
	if d, ok := c.extractor.Number(raw, "duration"); ok {
		t.Duration = d
	}
	for _, q := range c.extractor.Objects(raw, "qualities") {
		t.Qualities = append(t.Qualities, strings.Trim(q, `"`))
	}
	return t
}
