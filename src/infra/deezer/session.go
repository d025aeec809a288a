package deezer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"streamvault/src/features/credentials"
	"streamvault/src/infra/extract"
	"streamvault/src/music"
)

// DefaultUserDataEndpoint is the private get-user-data call that seeds a
// session.
const DefaultUserDataEndpoint = "https://www.deezer.com/ajax/gw-light.php?method=deezer.getUserData&input=3&api_version=1.0&api_token="

const sessionTTL = 3600 * time.Second

// SessionTokens is the unit produced by a successful handshake. Partial
// results are never kept.
type SessionTokens struct {
	SessionID    string
	DeviceID     string
	CheckForm    string
	LicenseToken string
	ExpiresAt    time.Time
}

// SessionClient exchanges the long-lived ARL cookie for short-lived session
// tokens. Tokens are cached and refreshed lazily under single-flight.
type SessionClient struct {
	endpoint  string
	arl       func(ctx context.Context) (string, error)
	extractor extract.Extractor
	timeout   time.Duration

	tokens *credentials.Cached[SessionTokens]

	// newClient builds the per-refresh HTTP client; swapped in tests.
	newClient func(jar http.CookieJar) *http.Client
}

// NewSessionClient creates a handshake client. arl supplies the account-level
// cookie value for each refresh.
func NewSessionClient(endpoint string, arl func(ctx context.Context) (string, error), extractor extract.Extractor) *SessionClient {
	if endpoint == "" {
		endpoint = DefaultUserDataEndpoint
	}
	return &SessionClient{
		endpoint:  endpoint,
		arl:       arl,
		extractor: extractor,
		timeout:   10 * time.Second,
		tokens:    credentials.NewCached[SessionTokens](),
		newClient: func(jar http.CookieJar) *http.Client {
			return &http.Client{Jar: jar, Timeout: 10 * time.Second}
		},
	}
}

// GetTokens returns cached tokens, refreshing when absent or expired.
func (c *SessionClient) GetTokens(ctx context.Context) (SessionTokens, error) {
	return c.tokens.Get(ctx, func(ctx context.Context) (SessionTokens, time.Time, error) {
		t, err := c.Refresh(ctx)
		if err != nil {
			return SessionTokens{}, time.Time{}, err
		}
		return t, t.ExpiresAt, nil
	})
}

// Invalidate discards the cached tokens.
func (c *SessionClient) Invalidate() {
	c.tokens.Invalidate()
}

// Refresh performs the cookie handshake: an isolated cookie store, one POST to
// the user-data endpoint, and both session cookies must come back.
func (c *SessionClient) Refresh(ctx context.Context) (SessionTokens, error) {
	arl, err := c.arl(ctx)
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to obtain arl for handshake: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client := c.newClient(jar)

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, nil)
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cookie", "arl="+arl)

	resp, err := client.Do(req)
	if err != nil {
		return SessionTokens{}, music.WrapError(music.KindTransient, fmt.Errorf("user data request failed: %w", err))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SessionTokens{}, fmt.Errorf("failed to read user data response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		kind := music.KindTransient
		if resp.StatusCode == http.StatusNotFound {
			kind = music.KindNotFound
		}
		return SessionTokens{}, music.Errorf(kind, "user data request returned status %d", resp.StatusCode)
	}

	var sessionID, deviceID string
	reqURL := resp.Request.URL
	for _, cookie := range jar.Cookies(reqURL) {
		switch cookie.Name {
		case "sid":
			sessionID = cookie.Value
		case "dzr_uniq_id":
			deviceID = cookie.Value
		}
	}
	if sessionID == "" {
		return SessionTokens{}, music.Errorf(music.KindValidation, "failed to find sid cookie")
	}
	if deviceID == "" {
		return SessionTokens{}, music.Errorf(music.KindValidation, "failed to find dzr_uniq_id cookie")
	}

	text := string(body)
	checkForm, ok := c.extractor.String(text, "checkForm")
	if !ok {
		return SessionTokens{}, music.Errorf(music.KindValidation, "user data response is missing checkForm")
	}
	licenseToken, ok := c.extractor.String(text, "license_token")
	if !ok {
		return SessionTokens{}, music.Errorf(music.KindValidation, "user data response is missing license_token")
	}

	return SessionTokens{
		SessionID:    sessionID,
		DeviceID:     deviceID,
		CheckForm:    checkForm,
		LicenseToken: licenseToken,
		ExpiresAt:    time.Now().Add(sessionTTL),
	}, nil
}

// RefreshCredential implements the credentials.Source contract: the license
// token is the usable credential of the session scope.
func (c *SessionClient) RefreshCredential(ctx context.Context) (credentials.Credential, error) {
	tokens, err := c.GetTokens(ctx)
	if err != nil {
		return credentials.Credential{}, err
	}
	return credentials.Credential{
		Scope:     credentials.ScopeSession,
		Value:     tokens.LicenseToken,
		ExpiresAt: tokens.ExpiresAt,
		Source:    credentials.SourceDerived,
	}, nil
}
