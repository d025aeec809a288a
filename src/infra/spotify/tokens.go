package spotify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"streamvault/src/features/credentials"
	"streamvault/src/infra/extract"
	"streamvault/src/music"
)

// DefaultAccountsTokenURL is the client-credentials token endpoint.
const DefaultAccountsTokenURL = "https://accounts.spotify.com/api/token"

// TokenTracker obtains the three token flavors the service offers: anonymous
// (minted with a derived time code), account (exchanged for the sp_dc cookie)
// and client (standard client-credentials grant).
type TokenTracker struct {
	deriver   *Deriver
	client    TextGetter
	extractor extract.Extractor

	// mu guards the reloadable secrets below; the config watcher swaps them
	// while credential refreshes read them.
	mu           sync.RWMutex
	spDC         string
	clientID     string
	clientSecret string

	accountsURL string
}

// NewTokenTracker creates a tracker. spDC, clientID and clientSecret may be
// empty; the corresponding scopes then fail with a configuration error.
func NewTokenTracker(deriver *Deriver, client TextGetter, extractor extract.Extractor, spDC, clientID, clientSecret string) *TokenTracker {
	return &TokenTracker{
		deriver:      deriver,
		client:       client,
		extractor:    extractor,
		spDC:         spDC,
		clientID:     clientID,
		clientSecret: clientSecret,
		accountsURL:  DefaultAccountsTokenURL,
	}
}

// RefreshAnonymous mints an anonymous access token using the derived time
// code. Implements credentials.Source for the anonymous scope.
func (t *TokenTracker) RefreshAnonymous(ctx context.Context) (credentials.Credential, error) {
	return t.mint(ctx, credentials.ScopeAnonymous, nil)
}

// RefreshAccount exchanges the configured sp_dc cookie for an account token.
func (t *TokenTracker) RefreshAccount(ctx context.Context) (credentials.Credential, error) {
	t.mu.RLock()
	spDC := t.spDC
	t.mu.RUnlock()
	if spDC == "" {
		return credentials.Credential{}, music.Errorf(music.KindConfiguration, "sp_dc cookie is not configured")
	}
	headers := map[string]string{
		"App-Platform": "WebPlayer",
		"Cookie":       "sp_dc=" + spDC,
	}
	return t.mint(ctx, credentials.ScopeAccount, headers)
}

func (t *TokenTracker) mint(ctx context.Context, scope credentials.Scope, headers map[string]string) (credentials.Credential, error) {
	requestURL, err := t.deriver.TokenRequestURL(ctx)
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("token derivation unavailable: %w", err)
	}
	status, body, err := t.client.GetText(ctx, requestURL, headers)
	if err != nil {
		return credentials.Credential{}, music.WrapError(music.KindTransient, fmt.Errorf("token request failed: %w", err))
	}
	if status != 200 {
		return credentials.Credential{}, music.Errorf(music.KindTransient, "token request returned status %d", status)
	}
	if errMsg, ok := t.extractor.String(body, "error"); ok && errMsg != "" {
		return credentials.Credential{}, music.Errorf(music.KindValidation, "token endpoint returned error: %s", errMsg)
	}
	token, ok := t.extractor.String(body, "accessToken")
	if !ok || token == "" {
		return credentials.Credential{}, music.Errorf(music.KindValidation, "token response is missing accessToken")
	}
	expiresAt := time.Now().Add(30 * time.Minute)
	if ms, ok := t.extractor.Number(body, "accessTokenExpirationTimestampMs"); ok {
		expiresAt = time.UnixMilli(ms)
	}
	return credentials.Credential{
		Scope:     scope,
		Value:     token,
		ExpiresAt: expiresAt,
		Source:    credentials.SourceDerived,
	}, nil
}

// RefreshClient obtains a token through the client-credentials grant.
func (t *TokenTracker) RefreshClient(ctx context.Context) (credentials.Credential, error) {
	t.mu.RLock()
	clientID, clientSecret := t.clientID, t.clientSecret
	t.mu.RUnlock()
	if clientID == "" || clientSecret == "" {
		return credentials.Credential{}, music.Errorf(music.KindConfiguration, "client id/secret are not configured")
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     t.accountsURL,
	}
	token, err := cfg.Token(ctx)
	if err != nil {
		return credentials.Credential{}, music.WrapError(music.KindTransient, fmt.Errorf("client credentials grant failed: %w", err))
	}
	return credentials.Credential{
		Scope:     credentials.ScopeClient,
		Value:     token.AccessToken,
		ExpiresAt: token.Expiry,
		Source:    credentials.SourceStatic,
	}, nil
}

// SetClientIDs swaps the client id/secret pair. The caller is expected to
// invalidate the client scope afterwards.
func (t *TokenTracker) SetClientIDs(clientID, clientSecret string) {
	t.mu.Lock()
	t.clientID = clientID
	t.clientSecret = clientSecret
	t.mu.Unlock()
}

// SetSpDC swaps the account cookie value.
func (t *TokenTracker) SetSpDC(spDC string) {
	t.mu.Lock()
	t.spDC = spDC
	t.mu.Unlock()
}
