package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streamvault/src/infra/extract"
	"streamvault/src/music"
)

// getterFunc adapts a closure into a TextGetter.
type getterFunc func(ctx context.Context, url string, headers map[string]string) (int, string, error)

func (f getterFunc) GetText(ctx context.Context, url string, headers map[string]string) (int, string, error) {
	return f(ctx, url, headers)
}

const bundleWithSecret = `var t={"secret":[12,34,56,78],"version":(14)}`

// mintGetter routes landing page, bundle and token endpoint requests.
func mintGetter(tokenBody string, gotHeaders *map[string]string) getterFunc {
	return func(ctx context.Context, url string, headers map[string]string) (int, string, error) {
		switch {
		case url == DefaultLandingURL:
			return 200, landingPage, nil
		case strings.Contains(url, "mobile-web-player"):
			return 200, bundleWithSecret, nil
		case strings.HasPrefix(url, DefaultTokenURL):
			if gotHeaders != nil {
				*gotHeaders = headers
			}
			return 200, tokenBody, nil
		}
		return 404, "", nil
	}
}

func TestRefreshAnonymous(t *testing.T) {
	expiry := time.Now().Add(45 * time.Minute).UnixMilli()
	body := fmt.Sprintf(`{"accessToken":"anon-token","accessTokenExpirationTimestampMs":%d}`, expiry)
	getter := mintGetter(body, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "", "")

	cred, err := tracker.RefreshAnonymous(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred.Value != "anon-token" {
		t.Errorf("value = %q", cred.Value)
	}
	if cred.ExpiresAt.UnixMilli() != expiry {
		t.Errorf("expiry = %v, want %d", cred.ExpiresAt.UnixMilli(), expiry)
	}
}

func TestRefreshAccountSendsCookie(t *testing.T) {
	var gotHeaders map[string]string
	body := `{"accessToken":"account-token"}`
	getter := mintGetter(body, &gotHeaders)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "dc-cookie", "", "")

	cred, err := tracker.RefreshAccount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred.Value != "account-token" {
		t.Errorf("value = %q", cred.Value)
	}
	if gotHeaders["Cookie"] != "sp_dc=dc-cookie" {
		t.Errorf("cookie header = %q", gotHeaders["Cookie"])
	}
	if gotHeaders["App-Platform"] != "WebPlayer" {
		t.Errorf("platform header = %q", gotHeaders["App-Platform"])
	}
}

func TestRefreshAccountWithoutCookie(t *testing.T) {
	getter := mintGetter(`{}`, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "", "")

	_, err := tracker.RefreshAccount(context.Background())
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !music.IsKind(err, music.KindConfiguration) {
		t.Errorf("expected configuration classification, got %v", err)
	}
}

func TestMintRejectsErrorBody(t *testing.T) {
	getter := mintGetter(`{"error":"invalid totp"}`, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "", "")

	_, err := tracker.RefreshAnonymous(context.Background())
	if err == nil {
		t.Fatal("expected error for error body")
	}
	if !music.IsKind(err, music.KindValidation) {
		t.Errorf("expected validation classification, got %v", err)
	}
}

func TestMintRejectsMissingToken(t *testing.T) {
	getter := mintGetter(`{"something":"else"}`, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "", "")

	if _, err := tracker.RefreshAnonymous(context.Background()); err == nil {
		t.Fatal("expected error when accessToken is missing")
	}
}

func TestSecretSwapDuringRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"client-token","token_type":"bearer","expires_in":3600}`)
	}))
	defer server.Close()

	body := `{"accessToken":"account-token"}`
	getter := mintGetter(body, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "dc-0", "id-0", "secret-0")
	tracker.accountsURL = server.URL

	// Hot reloads swap the secrets while refreshes read them.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			tracker.SetSpDC(fmt.Sprintf("dc-%d", i))
			tracker.SetClientIDs(fmt.Sprintf("id-%d", i), fmt.Sprintf("secret-%d", i))
		}
	}()

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		if _, err := tracker.RefreshAccount(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := tracker.RefreshClient(ctx); err != nil {
			t.Fatal(err)
		}
	}
	<-done
}

func TestRefreshClientGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"client-token","token_type":"bearer","expires_in":3600}`)
	}))
	defer server.Close()

	getter := mintGetter(`{}`, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "id", "secret")
	tracker.accountsURL = server.URL

	cred, err := tracker.RefreshClient(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred.Value != "client-token" {
		t.Errorf("value = %q", cred.Value)
	}
}

func TestRefreshClientUnconfigured(t *testing.T) {
	getter := mintGetter(`{}`, nil)
	tracker := NewTokenTracker(NewDeriver(getter, extract.New()), getter, extract.New(), "", "", "")

	_, err := tracker.RefreshClient(context.Background())
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !music.IsKind(err, music.KindConfiguration) {
		t.Errorf("expected configuration classification, got %v", err)
	}
}
