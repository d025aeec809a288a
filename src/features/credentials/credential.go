package credentials

import (
	"fmt"
	"time"
)

// Scope names one credential slot. Each configured service contributes the
// scopes its resolution path depends on.
type Scope string

const (
	// ScopeRemote is the rotating remote credential (ARL-style token behind a
	// configured URL).
	ScopeRemote Scope = "remote"
	// ScopeSession is the cookie-handshake session license token.
	ScopeSession Scope = "session"
	// ScopeAnonymous is the time-code minted anonymous access token.
	ScopeAnonymous Scope = "anonymous"
	// ScopeAccount is the account token exchanged for a long-lived cookie.
	ScopeAccount Scope = "account"
	// ScopeClient is the client-credentials access token.
	ScopeClient Scope = "client"
)

// ParseScope validates a scope string from the API surface.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeRemote, ScopeSession, ScopeAnonymous, ScopeAccount, ScopeClient:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown credential scope %q", s)
}

// SourceKind describes how a credential value is obtained.
type SourceKind string

const (
	SourceStatic    SourceKind = "static"
	SourceRemoteURL SourceKind = "remoteUrl"
	SourceDerived   SourceKind = "derived"
)

// Credential is an immutable snapshot of one scope's value. A non-empty,
// non-expired value is always safe to use; replacement happens only through an
// explicit refresh.
type Credential struct {
	Scope     Scope
	Value     string
	ExpiresAt time.Time // zero means no expiry tracked here
	Source    SourceKind
}

// Expired reports whether the credential has aged out.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Redacted returns a loggable description without the value.
func (c Credential) Redacted() map[string]any {
	out := map[string]any{
		"scope":  string(c.Scope),
		"source": string(c.Source),
		"length": len(c.Value),
	}
	if !c.ExpiresAt.IsZero() {
		out["expiresAt"] = c.ExpiresAt
	}
	return out
}
