package session

import "time"

// Session represents a user session at the portal API.
// A session is identified by its token rather than its session ID as the session ID is an optional field whose presence
// depends on whether the OIDC provider implements OpenID session management.
// AccessToken is the OAuth2 access token issued during login; it authenticates the user against the Symphony API.
type Session struct {
	Token       string
	SessionID   string
	UserID      string
	AccessToken string
	Expires     int64
}

// IsExpired returns whether the session has expired at the given point in time
func (ses *Session) IsExpired(now time.Time) bool {
	return ses.Expires <= now.Unix()
}

// BearerToken returns the access token to present to upstream services.
// It is empty for anonymous requests (nil session) and for sessions without an access token.
func (ses *Session) BearerToken() string {
	if ses == nil {
		return ""
	}
	return ses.AccessToken
}
