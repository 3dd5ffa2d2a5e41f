package domain

import "time"

// Credential holds OAuth2 tokens together with the client configuration
// needed to refresh them, so a saved credential is usable without the
// client secrets file.
type Credential struct {
	// ClientID and ClientSecret identify the OAuth client the tokens were issued to.
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// AuthURL and TokenURL are the provider endpoints.
	AuthURL  string `json:"auth_uri"`
	TokenURL string `json:"token_uri"`
	// Scopes are the scopes that were granted.
	Scopes []string `json:"scopes"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`

	// Invalid is set once a refresh has been rejected by the provider.
	Invalid bool `json:"invalid"`
}

// IsExpired returns true if the access token has expired.
func (c *Credential) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Check reports why the credential cannot be used, or nil if it can.
// A nil credential is reported as ErrNoCredential.
func (c *Credential) Check() error {
	switch {
	case c == nil || c.AccessToken == "":
		return ErrNoCredential
	case c.Invalid:
		return ErrCredentialInvalid
	case c.IsExpired() && !c.HasRefreshToken():
		return ErrCredentialExpired
	default:
		return nil
	}
}

// IsValid returns true if the credential can authorise API calls.
func (c *Credential) IsValid() bool {
	return c.Check() == nil
}

// Invalidate marks the credential unusable.
func (c *Credential) Invalidate() {
	c.Invalid = true
}

// HasScope returns true if the scope was granted.
func (c *Credential) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
