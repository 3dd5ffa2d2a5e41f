package google

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// TokenSourceAdapter adapts a saved Credential to oauth2.TokenSource.
// Refreshed tokens are written back to the credential; a refresh the
// provider rejects marks it invalid.
type TokenSourceAdapter struct {
	mu   sync.Mutex
	cred *domain.Credential
	base oauth2.TokenSource
}

// NewTokenSource creates an oauth2.TokenSource from a Credential.
// The returned TokenSource can be used with NewHTTPClient or
// option.WithTokenSource() when creating Google API services.
func NewTokenSource(ctx context.Context, cred *domain.Credential) oauth2.TokenSource {
	return &TokenSourceAdapter{
		cred: cred,
		base: OAuthConfig(cred).TokenSource(ctx, Token(cred)),
	}
}

// Token implements oauth2.TokenSource interface.
// Called by Google API clients when they need an access token.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tok, err := t.base.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			t.cred.Invalidate()
		}
		return nil, fmt.Errorf("%w: refreshing token: %w", domain.ErrAuth, err)
	}

	t.cred.AccessToken = tok.AccessToken
	t.cred.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		t.cred.RefreshToken = tok.RefreshToken
	}
	return tok, nil
}

// OAuthConfig rebuilds the client configuration stored with a credential.
func OAuthConfig(cred *domain.Credential) *oauth2.Config {
	endpoint := googleoauth.Endpoint
	if cred.AuthURL != "" {
		endpoint.AuthURL = cred.AuthURL
	}
	if cred.TokenURL != "" {
		endpoint.TokenURL = cred.TokenURL
	}
	return &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       cred.Scopes,
	}
}

// Token returns the credential's tokens as an oauth2.Token.
func Token(cred *domain.Credential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}
}
