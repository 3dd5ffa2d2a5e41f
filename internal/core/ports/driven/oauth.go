package driven

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// OAuthFlow is a single OAuth2 authorization-code exchange.
type OAuthFlow interface {
	// AuthCodeURL returns the consent URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a credential.
	Exchange(ctx context.Context, code string) (*domain.Credential, error)
}

// FlowFactory creates OAuth flows from a client secrets file.
type FlowFactory interface {
	// NewFlow reads the client secrets and prepares a flow for scopes.
	// An empty redirectURL uses the one registered in the secrets file.
	NewFlow(secretsPath string, scopes []string, redirectURL string) (OAuthFlow, error)
}

// AuthPrompter is the interactive half of the consent flow.
type AuthPrompter interface {
	// RedirectURL returns the redirect URI the prompter can receive codes on,
	// or "" to use the one registered with the client.
	RedirectURL() string

	// Authorize presents authURL to the user and returns the authorization
	// code. state is the value the provider must echo back.
	Authorize(ctx context.Context, authURL, state string) (string, error)
}
