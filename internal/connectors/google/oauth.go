package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// OOBRedirectURL is the manual copy/paste redirect used when the client
// secrets file registers no redirect URI.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Ensure FlowFactory implements the interface.
var _ driven.FlowFactory = (*FlowFactory)(nil)

// FlowFactory creates consent flows from client secrets files as
// downloaded from the Google Cloud console.
type FlowFactory struct{}

// NewFlowFactory creates a flow factory.
func NewFlowFactory() *FlowFactory {
	return &FlowFactory{}
}

// NewFlow reads the client secrets and prepares a PKCE flow for scopes.
func (f *FlowFactory) NewFlow(secretsPath string, scopes []string, redirectURL string) (driven.OAuthFlow, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}

	cfg, err := googleoauth.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets %s: %w", secretsPath, err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = OOBRedirectURL
	}

	return &Flow{config: cfg, verifier: oauth2.GenerateVerifier()}, nil
}

// Flow is one authorization-code exchange.
type Flow struct {
	config   *oauth2.Config
	verifier string
}

// AuthCodeURL returns the consent URL. Offline access and a forced consent
// prompt ensure a refresh token is issued.
func (f *Flow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(f.verifier),
	)
}

// Exchange trades an authorization code for a credential.
func (f *Flow) Exchange(ctx context.Context, code string) (*domain.Credential, error) {
	tok, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return nil, err
	}
	return CredentialFromToken(f.config, tok), nil
}

// CredentialFromToken builds a credential carrying everything needed to
// refresh tok later. Granted scopes are taken from the token response when
// the provider reports them.
func CredentialFromToken(cfg *oauth2.Config, tok *oauth2.Token) *domain.Credential {
	scopes := cfg.Scopes
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return &domain.Credential{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.Endpoint.AuthURL,
		TokenURL:     cfg.Endpoint.TokenURL,
		Scopes:       scopes,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
}
