package groups

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ggbackup/internal/connectors/google"
	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

const (
	// DefaultPageSize is the largest page both listing endpoints accept.
	DefaultPageSize = 200

	// DefaultBatchURL is the Groups Settings batch endpoint.
	DefaultBatchURL = "https://www.googleapis.com/batch/groupssettings/v1"
)

// Config controls how sessions talk to the Google APIs.
type Config struct {
	// PageSize is the page size requested from the listing endpoints.
	PageSize int
	// RequestsPerSecond overrides the default per-service rate limits.
	// Zero keeps the defaults; a negative value disables limiting.
	RequestsPerSecond float64
	// DirectoryEndpoint overrides the Directory API root URL.
	DirectoryEndpoint string
	// BatchURL overrides DefaultBatchURL.
	BatchURL string
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 || c.PageSize > DefaultPageSize {
		c.PageSize = DefaultPageSize
	}
	if c.BatchURL == "" {
		c.BatchURL = DefaultBatchURL
	}
	return c
}

// Ensure SessionFactory implements the interface.
var _ driven.SessionFactory = (*SessionFactory)(nil)

// SessionFactory opens Directory sessions authorised by a saved credential.
type SessionFactory struct {
	cfg Config
}

// NewSessionFactory creates a session factory.
func NewSessionFactory(cfg Config) *SessionFactory {
	return &SessionFactory{cfg: cfg}
}

// NewSession builds an authorised HTTP client for cred and the API
// services on top of it. Tokens are refreshed on demand.
func (f *SessionFactory) NewSession(ctx context.Context, cred *domain.Credential) (driven.Directory, error) {
	if cred == nil {
		return nil, domain.ErrNoCredential
	}
	client := google.NewHTTPClient(ctx, google.NewTokenSource(ctx, cred))

	dir, err := NewDirectory(ctx, client, f.cfg)
	if err != nil {
		return nil, fmt.Errorf("creating directory session: %w", err)
	}
	return dir, nil
}
