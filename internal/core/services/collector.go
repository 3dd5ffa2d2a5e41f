package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// OAuth2 scopes requested by the consent flow.
const (
	ScopeGroupReadonly       = "https://www.googleapis.com/auth/admin.directory.group.readonly"
	ScopeGroupMemberReadonly = "https://www.googleapis.com/auth/admin.directory.group.member.readonly"
	ScopeGroupSettings       = "https://www.googleapis.com/auth/apps.groups.settings"
)

// Scopes returns the minimum scopes for a backup.
// The settings scope is only requested when settings are retrieved.
func Scopes(withSettings bool) []string {
	scopes := []string{ScopeGroupReadonly, ScopeGroupMemberReadonly}
	if withSettings {
		scopes = append(scopes, ScopeGroupSettings)
	}
	return scopes
}

// Collector authenticates and builds the group registry.
// All calls are sequential; the session is never used concurrently.
type Collector struct {
	flows     driven.FlowFactory
	prompter  driven.AuthPrompter
	store     driven.CredentialStore
	sessions  driven.SessionFactory
	batchSize int
}

// NewCollector creates a collector.
// flows and prompter are only needed for interactive authentication.
func NewCollector(
	flows driven.FlowFactory,
	prompter driven.AuthPrompter,
	store driven.CredentialStore,
	sessions driven.SessionFactory,
) *Collector {
	return &Collector{
		flows:     flows,
		prompter:  prompter,
		store:     store,
		sessions:  sessions,
		batchSize: driven.MaxBatchSize,
	}
}

// AuthenticateInteractive runs the OAuth2 consent flow for the client in
// secretsPath and returns the issued credential.
func (c *Collector) AuthenticateInteractive(
	ctx context.Context, secretsPath string, withSettings bool,
) (*domain.Credential, error) {
	if c.flows == nil || c.prompter == nil {
		return nil, fmt.Errorf("%w: interactive authentication not configured", domain.ErrAuth)
	}

	flow, err := c.flows.NewFlow(secretsPath, Scopes(withSettings), c.prompter.RedirectURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("%w: generating state: %w", domain.ErrAuth, err)
	}

	logger.Debug("Generating authorization URL.")
	code, err := c.prompter.Authorize(ctx, flow.AuthCodeURL(state), state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code entered", domain.ErrAuth)
	}

	logger.Debug("Generating credentials.")
	cred, err := flow.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging authorization code: %w", domain.ErrAuth, err)
	}
	return cred, nil
}

// LoadCredential reads a previously saved credential.
func (c *Collector) LoadCredential(path string) (*domain.Credential, error) {
	cred, err := c.store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", domain.ErrCredential, path, err)
	}
	logger.Debug("Loaded credentials from %s", path)
	return cred, nil
}

// SaveCredential persists a usable credential. An absent or invalid
// credential is refused rather than written.
func (c *Collector) SaveCredential(path string, cred *domain.Credential) error {
	if err := cred.Check(); err != nil {
		return fmt.Errorf("%w: refusing to save: %w", domain.ErrCredential, err)
	}
	if err := c.store.Save(path, cred); err != nil {
		return fmt.Errorf("%w: saving %s: %w", domain.ErrCredential, path, err)
	}
	logger.Info("Saved credentials to %s", path)
	return nil
}

// StartSession creates an authenticated session. The credential is checked
// before any network call is made.
func (c *Collector) StartSession(ctx context.Context, cred *domain.Credential) (driven.Directory, error) {
	if err := cred.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	session, err := c.sessions.NewSession(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	return session, nil
}

// ListGroups builds a registry of every group in the domain, following the
// continuation token until it is exhausted. On failure the groups gathered
// so far are returned alongside the error.
func (c *Collector) ListGroups(
	ctx context.Context, session driven.Directory, domainName string,
) (*domain.Registry, error) {
	registry := domain.NewRegistry()

	token := ""
	for page := 1; ; page++ {
		logger.Debug("Fetching group page %d for %s.", page, domainName)
		result, err := session.ListGroups(ctx, domainName, token)
		if err != nil {
			return registry, fmt.Errorf("%w: page %d: %w", domain.ErrDirectory, page, err)
		}

		for _, raw := range result.Groups {
			if err := registry.Add(domain.NewGroup(raw)); err != nil {
				logger.Warn("Skipping group record on page %d: %v", page, err)
			}
		}

		if result.NextPageToken == "" {
			break
		}
		if result.NextPageToken == token {
			return registry, fmt.Errorf("%w: page %d repeated its continuation token", domain.ErrDirectory, page)
		}
		token = result.NextPageToken
	}

	logger.Info("Retrieved %d groups.", registry.Len())
	return registry, nil
}

// FetchSettings merges each group's settings into its record. Lookups are
// issued in batches of at most MaxBatchSize groups. A failed lookup for one
// group is logged and skipped. A batch that fails as a whole is logged,
// the remaining batches are still issued, and the failure is returned.
func (c *Collector) FetchSettings(ctx context.Context, session driven.Directory, registry *domain.Registry) error {
	var errs []error
	for i, batch := range Chunk(registry.Emails(), c.batchSize) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		logger.Debug("Executing settings batch %d (%d groups).", i+1, len(batch))
		results, err := session.GetSettingsBatch(ctx, batch)
		if err != nil {
			logger.Warn("Settings batch %d failed: %v", i+1, err)
			errs = append(errs, fmt.Errorf("batch %d: %w", i+1, err))
			continue
		}
		merged := mergeSettings(registry, results)
		logger.Debug("Settings batch %d merged %d of %d groups.", i+1, merged, len(batch))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrSettings, errors.Join(errs...))
	}
	return nil
}

// mergeSettings folds batch results into the registry and returns the
// number of groups enriched.
func mergeSettings(registry *domain.Registry, results []driven.SettingsResult) int {
	merged := 0
	for _, r := range results {
		if r.Err != nil {
			logger.WithField("group", r.Key).Warnf("Exception encountered while gathering settings: %v", r.Err)
			continue
		}

		group, ok := registry.Get(r.Key)
		if !ok {
			email, _ := r.Fields[domain.FieldEmail].(string)
			if group, ok = registry.Get(email); !ok {
				logger.WithField("group", r.Key).Warn("Settings returned for unknown group")
				continue
			}
		}

		logger.Debug("Settings for group %s retrieved.", group.Email())
		group.Merge(r.Fields)
		merged++
	}
	return merged
}

// FetchMembers attaches each group's full membership list, following the
// continuation token per group. A group whose listing fails is logged and
// left without members; the remaining groups are still processed.
func (c *Collector) FetchMembers(ctx context.Context, session driven.Directory, registry *domain.Registry) error {
	var errs []error
	for _, group := range registry.Groups() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		members, err := listAllMembers(ctx, session, group.Email())
		if err != nil {
			logger.WithField("group", group.Email()).Warnf("Could not list members: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", group.Email(), err))
			continue
		}
		group.SetMembers(members)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrMembers, errors.Join(errs...))
	}
	return nil
}

func listAllMembers(ctx context.Context, session driven.Directory, groupKey string) ([]domain.Member, error) {
	members := []domain.Member{}
	token := ""
	for {
		page, err := session.ListMembers(ctx, groupKey, token)
		if err != nil {
			return nil, err
		}
		members = append(members, page.Members...)

		if page.NextPageToken == "" || page.NextPageToken == token {
			return members, nil
		}
		token = page.NextPageToken
	}
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
