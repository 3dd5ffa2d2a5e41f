package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/ggbackup/internal/connectors/google"
	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
)

// Ensure Directory implements the interface.
var _ driven.Directory = (*Directory)(nil)

// Directory is an authorised session against the Directory and Groups
// Settings APIs.
type Directory struct {
	client       *http.Client
	admin        *admin.Service
	batchURL     string
	settingsPath string
	pageSize     int64

	directoryLimiter *google.RateLimiter
	settingsLimiter  *google.RateLimiter
}

// NewDirectory creates a session that sends every request through client.
func NewDirectory(ctx context.Context, client *http.Client, cfg Config) (*Directory, error) {
	cfg = cfg.withDefaults()

	var opts []option.ClientOption
	if cfg.DirectoryEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.DirectoryEndpoint))
	}
	adminSvc, err := google.NewDirectoryService(ctx, client, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating directory service: %w", err)
	}

	settingsSvc, err := google.NewGroupsSettingsService(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("creating groups settings service: %w", err)
	}
	base, err := url.Parse(settingsSvc.BasePath)
	if err != nil {
		return nil, fmt.Errorf("parsing groups settings base path: %w", err)
	}

	d := &Directory{
		client:           client,
		admin:            adminSvc,
		batchURL:         cfg.BatchURL,
		settingsPath:     base.Path,
		pageSize:         int64(cfg.PageSize),
		directoryLimiter: google.NewRateLimiter(google.ServiceDirectory),
		settingsLimiter:  google.NewRateLimiter(google.ServiceGroupsSettings),
	}
	if cfg.RequestsPerSecond != 0 {
		limit := google.RateLimitConfig{RequestsPerSecond: cfg.RequestsPerSecond, BurstSize: 1}
		d.directoryLimiter = google.NewRateLimiterWithConfig(limit)
		d.settingsLimiter = google.NewRateLimiterWithConfig(limit)
	}
	return d, nil
}

// ListGroups fetches one page of the groups in domainName.
func (d *Directory) ListGroups(ctx context.Context, domainName, pageToken string) (*driven.GroupPage, error) {
	if err := d.directoryLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := d.admin.Groups.List().Domain(domainName).MaxResults(d.pageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, google.WrapError(err)
	}

	page := &driven.GroupPage{
		Groups:        make([]map[string]any, 0, len(resp.Groups)),
		NextPageToken: resp.NextPageToken,
	}
	for _, g := range resp.Groups {
		fields, err := toFields(g)
		if err != nil {
			return nil, fmt.Errorf("decoding group %s: %w", g.Email, err)
		}
		page.Groups = append(page.Groups, fields)
	}
	return page, nil
}

// ListMembers fetches one page of groupKey's membership.
func (d *Directory) ListMembers(ctx context.Context, groupKey, pageToken string) (*driven.MemberPage, error) {
	if err := d.directoryLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := d.admin.Members.List(groupKey).MaxResults(d.pageSize).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, google.WrapError(err)
	}

	page := &driven.MemberPage{
		Members:       make([]domain.Member, 0, len(resp.Members)),
		NextPageToken: resp.NextPageToken,
	}
	for _, m := range resp.Members {
		page.Members = append(page.Members, domain.Member{
			Kind:   m.Kind,
			ID:     m.Id,
			Email:  m.Email,
			Role:   m.Role,
			Type:   m.Type,
			Status: m.Status,
			Etag:   m.Etag,
		})
	}
	return page, nil
}

// toFields turns an API resource into a record keyed by its JSON field
// names. Numbers are kept as json.Number so they print as sent.
func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeFields(bytes.NewReader(data))
}
