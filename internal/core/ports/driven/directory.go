package driven

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// MaxBatchSize is the most sub-requests the settings API accepts in one batch.
const MaxBatchSize = 1000

// GroupPage is one page of a domain group listing.
type GroupPage struct {
	// Groups are raw group records keyed by API field name.
	Groups []map[string]any
	// NextPageToken is empty on the last page.
	NextPageToken string
}

// MemberPage is one page of a group membership listing.
type MemberPage struct {
	Members []domain.Member
	// NextPageToken is empty on the last page.
	NextPageToken string
}

// SettingsResult is the outcome of one sub-request in a settings batch.
// Exactly one of Fields and Err is set.
type SettingsResult struct {
	// Key is the group key the sub-request was issued for.
	Key    string
	Fields map[string]any
	Err    error
}

// Directory is an authenticated session against the group directory and
// group settings APIs. Every call blocks until the response arrives.
type Directory interface {
	// ListGroups fetches one page of groups in domain.
	// An empty pageToken requests the first page.
	ListGroups(ctx context.Context, domain, pageToken string) (*GroupPage, error)

	// GetSettingsBatch looks up settings for up to MaxBatchSize groups in one
	// batch request. Results are returned in key order, one per key.
	// The error is non-nil only if the batch request as a whole failed.
	GetSettingsBatch(ctx context.Context, keys []string) ([]SettingsResult, error)

	// ListMembers fetches one page of a group's membership.
	ListMembers(ctx context.Context, groupKey, pageToken string) (*MemberPage, error)
}

// SessionFactory creates authenticated sessions.
type SessionFactory interface {
	// NewSession returns a Directory authorised by cred.
	// The credential has already been checked for validity.
	NewSession(ctx context.Context, cred *domain.Credential) (Directory, error)
}
