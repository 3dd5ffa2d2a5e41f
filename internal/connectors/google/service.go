package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/groupssettings/v1"
	"google.golang.org/api/option"
)

// NewHTTPClient returns an HTTP client that authorises every request with ts.
// The same client serves the API services and raw batch requests.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	return oauth2.NewClient(ctx, ts)
}

// NewDirectoryService creates an Admin SDK Directory service using the provided client.
func NewDirectoryService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*admin.Service, error) {
	return admin.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
}

// NewGroupsSettingsService creates a Groups Settings service using the provided client.
func NewGroupsSettingsService(
	ctx context.Context, client *http.Client, opts ...option.ClientOption,
) (*groupssettings.Service, error) {
	return groupssettings.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
}
