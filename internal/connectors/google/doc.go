// Package google provides shared infrastructure for the Google Workspace APIs
// used by the groups backup.
//
// This package contains:
//   - FlowFactory for the OAuth2 consent flow from a client secrets file
//   - TokenSource adapter to bridge a saved Credential to oauth2.TokenSource
//   - Service factories for creating Google API clients
//   - Error handling for common Google API errors (401, 403, 404, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts := google.NewTokenSource(ctx, cred)
//	client := google.NewHTTPClient(ctx, ts)
//	svc, err := google.NewDirectoryService(ctx, client)
//
// # OAuth2 Scopes
//
// The backup uses these scopes:
//   - https://www.googleapis.com/auth/admin.directory.group.readonly
//   - https://www.googleapis.com/auth/admin.directory.group.member.readonly
//   - https://www.googleapis.com/auth/apps.groups.settings (only when settings are retrieved)
//
// The settings API has no read-only scope.
package google
