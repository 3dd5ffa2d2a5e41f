package groups

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ggbackup/internal/connectors/google"
	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// fakeAPI serves the Directory endpoints and the settings batch endpoint.
type fakeAPI struct {
	t        *testing.T
	requests []*http.Request
	groups   map[string]string // page token -> response body
	members  map[string]string // group key -> response body
	settings map[string]string // group key -> settings body; missing keys 404
	reverse  bool              // answer batch parts in reverse order
	status   int               // non-zero fails every request
	auth     string

	batchPaths []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:        t,
		groups:   map[string]string{},
		members:  map[string]string{},
		settings: map[string]string{},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r)
	f.auth = r.Header.Get("Authorization")
	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"Not Authorized to access this resource/api"}}`, f.status)
		return
	}

	switch {
	case r.URL.Path == "/admin/directory/v1/groups":
		f.serveJSON(w, f.groups[r.URL.Query().Get("pageToken")])
	case strings.HasPrefix(r.URL.Path, "/admin/directory/v1/groups/") && strings.HasSuffix(r.URL.Path, "/members"):
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/admin/directory/v1/groups/"), "/members")
		body, ok := f.members[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Resource Not Found: groupKey"}}`))
			return
		}
		f.serveJSON(w, body)
	case r.URL.Path == "/batch/groupssettings/v1":
		f.serveBatch(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) serveJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	if body == "" {
		body = "{}"
	}
	_, _ = w.Write([]byte(body))
}

func newTestDirectory(t *testing.T, api *fakeAPI) *Directory {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	dir, err := NewDirectory(context.Background(), srv.Client(), Config{
		PageSize:          2,
		RequestsPerSecond: -1,
		DirectoryEndpoint: srv.URL + "/",
		BatchURL:          srv.URL + "/batch/groupssettings/v1",
	})
	require.NoError(t, err)
	return dir
}

func TestDirectory_ListGroups(t *testing.T) {
	api := newFakeAPI(t)
	api.groups[""] = `{"kind":"admin#directory#groups","groups":[
		{"kind":"admin#directory#group","id":"01","email":"eng@example.com","name":"Eng",
		 "directMembersCount":"3","adminCreated":true,"aliases":["e@example.com"]},
		{"kind":"admin#directory#group","id":"02","email":"ops@example.com","name":"Ops"}
	],"nextPageToken":"page-2"}`
	dir := newTestDirectory(t, api)

	page, err := dir.ListGroups(context.Background(), "example.com", "")

	require.NoError(t, err)
	assert.Equal(t, "page-2", page.NextPageToken)
	require.Len(t, page.Groups, 2)
	assert.Equal(t, "eng@example.com", page.Groups[0]["email"])
	assert.Equal(t, "Eng", page.Groups[0]["name"])
	assert.Equal(t, true, page.Groups[0]["adminCreated"])
	assert.Equal(t, []any{"e@example.com"}, page.Groups[0]["aliases"])
	assert.NotContains(t, page.Groups[1], "aliases")

	q := api.requests[0].URL.Query()
	assert.Equal(t, "example.com", q.Get("domain"))
	assert.Equal(t, "2", q.Get("maxResults"))
	assert.Empty(t, q.Get("pageToken"))
}

func TestDirectory_ListGroups_PageToken(t *testing.T) {
	api := newFakeAPI(t)
	api.groups["page-2"] = `{"groups":[{"email":"last@example.com"}]}`
	dir := newTestDirectory(t, api)

	page, err := dir.ListGroups(context.Background(), "example.com", "page-2")

	require.NoError(t, err)
	assert.Empty(t, page.NextPageToken)
	require.Len(t, page.Groups, 1)
	assert.Equal(t, "page-2", api.requests[0].URL.Query().Get("pageToken"))
}

func TestDirectory_ListGroups_EmptyDomain(t *testing.T) {
	api := newFakeAPI(t)
	api.groups[""] = `{"kind":"admin#directory#groups"}`
	dir := newTestDirectory(t, api)

	page, err := dir.ListGroups(context.Background(), "example.com", "")

	require.NoError(t, err)
	assert.Empty(t, page.Groups)
	assert.Empty(t, page.NextPageToken)
}

func TestDirectory_ListGroups_Forbidden(t *testing.T) {
	api := newFakeAPI(t)
	api.status = http.StatusForbidden
	dir := newTestDirectory(t, api)

	_, err := dir.ListGroups(context.Background(), "example.com", "")

	assert.ErrorIs(t, err, google.ErrForbidden)
	assert.Contains(t, err.Error(), "Not Authorized")
}

func TestDirectory_ListMembers(t *testing.T) {
	api := newFakeAPI(t)
	api.members["eng@example.com"] = `{"members":[
		{"kind":"admin#directory#member","id":"1","email":"a@example.com","role":"OWNER",
		 "type":"USER","status":"ACTIVE","etag":"\"e1\""},
		{"kind":"admin#directory#member","id":"2","role":"MEMBER","type":"CUSTOMER"}
	],"nextPageToken":"next"}`
	dir := newTestDirectory(t, api)

	page, err := dir.ListMembers(context.Background(), "eng@example.com", "")

	require.NoError(t, err)
	assert.Equal(t, "next", page.NextPageToken)
	assert.Equal(t, []domain.Member{
		{Kind: "admin#directory#member", ID: "1", Email: "a@example.com", Role: "OWNER", Type: "USER", Status: "ACTIVE", Etag: `"e1"`},
		{Kind: "admin#directory#member", ID: "2", Role: "MEMBER", Type: "CUSTOMER"},
	}, page.Members)
	assert.Equal(t, "2", api.requests[0].URL.Query().Get("maxResults"))
}

func TestDirectory_ListMembers_NotFound(t *testing.T) {
	api := newFakeAPI(t)
	dir := newTestDirectory(t, api)

	_, err := dir.ListMembers(context.Background(), "gone@example.com", "")

	assert.ErrorIs(t, err, google.ErrNotFound)
}

func TestDirectory_CancelledContext(t *testing.T) {
	api := newFakeAPI(t)
	dir := newTestDirectory(t, api)
	dir.directoryLimiter = google.NewRateLimiterWithConfig(google.RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	require.True(t, dir.directoryLimiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := dir.ListGroups(ctx, "example.com", "")

	assert.Error(t, err)
	assert.Empty(t, api.requests)
}

func TestSessionFactory_NewSession(t *testing.T) {
	api := newFakeAPI(t)
	api.groups[""] = `{"groups":[]}`
	srv := httptest.NewServer(api)
	defer srv.Close()

	factory := NewSessionFactory(Config{DirectoryEndpoint: srv.URL + "/", RequestsPerSecond: -1})
	cred := &domain.Credential{
		AccessToken: "token-123",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}

	session, err := factory.NewSession(context.Background(), cred)
	require.NoError(t, err)

	_, err = session.ListGroups(context.Background(), "example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", api.auth)
	assert.Equal(t, "200", api.requests[0].URL.Query().Get("maxResults"))
}

func TestSessionFactory_NilCredential(t *testing.T) {
	_, err := NewSessionFactory(Config{}).NewSession(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{PageSize: 500}.withDefaults()

	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultBatchURL, cfg.BatchURL)
	assert.Equal(t, 50, Config{PageSize: 50}.withDefaults().PageSize)
}

func TestToFields_KeepsNumbers(t *testing.T) {
	fields, err := toFields(map[string]any{"count": 12, "name": "x"})

	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), fields["count"])
}
