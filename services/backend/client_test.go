package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/session"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	inmemslots "github.com/trezcool/mahudhurio/storage/slots/inmem"
)

type recordingNavigator struct {
	location string
	visited  []string
}

func (n *recordingNavigator) Location() string { return n.location }

func (n *recordingNavigator) Navigate(path string) {
	n.location = path
	n.visited = append(n.visited, path)
}

type fixture struct {
	store *session.Store
	slots *inmemslots.Slots
	nav   *recordingNavigator
}

// newFixture returns a logged in session backed by in-memory slots.
func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	logger := logsvc.NewDiscardLogger()
	slots := inmemslots.New()
	record := session.NewRecord(slots, nil)
	store := session.NewStore(record, logger)

	acc := account.Account{ID: "1", Email: "admin@mahudhurio.test", Role: account.RoleSysAdmin}
	prof := account.Profile{Role: account.RoleSysAdmin, Fields: map[string]interface{}{}}
	require.NoError(t, record.Save(ctx, acc, prof, "xyz"))
	store.SetCredentials(acc, prof, "xyz")

	return &fixture{store: store, slots: slots, nav: &recordingNavigator{location: "/regions"}}
}

func (f *fixture) client(url string, timeout time.Duration, opts ...Option) *Client {
	conf := &core.Config{Backend: core.BackendConfig{BaseURL: url + "/api/", Timeout: timeout}}
	return NewClient(conf, f.store, f.nav, logsvc.NewDiscardLogger(), opts...)
}

func TestInterceptor_bearer(t *testing.T) {
	var gotAuth []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	f := newFixture(t)
	client := f.client(ts.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, client.Do(ctx, http.MethodGet, "/regions", nil, nil, nil))
	f.store.Logout(ctx)
	require.NoError(t, client.Do(ctx, http.MethodGet, "/regions", nil, nil, nil))

	assert.Equal(t, []string{"Bearer xyz", ""}, gotAuth)
}

func TestInterceptor_unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid or expired jwt"}`))
	}))
	defer ts.Close()

	tests := []struct {
		name        string
		location    string
		wantVisited []string
	}{
		{name: "from a page", location: "/regions", wantVisited: []string{session.LoginPath}},
		{name: "from the login page", location: session.LoginPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.nav.location = tt.location
			var invalidations int
			client := f.client(ts.URL, time.Second, OnSessionInvalidated(func() { invalidations++ }))

			_, err := client.List(context.Background(), "regions", 1, 10)

			assert.True(t, errors.Is(err, ErrSessionInvalidated), "error = %v", err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "invalid or expired jwt", apiErr.Message)

			assert.False(t, f.store.Session().Authenticated)
			assert.Empty(t, f.store.Token())
			assert.Equal(t, 0, f.slots.Len())
			assert.Equal(t, tt.wantVisited, f.nav.visited)
			assert.Equal(t, 1, invalidations)
		})
	}
}

func TestInterceptor_unauthorizedWithoutSession(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid credentials"}`))
	}))
	defer ts.Close()

	f := newFixture(t)
	f.store.Logout(context.Background())
	var invalidations int
	client := f.client(ts.URL, time.Second, OnSessionInvalidated(func() { invalidations++ }))

	_, err := client.Authenticate(context.Background(), session.Credentials{Email: "a@b.co", Password: "wrong-password"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "error = %v", err)
	assert.Equal(t, "invalid credentials", apiErr.UserMessage())
	assert.Empty(t, gotAuth)
	assert.Equal(t, 0, invalidations, "a rejected login is not an invalidation")
	assert.Empty(t, f.nav.visited)
}

func TestInterceptor_contextNavigator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	f := newFixture(t)
	client := f.client(ts.URL, time.Second)
	reqNav := &recordingNavigator{location: "/students"}

	_, err := client.Get(WithNavigator(context.Background(), reqNav), "/students", nil)
	assert.True(t, errors.Is(err, ErrSessionInvalidated))
	assert.Equal(t, []string{session.LoginPath}, reqNav.visited)
	assert.Empty(t, f.nav.visited, "the request navigator takes precedence")
}

func TestInterceptor_otherFailuresKeepSession(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{"error": "permission denied"}`, wantMsg: "permission denied"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error": "Internal Server Error"}`, wantMsg: "Internal Server Error"},
		{name: "field errors", status: http.StatusBadRequest, body: `{"page": "invalid page", "limit": "too big"}`, wantMsg: "too big; invalid page"},
		{name: "debug message", status: http.StatusBadRequest, body: `"strconv.Atoi: parsing \"x\""`, wantMsg: `strconv.Atoi: parsing "x"`},
		{name: "plain text", status: http.StatusBadGateway, body: "bad gateway\n", wantMsg: "bad gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			f := newFixture(t)
			_, err := f.client(ts.URL, time.Second).List(context.Background(), "regions", 0, 0)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "error = %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.UserMessage())
			assert.False(t, errors.Is(err, ErrSessionInvalidated))

			assert.True(t, f.store.Session().Authenticated)
			assert.Equal(t, 3, f.slots.Len())
			assert.Empty(t, f.nav.visited)
		})
	}
}

func TestClient_timeoutKeepsSession(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	f := newFixture(t)
	_, err := f.client(ts.URL, 50*time.Millisecond).Get(context.Background(), "/regions", nil)

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionInvalidated))
	assert.True(t, f.store.Session().Authenticated)
	assert.Equal(t, 3, f.slots.Len())
	assert.Empty(t, f.nav.visited)
}

func TestClient_Authenticate(t *testing.T) {
	var gotCreds session.Credentials
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotCreds)
		_, _ = w.Write([]byte(`{
			"token": "xyz",
			"account": {"id": "7", "email": "teacher@mahudhurio.test", "role": "Teacher", "is_active": true},
			"profile": {"name": "Daudi Kimaro", "department": "Mathematics"}
		}`))
	}))
	defer ts.Close()

	f := newFixture(t)
	f.store.Logout(context.Background())

	grant, err := f.client(ts.URL, time.Second).Authenticate(context.Background(), session.Credentials{Email: "teacher@mahudhurio.test", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "teacher@mahudhurio.test", gotCreds.Email)
	assert.Equal(t, "secret", gotCreds.Password)
	assert.Equal(t, "xyz", grant.Token)
	assert.Equal(t, account.RoleTeacher, grant.Account.Role)
	assert.Equal(t, account.RoleTeacher, grant.Profile.Role)
	assert.Equal(t, "Mathematics", grant.Profile.String("department"))
}

func TestClient_List(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Path + "?" + r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items": [{"id": "1", "name": "Region 1"}], "page": 2, "limit": 1, "total": 3}`))
	}))
	defer ts.Close()

	f := newFixture(t)
	p, err := f.client(ts.URL, time.Second).List(context.Background(), "regions", 2, 1)
	require.NoError(t, err)

	assert.Equal(t, "/api/regions?limit=1&page=2", gotQuery)
	assert.Len(t, p.Items, 1)
	assert.Equal(t, 3, p.Pages())
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
}
