package consoleweb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consoleweb "github.com/trezcool/mahudhurio/apps/console/echo"
	devapi "github.com/trezcool/mahudhurio/apps/devbackend/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/services/metrics"
	inmemslots "github.com/trezcool/mahudhurio/storage/slots/inmem"
)

const testPassword = "Passw0rd!"

var backendURL string

func TestMain(m *testing.M) {
	accounts := devapi.NewAccounts()
	resources := devapi.NewResources()
	if err := devapi.Seed(accounts, resources, testPassword); err != nil {
		panic(err)
	}
	dev := devapi.NewServer(
		&devapi.Options{DisableReqLogs: true, DefaultPageSize: 10},
		&devapi.Deps{
			Accounts:  accounts,
			Resources: resources,
			Tokens:    devapi.NewTokens("test-secret", "Mahudhurio", 30*time.Minute),
			Logger:    logsvc.NewDiscardLogger(),
		},
	)
	ts := httptest.NewServer(dev)
	backendURL = ts.URL + "/api"

	code := m.Run()
	ts.Close()
	os.Exit(code)
}

type console struct {
	app     consoleweb.Server
	store   *session.Store
	slots   *inmemslots.Slots
	cookies []*http.Cookie
}

func newConsole(t *testing.T) *console {
	conf := &core.Config{
		AppName:   "Mahudhurio",
		SecretKey: "test-secret",
		Backend:   core.BackendConfig{BaseURL: backendURL, Timeout: 5 * time.Second},
	}
	logger := logsvc.NewDiscardLogger()
	translator := core.NewTranslator()

	slots := inmemslots.New()
	record := session.NewRecord(slots, session.NewSignedCodec(conf.SecretKey))
	store := session.NewStore(record, logger)
	mtrcs := metrics.New("test")

	app, err := consoleweb.NewServer(
		&consoleweb.Options{AppName: conf.AppName, DisableReqLogs: true, CookieSecret: conf.SecretKey},
		&consoleweb.Deps{
			Store:        store,
			Record:       record,
			Bootstrapper: session.NewBootstrapper(store, record, logger),
			Client:       backend.NewClient(conf, store, nil, logger, backend.OnSessionInvalidated(mtrcs.SessionInvalidated)),
			Metrics:      mtrcs,
			Logger:       logger,
			Validate:     core.NewValidator(translator),
			Translator:   translator,
		},
	)
	require.NoError(t, err)
	return &console{app: app, store: store, slots: slots}
}

func (c *console) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.app.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func (c *console) login(t *testing.T, email string) *httptest.ResponseRecorder {
	rec := c.do(http.MethodPost, "/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	return rec
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name     string
		email    string // "" for a logged out console
		path     string
		wantCode int
		wantLoc  string
		wantBody string
	}{
		{name: "logged out, restricted page", path: "/regions", wantCode: http.StatusSeeOther, wantLoc: "/login"},
		{name: "logged out, dashboard", path: "/dashboard", wantCode: http.StatusSeeOther, wantLoc: "/login"},
		{name: "logged out, login page", path: "/login", wantCode: http.StatusOK, wantBody: "Sign in"},
		{name: "logged in, login page", email: "teacher@mahudhurio.test", path: "/login", wantCode: http.StatusSeeOther, wantLoc: "/teacher/dashboard"},
		{name: "dashboard redirect", email: "college@mahudhurio.test", path: "/dashboard", wantCode: http.StatusSeeOther, wantLoc: "/college/dashboard"},
		{name: "own dashboard", email: "student@mahudhurio.test", path: "/student/dashboard", wantCode: http.StatusOK, wantBody: "signed in as Student"},
		{name: "other dashboard", email: "student@mahudhurio.test", path: "/admin/dashboard", wantCode: http.StatusSeeOther, wantLoc: "/unauthorized"},
		{name: "role not allowed", email: "student@mahudhurio.test", path: "/regions", wantCode: http.StatusSeeOther, wantLoc: "/unauthorized"},
		{name: "role allowed", email: "admin@mahudhurio.test", path: "/regions", wantCode: http.StatusOK, wantBody: "Region 1"},
		{name: "pagination", email: "admin@mahudhurio.test", path: "/regions?page=2&limit=2", wantCode: http.StatusOK, wantBody: "Region 3"},
		{name: "profile", email: "teacher@mahudhurio.test", path: "/profile", wantCode: http.StatusOK, wantBody: "Daudi Kimaro"},
		{name: "unauthorized page", email: "student@mahudhurio.test", path: "/unauthorized", wantCode: http.StatusForbidden, wantBody: "/student/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConsole(t)
			if tt.email != "" {
				c.login(t, tt.email)
			}

			rec := c.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			}
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantCode  int
		wantLoc   string
		wantBody  []string
		wantSlots int
	}{
		{
			name:     "invalid fields",
			form:     url.Values{"email": {"nope"}, "password": {"123"}},
			wantCode: http.StatusBadRequest,
			wantBody: []string{"email must look like name@domain.tld", "password must contain at least 6 characters"},
		},
		{
			name:     "missing fields",
			form:     url.Values{},
			wantCode: http.StatusBadRequest,
			wantBody: []string{"email is required", "password is required"},
		},
		{
			name:     "wrong password",
			form:     url.Values{"email": {"admin@mahudhurio.test"}, "password": {"wrong-password"}},
			wantCode: http.StatusBadRequest,
			wantBody: []string{"authentication failed", "admin@mahudhurio.test"},
		},
		{
			name:      "success",
			form:      url.Values{"email": {"Admin@Mahudhurio.test"}, "password": {testPassword}},
			wantCode:  http.StatusSeeOther,
			wantLoc:   "/admin/dashboard",
			wantSlots: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConsole(t)

			rec := c.do(http.MethodPost, "/login", tt.form)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			assert.Equal(t, tt.wantSlots, c.slots.Len())

			sess := c.store.Session()
			assert.Equal(t, tt.wantSlots > 0, sess.Authenticated)
			assert.False(t, sess.Loading)
		})
	}
}

func TestLogout(t *testing.T) {
	c := newConsole(t)
	c.login(t, "admin@mahudhurio.test")

	rec := c.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.False(t, c.store.Session().Authenticated)
	assert.Equal(t, 0, c.slots.Len())

	rec = c.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have been signed out.")

	// again, already logged out
	rec = c.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionInvalidatedByBackend(t *testing.T) {
	c := newConsole(t)
	c.login(t, "admin@mahudhurio.test")

	// the backend no longer honours the token
	sess := c.store.Session()
	c.store.Hydrate(*sess.Account, *sess.Profile, "revoked.token.value")

	rec := c.do(http.MethodGet, "/regions", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.False(t, c.store.Session().Authenticated)
	assert.Equal(t, 0, c.slots.Len())

	rec = c.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your session has expired.")
}

func TestBootstrapRestoresSession(t *testing.T) {
	first := newConsole(t)
	first.login(t, "teacher@mahudhurio.test")

	// a second console sharing the same durable slots, as after a restart
	logger := logsvc.NewDiscardLogger()
	record := session.NewRecord(first.slots, session.NewSignedCodec("test-secret"))
	store := session.NewStore(record, logger)
	session.NewBootstrapper(store, record, logger).Run(context.Background())

	sess := store.Session()
	require.True(t, sess.Authenticated)
	assert.Equal(t, session.SourceStorage, sess.Source)
	assert.Equal(t, "teacher@mahudhurio.test", sess.Account.Email)
	assert.Equal(t, first.store.Token(), sess.Token)
}
