package devapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mahudhurio/apps/devbackend/echo"
	"github.com/trezcool/mahudhurio/core/account"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

const testPassword = "Passw0rd!"

var (
	app      Server
	accounts *Accounts
	tokens   *Tokens
)

func TestMain(m *testing.M) {
	accounts = NewAccounts()
	resources := NewResources()
	if err := Seed(accounts, resources, testPassword); err != nil {
		panic(err)
	}
	tokens = NewTokens("test-secret", "Mahudhurio", 30*time.Minute)

	app = NewServer(
		&Options{DisableReqLogs: true, DefaultPageSize: 10},
		&Deps{Accounts: accounts, Resources: resources, Tokens: tokens, Logger: logsvc.NewDiscardLogger()},
	)
	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type page struct {
	Items []map[string]interface{} `json:"items"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
	Total int                      `json:"total"`
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, email string) string {
	rec, err := accounts.GetByEmail(email)
	require.NoError(t, err)
	token, err := tokens.Generate(tokens.ClaimsFor(rec.Account))
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func Test_login(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
		wantRole account.Role
	}{
		{name: "valid", body: `{"email": "teacher@mahudhurio.test", "password": "Passw0rd!"}`, wantCode: http.StatusOK, wantRole: account.RoleTeacher},
		{name: "email case", body: `{"email": "ADMIN@mahudhurio.test", "password": "Passw0rd!"}`, wantCode: http.StatusOK, wantRole: account.RoleSysAdmin},
		{name: "wrong password", body: `{"email": "teacher@mahudhurio.test", "password": "nope!!"}`, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "unknown email", body: `{"email": "ghost@mahudhurio.test", "password": "Passw0rd!"}`, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "empty", body: `{}`, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/auth/login", "", []byte(tt.body))
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var herr httpErr
				decode(t, rec, &herr)
				assert.Equal(t, tt.wantErr, herr.Error)
				return
			}

			var resp struct {
				Token   string                 `json:"token"`
				Account account.Account        `json:"account"`
				Profile map[string]interface{} `json:"profile"`
			}
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, tt.wantRole, resp.Account.Role)
			assert.NotEmpty(t, resp.Profile["name"])
		})
	}
}

func Test_me(t *testing.T) {
	expired := func() string {
		orig := NowFunc
		NowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		defer func() { NowFunc = orig }()
		return getToken(t, "student@mahudhurio.test")
	}()

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{name: "missing token", wantCode: http.StatusUnauthorized, wantErr: "missing or malformed jwt"},
		{name: "garbage token", token: "abc.def.ghi", wantCode: http.StatusUnauthorized, wantErr: "invalid or expired jwt"},
		{name: "expired token", token: expired, wantCode: http.StatusUnauthorized, wantErr: "invalid or expired jwt"},
		{name: "valid token", token: getToken(t, "student@mahudhurio.test"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", tt.token)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var herr httpErr
				decode(t, rec, &herr)
				assert.Equal(t, tt.wantErr, herr.Error)
				return
			}
			var resp struct {
				Account account.Account `json:"account"`
			}
			decode(t, rec, &resp)
			assert.Equal(t, "student@mahudhurio.test", resp.Account.Email)
		})
	}
}

func Test_resources(t *testing.T) {
	adminToken := getToken(t, "admin@mahudhurio.test")
	studentToken := getToken(t, "student@mahudhurio.test")
	teacherToken := getToken(t, "teacher@mahudhurio.test")

	tests := []struct {
		name      string
		path      string
		token     string
		wantCode  int
		wantErr   string
		wantItems int
		wantTotal int
	}{
		{name: "auth required", path: "/api/regions", wantCode: http.StatusUnauthorized, wantErr: "missing or malformed jwt"},
		{name: "role required", path: "/api/regions", token: studentToken, wantCode: http.StatusForbidden, wantErr: "permission denied"},
		{name: "teacher on colleges", path: "/api/colleges", token: teacherToken, wantCode: http.StatusForbidden, wantErr: "permission denied"},
		{name: "default page", path: "/api/students", token: teacherToken, wantCode: http.StatusOK, wantItems: 10, wantTotal: 40},
		{name: "second page", path: "/api/regions?page=2&limit=2", token: adminToken, wantCode: http.StatusOK, wantItems: 1, wantTotal: 3},
		{name: "past last page", path: "/api/regions?page=9", token: adminToken, wantCode: http.StatusOK, wantItems: 0, wantTotal: 3},
		{name: "invalid page", path: "/api/regions?page=zero", token: adminToken, wantCode: http.StatusBadRequest, wantErr: "invalid page"},
		{name: "own attendance", path: "/api/attendance/me?limit=100", token: studentToken, wantCode: http.StatusOK, wantItems: 15, wantTotal: 15},
		{name: "reports", path: "/api/reports/attendance", token: teacherToken, wantCode: http.StatusOK, wantItems: 10, wantTotal: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var herr httpErr
				decode(t, rec, &herr)
				assert.Equal(t, tt.wantErr, herr.Error)
				return
			}
			var p page
			decode(t, rec, &p)
			assert.Len(t, p.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, p.Total)
		})
	}

	t.Run("own attendance only", func(t *testing.T) {
		student, err := accounts.GetByEmail("student@mahudhurio.test")
		require.NoError(t, err)

		// twice: the filter must hold on every call
		for i := 0; i < 2; i++ {
			req, rec := newAuthRequest(http.MethodGet, "/api/attendance/me", studentToken)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var p page
			decode(t, rec, &p)
			require.NotEmpty(t, p.Items)
			for _, item := range p.Items {
				assert.Equal(t, student.ID, item["student_id"])
			}
		}
	})
}
