package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/session"
)

const maxErrorBody = 64 << 10

type (
	// Client is the only way the console talks to the backend; every request goes through the Interceptor.
	Client struct {
		baseURL     string
		http        *http.Client
		interceptor *Interceptor
	}

	Option func(*Client)
)

var _ session.Authenticator = (*Client)(nil)

// OnSessionInvalidated registers a hook run after every 401.
func OnSessionInvalidated(fn func()) Option {
	return func(c *Client) { c.interceptor.onInvalidate = fn }
}

func NewClient(conf *core.Config, store SessionStore, nav session.Navigator, logger core.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(conf.Backend.BaseURL, "/"),
		interceptor: NewInterceptor(nil, store, nav, logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Transport: c.interceptor,
		Timeout:   conf.Backend.Timeout,
	}
	return c
}

// Do sends a request to path (relative to the base URL) and decodes a JSON answer into dst, if not nil.
// Non-2xx answers are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, dst interface{}) error {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, data)
	}
	if dst == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// Get returns the raw JSON answer of a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type authResponse struct {
	Token   string          `json:"token"`
	Account account.Account `json:"account"`
	Profile json.RawMessage `json:"profile"`
}

// Authenticate calls the authentication endpoint.
func (c *Client) Authenticate(ctx context.Context, creds session.Credentials) (session.Grant, error) {
	var resp authResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return session.Grant{}, err
	}
	prof, err := account.NewProfile(resp.Account.Role, resp.Profile)
	if err != nil {
		return session.Grant{}, errors.Wrap(err, "reading profile")
	}
	return session.Grant{Account: resp.Account, Profile: prof, Token: resp.Token}, nil
}

type meResponse struct {
	Account account.Account `json:"account"`
	Profile json.RawMessage `json:"profile"`
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (account.Account, account.Profile, error) {
	var resp meResponse
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return account.Account{}, account.Profile{}, err
	}
	prof, err := account.NewProfile(resp.Account.Role, resp.Profile)
	if err != nil {
		return account.Account{}, account.Profile{}, errors.Wrap(err, "reading profile")
	}
	return resp.Account, prof, nil
}

// Page is one page of a resource listing.
type Page struct {
	Items []map[string]interface{} `json:"items"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
	Total int                      `json:"total"`
}

// Pages returns the number of pages, at least 1.
func (p Page) Pages() int {
	if p.Limit <= 0 || p.Total <= p.Limit {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.Pages() }

// List fetches one page of a resource, eg. "regions" or "attendance/me".
func (c *Client) List(ctx context.Context, resource string, page, limit int) (Page, error) {
	q := make(url.Values)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var p Page
	if err := c.Do(ctx, http.MethodGet, resource, q, nil, &p); err != nil {
		return Page{}, err
	}
	if p.Items == nil {
		p.Items = []map[string]interface{}{}
	}
	return p, nil
}
