package backend

import (
	"context"
	"net/http"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
)

type (
	// SessionStore is the part of session.Store the interceptor relies on.
	SessionStore interface {
		Token() string
		Logout(ctx context.Context)
	}

	// Interceptor decorates every outgoing request with the bearer token of the current session
	// and tears the session down when the backend answers 401.
	Interceptor struct {
		next         http.RoundTripper
		store        SessionStore
		nav          session.Navigator
		logger       core.Logger
		onInvalidate func()
	}

	navigatorKey struct{}
)

var _ http.RoundTripper = (*Interceptor)(nil)

// NewInterceptor wraps next (http.DefaultTransport when nil).
// nav is the fallback Navigator for requests whose context does not carry one.
func NewInterceptor(next http.RoundTripper, store SessionStore, nav session.Navigator, logger core.Logger) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Interceptor{next: next, store: store, nav: nav, logger: logger}
}

// WithNavigator returns a context whose requests report forced navigations to nav.
func WithNavigator(ctx context.Context, nav session.Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

func (i *Interceptor) navigator(ctx context.Context) session.Navigator {
	if nav, ok := ctx.Value(navigatorKey{}).(session.Navigator); ok && nav != nil {
		return nav
	}
	return i.nav
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	token := i.store.Token()
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := i.next.RoundTrip(req)
	if err != nil {
		return nil, err // timeouts & network failures never touch the session
	}
	// without a token there is no session to invalidate, eg. a rejected login
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		i.invalidate(req.Context(), req)
	}
	return resp, nil
}

// invalidate clears the session, then leaves the current page unless it already is the login page.
func (i *Interceptor) invalidate(ctx context.Context, req *http.Request) {
	i.logger.Warn("backend rejected credentials, clearing session", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	i.store.Logout(context.WithoutCancel(ctx))
	if i.onInvalidate != nil {
		i.onInvalidate()
	}

	if nav := i.navigator(ctx); nav != nil && nav.Location() != session.LoginPath {
		nav.Navigate(session.LoginPath)
	}
}
