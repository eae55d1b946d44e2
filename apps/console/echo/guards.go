package consoleweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/session"
)

const contextSessionKey = "session"

// navigator records where the current request should send the user next.
type navigator struct {
	location string
	target   string
}

var _ session.Navigator = (*navigator)(nil)

func newNavigator(location string) *navigator {
	return &navigator{location: location}
}

func (n *navigator) Location() string { return n.location }

func (n *navigator) Navigate(path string) { n.target = path }

// Navigated reports whether a forced navigation happened.
func (n *navigator) Navigated() bool { return n.target != "" }

// bootstrap restores the previous session before any guard runs. Only the first request does any work.
func (s *server) bootstrap(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s.deps.Bootstrapper.Run(ctx.Request().Context())
		return next(ctx)
	}
}

// publicOnly sends authenticated sessions to their dashboard instead of rendering the page.
func (s *server) publicOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess := s.deps.Store.Session()
		out := guard.PublicOnly(sess)
		s.deps.Metrics.GuardDecision("public_only", out.Decision.String())
		if out.Redirects() {
			return ctx.Redirect(http.StatusSeeOther, out.Location)
		}
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

// roleRestricted only renders the page for authenticated sessions of the allowed roles.
func (s *server) roleRestricted(roles account.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := s.deps.Store.Session()
			out := guard.Authorize(sess, roles)
			s.deps.Metrics.GuardDecision("role_restricted", out.Decision.String())
			if out.Redirects() {
				return ctx.Redirect(http.StatusSeeOther, out.Location)
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// contextSession returns the session the guard evaluated, so a page renders what its guard saw.
func (s *server) contextSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess
	}
	return s.deps.Store.Session()
}
