package consoleweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
	"github.com/trezcool/mahudhurio/services/metrics"
)

const (
	msgSignedOut      = "You have been signed out."
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgRequestFailed  = "Something went wrong while loading this page. Please try again."
)

func (s *server) home(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *server) loginForm(ctx echo.Context) error {
	data := s.newPageData("Sign in", session.LoginPath, s.contextSession(ctx))
	data.Toasts = s.flashes.pop(ctx)
	data.Login = newLoginForm("")
	return ctx.Render(http.StatusOK, "login", data)
}

func (s *server) submitLogin(ctx echo.Context) error {
	var creds session.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding credentials")
	}

	nav := newNavigator(session.LoginPath)
	svc := session.NewLoginService(session.LoginDeps{
		Store:         s.deps.Store,
		Record:        s.deps.Record,
		Authenticator: s.deps.Client,
		Navigator:     nav,
		Validate:      s.deps.Validate,
		Translator:    s.deps.Translator,
		Logger:        s.deps.Logger,
	})

	_, err := svc.Login(backend.WithNavigator(ctx.Request().Context(), nav), creds)
	if err != nil {
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			return errors.Wrap(err, "logging in")
		}

		form := newLoginForm(creds.Email)
		if len(vErr.Fields) > 0 {
			s.deps.Metrics.Login(metrics.LoginInvalid)
			form.Errors = vErr.FieldMap()
		} else {
			s.deps.Metrics.Login(metrics.LoginRejected)
			form.SubmitError = vErr.Error()
		}
		data := s.newPageData("Sign in", session.LoginPath, s.deps.Store.Session())
		data.Login = form
		return ctx.Render(http.StatusBadRequest, "login", data)
	}

	s.deps.Metrics.Login(metrics.LoginSucceeded)
	return ctx.Redirect(http.StatusSeeOther, nav.target)
}

func (s *server) logout(ctx echo.Context) error {
	s.deps.Store.Logout(ctx.Request().Context())
	s.flashes.add(ctx, toastInfo, msgSignedOut)
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (s *server) unauthorized(ctx echo.Context) error {
	data := s.newPageData("Not allowed", session.UnauthorizedPath, s.deps.Store.Session())
	data.Toasts = s.flashes.pop(ctx)
	return ctx.Render(http.StatusForbidden, "unauthorized", data)
}

// dashboard sends every role to its own dashboard.
func (s *server) dashboard(ctx echo.Context) error {
	sess := s.contextSession(ctx)
	return ctx.Redirect(http.StatusSeeOther, account.DashboardPath(sess.Role()))
}

// page renders a declared route: a dashboard, a paginated resource table or the profile.
func (s *server) page(route guard.Route) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess := s.contextSession(ctx)
		data := s.newPageData(route.Title, route.Path, sess)
		data.Shell = true
		data.Toasts = s.flashes.pop(ctx)

		switch {
		case route.Resource != "":
			nav := newNavigator(route.Path)
			reqCtx := backend.WithNavigator(ctx.Request().Context(), nav)
			p, err := s.deps.Client.List(reqCtx, route.Resource, queryInt(ctx, "page"), queryInt(ctx, "limit"))
			if err != nil {
				if nav.Navigated() { // session invalidated by the backend
					s.flashes.add(ctx, toastError, msgSessionExpired)
					return ctx.Redirect(http.StatusSeeOther, nav.target)
				}
				s.deps.Logger.Warn("listing "+route.Resource, err, *sess.Account)
				data.Toasts = append(data.Toasts, toast{Kind: toastError, Message: requestFailure(err)})
				break
			}
			data.Table = newTable(p, ctx.Request().URL)
		case route.Name == "profile":
			data.Profile = profileFields(sess.Profile)
		case strings.HasSuffix(route.Name, "dashboard"):
			data.Dashboard = true
		}
		return ctx.Render(http.StatusOK, "page", data)
	}
}

// requestFailure returns the backend message when there is one.
func requestFailure(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return msgRequestFailed
}

func queryInt(ctx echo.Context, name string) int {
	val, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil || val < 1 {
		return 0
	}
	return val
}
