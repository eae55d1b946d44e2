package consoleweb

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/backend"
	"github.com/trezcool/mahudhurio/services/metrics"
)

type (
	Options struct {
		Address        string
		AppName        string
		Debug          bool
		DisableReqLogs bool
		CookieSecret   string
		SignalShutdown func()
	}

	Deps struct {
		Store        *session.Store
		Record       *session.Record
		Bootstrapper *session.Bootstrapper
		Client       *backend.Client
		Metrics      *metrics.Metrics
		Logger       core.Logger
		Validate     *validator.Validate
		Translator   ut.Translator
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts    *Options
		deps    *Deps
		app     *echo.Echo
		flashes *flashes
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, deps *Deps) (Server, error) {
	rndr, err := newRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "loading templates")
	}
	s := &server{
		opts:    opts,
		deps:    deps,
		app:     echo.New(),
		flashes: newFlashes(opts.CookieSecret),
	}
	s.app.Renderer = rndr
	s.setup()
	return s, nil
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s, s.opts.SignalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.Use(s.bootstrap)

	s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	s.app.GET("/", s.home)
	s.app.GET(session.LoginPath, s.loginForm, s.publicOnly)
	s.app.POST(session.LoginPath, s.submitLogin, s.publicOnly)
	s.app.POST("/logout", s.logout)
	s.app.GET(session.UnauthorizedPath, s.unauthorized)

	for _, route := range guard.Routes {
		handler := s.page(route)
		if route.Name == "dashboard" {
			handler = s.dashboard
		}
		s.app.GET(route.Path, handler, s.roleRestricted(route.Roles))
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
