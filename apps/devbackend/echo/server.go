package devapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/mahudhurio/core"
)

type (
	Options struct {
		Address         string
		Debug           bool
		DisableReqLogs  bool
		DefaultPageSize int
	}

	Deps struct {
		Accounts  *Accounts
		Resources *Resources
		Tokens    *Tokens
		Logger    core.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		deps *Deps
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, deps *Deps) Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	s := &server{
		opts: opts,
		deps: deps,
		app:  echo.New(),
	}
	s.setup()
	return s
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

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.deps.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := s.deps.Tokens.Middleware()

	auth := authHandler{accounts: s.deps.Accounts, tokens: s.deps.Tokens}
	api.POST("/auth/login", auth.login)
	api.GET("/auth/me", auth.me, jwt)

	resourceHandler{res: s.deps.Resources, defaultSize: s.opts.DefaultPageSize}.register(api, jwt)
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

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Mahudhurio dev backend")
}
