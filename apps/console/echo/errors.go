package consoleweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// newHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our error page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newHTTPErrorHandler(s *server, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			args := []interface{}{errors.Wrap(err, message)}
			if sess := s.deps.Store.Session(); sess.Account != nil {
				args = append(args, *sess.Account)
			}
			s.deps.Logger.Error(message, args...)

			// shutting down...
			if core.IsShutdown(err) && signalShutdown != nil {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				data := s.newPageData(http.StatusText(code), ctx.Request().URL.Path, s.deps.Store.Session())
				data.ErrorMessage = message
				err = ctx.Render(code, "error", data)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
