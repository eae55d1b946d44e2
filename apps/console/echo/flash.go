package consoleweb

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const flashCookie = "mahudhurio-flash"

// toast kinds
const (
	toastInfo  = "info"
	toastError = "error"
)

type toast struct {
	Kind    string
	Message string
}

// flashes carries toasts across a redirect in a signed cookie.
type flashes struct {
	store *sessions.CookieStore
}

func newFlashes(secret string) *flashes {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &flashes{store: store}
}

func (f *flashes) add(ctx echo.Context, kind, msg string) {
	sess, err := f.store.Get(ctx.Request(), flashCookie)
	if err != nil && sess == nil {
		ctx.Logger().Warn(err)
		return
	}
	sess.AddFlash(msg, kind)
	if err = sess.Save(ctx.Request(), ctx.Response()); err != nil {
		ctx.Logger().Warn(err)
	}
}

// pop returns & forgets the pending toasts.
func (f *flashes) pop(ctx echo.Context) []toast {
	sess, err := f.store.Get(ctx.Request(), flashCookie)
	if err != nil && sess == nil {
		return nil
	}

	var toasts []toast
	for _, kind := range []string{toastError, toastInfo} {
		for _, msg := range sess.Flashes(kind) {
			if s, ok := msg.(string); ok {
				toasts = append(toasts, toast{Kind: kind, Message: s})
			}
		}
	}
	if len(toasts) > 0 {
		if err = sess.Save(ctx.Request(), ctx.Response()); err != nil {
			ctx.Logger().Warn(err)
		}
	}
	return toasts
}
