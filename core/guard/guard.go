package guard

import (
	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/session"
)

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectUnauthorized
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RedirectDashboard:
		return "redirect_dashboard"
	}
	return "unknown"
}

// Outcome is a Decision plus the location to redirect to, if any.
type Outcome struct {
	Decision Decision
	Location string
}

func (o Outcome) Redirects() bool { return o.Decision != Render }

// PublicOnly guards pages meant for visitors (eg. login): an authenticated session is sent to its dashboard.
func PublicOnly(sess session.Session) Outcome {
	if sess.Authenticated {
		if path := account.DashboardPath(sess.Role()); path != "" {
			return Outcome{Decision: RedirectDashboard, Location: path}
		}
	}
	return Outcome{Decision: Render}
}

// Authorize guards authenticated pages declaring the allowed roles.
func Authorize(sess session.Session, allowed account.RoleSet) Outcome {
	if !sess.Authenticated {
		return Outcome{Decision: RedirectLogin, Location: session.LoginPath}
	}
	if !allowed.Has(sess.Role()) {
		return Outcome{Decision: RedirectUnauthorized, Location: session.UnauthorizedPath}
	}
	return Outcome{Decision: Render}
}
