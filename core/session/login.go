package session

import (
	"context"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
)

// Well-known routes
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// GenericLoginFailure is shown when the backend gave no usable message.
const GenericLoginFailure = "Unable to sign in. Please try again."

var errInvalidGrant = errors.New("backend returned an unusable session")

type (
	// Credentials is the login form.
	Credentials struct {
		Email    string `json:"email" form:"email" validate:"required,emailshape"`
		Password string `json:"password" form:"password" validate:"required,min=6"`
	}

	// Grant is what the authentication endpoint returns on success.
	Grant struct {
		Account account.Account
		Profile account.Profile
		Token   string
	}

	// Authenticator exchanges Credentials for a Grant. It is implemented by the backend client.
	Authenticator interface {
		Authenticate(ctx context.Context, creds Credentials) (Grant, error)
	}

	// Navigator moves the user to another route.
	Navigator interface {
		// Location returns the route currently displayed.
		Location() string
		Navigate(path string)
	}

	// UserMessager is implemented by errors carrying a message meant for the user.
	UserMessager interface {
		UserMessage() string
	}
)

// Validate cleans the credentials and checks them. Field errors are returned as a *core.ValidationError.
func (c *Credentials) Validate(validate *validator.Validate, translator ut.Translator) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.TranslateValidation(validate.Struct(c), translator)
}

type (
	LoginDeps struct {
		Store         *Store
		Record        *Record
		Authenticator Authenticator
		Navigator     Navigator
		Validate      *validator.Validate
		Translator    ut.Translator
		Logger        core.Logger
	}

	// LoginService is the only producer of fresh sessions.
	LoginService struct {
		LoginDeps
	}
)

func NewLoginService(deps LoginDeps) *LoginService {
	return &LoginService{LoginDeps: deps}
}

// Login validates the credentials, authenticates against the backend, persists the Record, fills the Store
// and finally navigates to the dashboard of the account role, in that order. It returns the dashboard path.
//
// Invalid input yields a *core.ValidationError with Fields and never reaches the backend.
// A rejected login yields a *core.ValidationError without Fields carrying the backend message;
// the Store and Record are left untouched.
func (svc *LoginService) Login(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(svc.Validate, svc.Translator); err != nil {
		return "", err
	}

	svc.Store.SetLoading(true)
	grant, err := svc.Authenticator.Authenticate(ctx, creds)
	if err == nil {
		err = checkGrant(&grant)
	}
	if err == nil {
		err = svc.Record.Save(ctx, grant.Account, grant.Profile, grant.Token)
	}
	if err != nil {
		svc.Store.SetLoading(false)
		return "", svc.submissionError(creds, err)
	}

	svc.Store.SetCredentials(grant.Account, grant.Profile, grant.Token)
	path := account.DashboardPath(grant.Account.Role)
	svc.Navigator.Navigate(path)
	return path, nil
}

func (svc *LoginService) submissionError(creds Credentials, err error) error {
	msg := GenericLoginFailure
	var um UserMessager
	if errors.As(err, &um) && strings.TrimSpace(um.UserMessage()) != "" {
		msg = um.UserMessage()
		svc.Logger.Info("login rejected", map[string]interface{}{"email": creds.Email, "reason": msg})
	} else {
		svc.Logger.Error("login failed", errors.Wrap(err, "logging in"), map[string]interface{}{"email": creds.Email})
	}
	return core.NewValidationError(errors.New(msg))
}

func checkGrant(grant *Grant) error {
	if strings.TrimSpace(grant.Token) == "" {
		return errors.Wrap(errInvalidGrant, "missing token")
	}
	if err := grant.Account.Validate(); err != nil {
		return errors.Wrap(errInvalidGrant, err.Error())
	}
	if grant.Profile.Role == "" {
		grant.Profile.Role = grant.Account.Role
	} else if grant.Profile.Role != grant.Account.Role {
		return errors.Wrap(errInvalidGrant, "profile role does not match account role")
	}
	return nil
}
