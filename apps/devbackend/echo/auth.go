package devapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/account"
	"github.com/trezcool/mahudhurio/core/session"
)

const tokenContextKey = "accountToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string       `json:"email,omitempty"`
	Role  account.Role `json:"role,omitempty"`
}

// Tokens issues and checks the JWTs of the dev backend.
type Tokens struct {
	jwtConfig middleware.JWTConfig
	issuer    string
	delta     time.Duration
}

func NewTokens(secretKey, issuer string, delta time.Duration) *Tokens {
	return &Tokens{
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(secretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
		issuer: issuer,
		delta:  delta,
	}
}

// Middleware rejects requests without a valid, unexpired token.
func (tk *Tokens) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(tk.jwtConfig)
}

func (tk *Tokens) ClaimsFor(acc account.Account) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    tk.issuer,
			Subject:   acc.ID,
			Audience:  "console",
			ExpiresAt: now.Add(tk.delta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: acc.Email,
		Role:  acc.Role,
	}
}

// Generate signs the claims.
func (tk *Tokens) Generate(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(tk.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(tk.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// roleMiddleware only lets the given roles through.
func roleMiddleware(roles account.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if roles.Has(claims.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

type authHandler struct {
	accounts *Accounts
	tokens   *Tokens
}

type accountResponse struct {
	Account account.Account        `json:"account"`
	Profile map[string]interface{} `json:"profile"`
}

type loginResponse struct {
	Token string `json:"token"`
	accountResponse
}

func (h authHandler) login(ctx echo.Context) error {
	var creds session.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding credentials")
	}
	if creds.Email == "" || creds.Password == "" {
		return errAuthenticationFailed
	}

	rec, err := h.accounts.GetByEmail(creds.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "finding account by email")
	}
	if err = rec.CheckPassword(creds.Password); err != nil {
		return errAuthenticationFailed
	}
	if !rec.IsActive {
		return errAccountDeactivated
	}

	token, err := h.tokens.Generate(h.tokens.ClaimsFor(rec.Account))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{
		Token:           token,
		accountResponse: accountResponse{Account: rec.Account, Profile: rec.Profile},
	})
}

func (h authHandler) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rec, err := h.accounts.GetByID(claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding account by ID")
	}
	if !rec.IsActive {
		return errAccountDeactivated
	}
	return ctx.JSON(http.StatusOK, accountResponse{Account: rec.Account, Profile: rec.Profile})
}
