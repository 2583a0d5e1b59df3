package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// ContextUserKey is where the gate stores the authenticated utils.TokenProfile.
const ContextUserKey = "user"

// accessCookieMaxAge is the lifetime of the accessToken cookie. The token
// inside expires sooner; the longer cookie lets the gate see the expired
// token and renew it in place.
const accessCookieMaxAge = 24 * time.Hour

// SessionLookup is the slice of session storage the gate depends on.
type SessionLookup interface {
	FindActiveByRefreshToken(ctx context.Context, refreshToken string) (model.Session, error)
}

// AuthGateConfig carries the signing secret and cookie policy for the gate.
type AuthGateConfig struct {
	JWTSecret string
	AccessTTL time.Duration
	Secure    bool
}

// AuthGate validates the accessToken/refreshToken cookies on every request.
//
// A valid access token authorizes the request on signature alone, with no
// storage lookup. An expired access token (or a missing one, when a refresh
// cookie is present) triggers single-request renewal: the refresh token is
// verified, matched against a non-revoked stored session, and a fresh access
// token is set as a cookie before the handler runs. The refresh token itself
// is never rotated here. Both cookies are cleared on every terminal
// unauthorized outcome.
func AuthGate(cfg AuthGateConfig, sessions SessionLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accessCookie, accessErr := c.Cookie(utils.CookieAccessToken)
			refreshCookie, refreshErr := c.Cookie(utils.CookieRefreshToken)

			if accessErr != nil && refreshErr != nil {
				return unauthorized(c, cfg.Secure, "No authentication tokens provided")
			}

			if accessErr == nil {
				profile, err := utils.ParseToken(cfg.JWTSecret, accessCookie.Value, utils.TokenTypeAccess)
				switch {
				case err == nil:
					c.Set(ContextUserKey, profile)
					return next(c)
				case errors.Is(err, utils.ErrTokenExpired):
					// fall through to the renewal path
				default:
					return unauthorized(c, cfg.Secure, "Invalid access token")
				}
				if refreshErr != nil {
					return unauthorized(c, cfg.Secure, "Access token expired, no refresh token provided")
				}
			}

			profile, err := utils.ParseToken(cfg.JWTSecret, refreshCookie.Value, utils.TokenTypeRefresh)
			if err != nil {
				return unauthorized(c, cfg.Secure, "Invalid or expired refresh token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if _, err := sessions.FindActiveByRefreshToken(ctx, refreshCookie.Value); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c, cfg.Secure, "Invalid or expired refresh token")
				}
				return c.JSON(http.StatusInternalServerError,
					echo.Map{"code": "INTERNAL_SERVER_ERROR", "message": err.Error()})
			}

			access, err := utils.NewAccessToken(cfg.JWTSecret, profile, cfg.AccessTTL)
			if err != nil {
				return c.JSON(http.StatusInternalServerError,
					echo.Map{"code": "INTERNAL_SERVER_ERROR", "message": err.Error()})
			}
			utils.SetAuthCookie(c, utils.CookieAccessToken, access.Value, accessCookieMaxAge, cfg.Secure)

			c.Set(ContextUserKey, profile)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, secure bool, message string) error {
	utils.ClearAuthCookies(c, secure)
	return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": message})
}

// CurrentUser returns the profile stored by AuthGate, or false when the
// request is unauthenticated.
func CurrentUser(c echo.Context) (utils.TokenProfile, bool) {
	p, ok := c.Get(ContextUserKey).(utils.TokenProfile)
	return p, ok
}
