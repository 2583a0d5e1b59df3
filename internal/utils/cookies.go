package utils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Cookie names used by the auth flow. All three are HttpOnly, SameSite=Strict,
// path "/", and Secure outside of dev.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieOTPSession   = "otp_session_id"
)

// SetAuthCookie writes a hardened cookie on the response.
func SetAuthCookie(c echo.Context, name, value string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires a single cookie immediately.
func ClearCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookies expires both token cookies. The gate calls this on every
// terminal unauthorized outcome so stale tokens never linger client-side.
func ClearAuthCookies(c echo.Context, secure bool) {
	ClearCookie(c, CookieAccessToken, secure)
	ClearCookie(c, CookieRefreshToken, secure)
}
