package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

const testSecret = "auth-gate-test-secret"

var testProfile = utils.TokenProfile{
	UniqueID: "u-1",
	Name:     "Cafe Owner",
	Email:    "owner@example.com",
	Mobile:   "5550001111",
}

// stubSessions satisfies SessionLookup without a database. calls counts
// lookups so tests can assert statelessness of the access path.
type stubSessions struct {
	sess  model.Session
	err   error
	calls int
}

func (s *stubSessions) FindActiveByRefreshToken(ctx context.Context, token string) (model.Session, error) {
	s.calls++
	return s.sess, s.err
}

func runGate(t *testing.T, sessions SessionLookup, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/invoice", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	gate := AuthGate(AuthGateConfig{JWTSecret: testSecret, AccessTTL: 15 * time.Minute}, sessions)
	handler := gate(func(c echo.Context) error {
		p, ok := CurrentUser(c)
		require.True(t, ok, "handler must see the authenticated profile")
		return c.JSON(http.StatusOK, echo.Map{"user": p.UniqueID})
	})
	require.NoError(t, handler(c))
	return rec
}

func cookie(name, value string) *http.Cookie {
	return &http.Cookie{Name: name, Value: value}
}

func setCookieNames(rec *httptest.ResponseRecorder) []string {
	var names []string
	for _, sc := range rec.Result().Cookies() {
		names = append(names, sc.Name)
	}
	return names
}

func TestAuthGate_NoTokens(t *testing.T) {
	sessions := &stubSessions{}
	rec := runGate(t, sessions)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	// Both cookies cleared defensively.
	assert.ElementsMatch(t, []string{utils.CookieAccessToken, utils.CookieRefreshToken}, setCookieNames(rec))
	assert.Zero(t, sessions.calls)
}

func TestAuthGate_ValidAccessTokenIsStateless(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, testProfile, 15*time.Minute)
	require.NoError(t, err)

	sessions := &stubSessions{}
	rec := runGate(t, sessions, cookie(utils.CookieAccessToken, access.Value))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testProfile.UniqueID)
	assert.Zero(t, sessions.calls, "valid access token must not hit storage")
}

func TestAuthGate_TamperedAccessToken(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, testProfile, 15*time.Minute)
	require.NoError(t, err)
	// Flip the last byte of the signature segment.
	last := access.Value[len(access.Value)-1]
	flip := byte('A')
	if last == flip {
		flip = 'B'
	}
	tampered := access.Value[:len(access.Value)-1] + string(flip)

	sessions := &stubSessions{}
	rec := runGate(t, sessions, cookie(utils.CookieAccessToken, tampered))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid access token")
	assert.Zero(t, sessions.calls)
}

func TestAuthGate_ExpiredAccessNoRefresh(t *testing.T) {
	expired, err := utils.NewAccessToken(testSecret, testProfile, -time.Minute)
	require.NoError(t, err)

	rec := runGate(t, &stubSessions{}, cookie(utils.CookieAccessToken, expired.Value))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no refresh token provided")
}

func TestAuthGate_RefreshSelfHeal(t *testing.T) {
	expired, err := utils.NewAccessToken(testSecret, testProfile, -time.Minute)
	require.NoError(t, err)
	refresh, err := utils.NewRefreshToken(testSecret, testProfile, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := &stubSessions{sess: model.Session{RefreshToken: refresh.Value, UserID: testProfile.UniqueID}}
	rec := runGate(t, sessions,
		cookie(utils.CookieAccessToken, expired.Value),
		cookie(utils.CookieRefreshToken, refresh.Value))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.calls)

	// A fresh access-token cookie is set; the refresh cookie stays untouched.
	var minted string
	for _, sc := range rec.Result().Cookies() {
		if sc.Name == utils.CookieAccessToken {
			minted = sc.Value
		}
		assert.NotEqual(t, utils.CookieRefreshToken, sc.Name)
	}
	require.NotEmpty(t, minted)
	assert.NotEqual(t, expired.Value, minted)

	profile, err := utils.ParseToken(testSecret, minted, utils.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, testProfile, profile)
}

func TestAuthGate_RefreshOnlyRenews(t *testing.T) {
	refresh, err := utils.NewRefreshToken(testSecret, testProfile, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := &stubSessions{sess: model.Session{RefreshToken: refresh.Value}}
	rec := runGate(t, sessions, cookie(utils.CookieRefreshToken, refresh.Value))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.calls)
}

func TestAuthGate_RevokedRefreshRejected(t *testing.T) {
	refresh, err := utils.NewRefreshToken(testSecret, testProfile, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := &stubSessions{err: repository.ErrNotFound}
	rec := runGate(t, sessions, cookie(utils.CookieRefreshToken, refresh.Value))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired refresh token")
	assert.ElementsMatch(t, []string{utils.CookieAccessToken, utils.CookieRefreshToken}, setCookieNames(rec))
}

func TestAuthGate_AccessTokenPassedAsRefreshRejected(t *testing.T) {
	expired, err := utils.NewAccessToken(testSecret, testProfile, -time.Minute)
	require.NoError(t, err)
	// An access token in the refresh cookie must fail the type check.
	access, err := utils.NewAccessToken(testSecret, testProfile, 15*time.Minute)
	require.NoError(t, err)

	sessions := &stubSessions{}
	rec := runGate(t, sessions,
		cookie(utils.CookieAccessToken, expired.Value),
		cookie(utils.CookieRefreshToken, access.Value))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, sessions.calls)
}

func TestAuthGate_ClearedCookiesExpireImmediately(t *testing.T) {
	rec := runGate(t, &stubSessions{})
	for _, sc := range rec.Result().Cookies() {
		assert.True(t, sc.MaxAge < 0, "cleared cookie %s must carry a negative max-age", sc.Name)
		assert.True(t, strings.HasPrefix(sc.Path, "/"))
	}
}
