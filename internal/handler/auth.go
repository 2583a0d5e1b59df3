package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/config"
	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/notify"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// Credential lifetimes fixed by the auth contract; token/session lifetimes
// come from config.
const (
	otpTTL            = 5 * time.Minute
	resetTTL          = 15 * time.Minute
	accessCookieAge   = 24 * time.Hour
	handlerDBTimeout  = 5 * time.Second
	minPasswordLength = 8
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	OTPs     *repository.OTPRepo
	Notifier notify.Sender
	NewID    utils.IDGenerator
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo, o *repository.OTPRepo, n notify.Sender, ids utils.IDGenerator) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, OTPs: o, Notifier: n, NewID: ids}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}
type checkUserReq struct {
	LoginID string `json:"loginId"`
}
type verifyPasswordReq struct {
	LoginID   string `json:"loginId"`
	LoginType string `json:"loginType"`
	Password  string `json:"password"`
}
type sendOTPReq struct {
	LoginID   string `json:"loginId"`
	LoginType string `json:"loginType"`
}
type verifyOTPReq struct {
	OTP string `json:"OTP"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type userData struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

func toUserData(u model.User) userData {
	return userData{UniqueID: u.UniqueID, Name: u.Name, Email: u.Email, Mobile: u.Mobile}
}

func validLoginType(t string) bool {
	return t == model.LoginTypeEmail || t == model.LoginTypeMobile
}

// deviceContext extracts the user-agent and client IP, defaulting each to the
// "Unknown" sentinel when absent.
func deviceContext(c echo.Context) model.DeviceContext {
	ua := c.Request().UserAgent()
	if ua == "" {
		ua = model.DeviceUnknown
	}
	ip := c.RealIP()
	if ip == "" {
		ip = model.DeviceUnknown
	}
	return model.DeviceContext{UserAgent: ua, IP: ip}
}

// createSession issues an access/refresh token pair for a verified user,
// persists the session row (revoking all prior sessions for this device) and
// sets both auth cookies. Returns the new session id.
func (h *AuthHandler) createSession(ctx context.Context, c echo.Context, u model.User, method, loginID string) (string, error) {
	profile := utils.TokenProfile{UniqueID: u.UniqueID, Name: u.Name, Email: u.Email, Mobile: u.Mobile}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, profile, h.Cfg.AccessTTL())
	if err != nil {
		return "", err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, profile, h.Cfg.RefreshTTL())
	if err != nil {
		return "", err
	}

	dev := deviceContext(c)
	s := model.Session{
		UserID:       u.UniqueID,
		UserAgent:    dev.UserAgent,
		LoginMethod:  method,
		LoginID:      loginID,
		IP:           dev.IP,
		RefreshToken: refresh.Value,
		ExpiresAt:    time.Now().UTC().Add(h.Cfg.RefreshTTL()),
	}
	if err := h.Sessions.Create(ctx, &s); err != nil {
		return "", err
	}

	secure := h.Cfg.SecureCookies()
	utils.SetAuthCookie(c, utils.CookieAccessToken, access.Value, accessCookieAge, secure)
	utils.SetAuthCookie(c, utils.CookieRefreshToken, refresh.Value, h.Cfg.RefreshTTL(), secure)
	return s.SessionID, nil
}

// Register creates a café account. Sessions are not issued here; the client
// proceeds through the normal login flow.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Mobile = strings.TrimSpace(req.Mobile)
	if req.Name == "" || req.Email == "" || req.Mobile == "" || len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "name, email, mobile and a password of at least 8 characters are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	u := model.User{Name: req.Name, Email: req.Email, Mobile: req.Mobile}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "USER_EXISTS", "message": "email or mobile already registered"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": "USER_CREATED", "userData": toUserData(u)})
}

// CheckUser reports whether a login identifier (email or mobile) is known.
func (h *AuthHandler) CheckUser(c echo.Context) error {
	var req checkUserReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.LoginID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "loginId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, req.LoginID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "USER_NOT_FOUND", "message": "no account for this login id"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "USER_EXISTS", "userData": toUserData(u)})
}

// VerifyPassword authenticates by password and opens a session.
func (h *AuthHandler) VerifyPassword(c echo.Context) error {
	var req verifyPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "invalid body"})
	}
	if strings.TrimSpace(req.LoginID) == "" || req.Password == "" || !validLoginType(req.LoginType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "loginId, loginType and password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, req.LoginID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "USER_NOT_FOUND", "message": "no account for this login id"})
		}
		return serverError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_CREDENTIALS", "message": "incorrect password"})
	}

	if _, err := h.createSession(ctx, c, u, model.LoginMethodPassword, req.LoginID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "SESSION_NOT_CREATED", "message": "could not create session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "PASSWORD_VERIFIED", "userData": toUserData(u)})
}

// SendOTP issues a one-time code for a pending login and correlates it with
// the otp_session_id cookie.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "invalid body"})
	}
	if strings.TrimSpace(req.LoginID) == "" || !validLoginType(req.LoginType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "loginId and loginType required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if _, err := h.Users.GetByLoginID(ctx, req.LoginID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "USER_NOT_FOUND", "message": "no account for this login id"})
		}
		return serverError(c, err)
	}

	code, err := utils.RandomOTP()
	if err != nil {
		return serverError(c, err)
	}
	o := model.OTP{
		SessionID: h.NewID(),
		Code:      code,
		LoginType: req.LoginType,
		LoginID:   req.LoginID,
		ExpiresAt: time.Now().UTC().Add(otpTTL),
	}
	if err := h.OTPs.Store(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "OTP_STORE_FAILED", "message": "could not store otp"})
	}
	if err := h.Notifier.SendOTP(ctx, req.LoginType, req.LoginID, code); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "OTP_SEND_FAILED", "message": "could not send otp"})
	}

	utils.SetAuthCookie(c, utils.CookieOTPSession, o.SessionID, otpTTL, h.Cfg.SecureCookies())
	return c.JSON(http.StatusOK, echo.Map{"code": "OTP_SENT", "message": "otp sent"})
}

// VerifyOTP completes an OTP login: the code must match an unexpired row for
// the pending session id carried by the otp_session_id cookie.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	sessionCookie, err := c.Cookie(utils.CookieOTPSession)
	if err != nil || sessionCookie.Value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "otp session missing"})
	}
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.OTP) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "OTP required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	o, err := h.OTPs.Verify(ctx, sessionCookie.Value, strings.TrimSpace(req.OTP))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_OTP", "message": "incorrect or expired otp"})
		}
		return serverError(c, err)
	}

	u, err := h.Users.GetByLoginID(ctx, o.LoginID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "USER_NOT_FOUND", "message": "no account for this login id"})
		}
		return serverError(c, err)
	}

	sessionID, err := h.createSession(ctx, c, u, model.LoginMethodOTP, o.LoginID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "SESSION_NOT_CREATED", "message": "could not create session"})
	}
	utils.ClearCookie(c, utils.CookieOTPSession, h.Cfg.SecureCookies())
	return c.JSON(http.StatusOK, echo.Map{"code": "OTP_VERIFIED", "sessionId": sessionID, "userData": toUserData(u)})
}

// ForgotPassword issues a one-time reset token and emails it to the account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "valid email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "USER_NOT_FOUND", "message": "no account for this email"})
		}
		return serverError(c, err)
	}

	t := model.PasswordResetToken{
		UserID:    u.UniqueID,
		Token:     h.NewID(),
		ExpiresAt: time.Now().UTC().Add(resetTTL),
	}
	if err := h.OTPs.StoreResetToken(ctx, &t); err != nil {
		return serverError(c, err)
	}
	if err := h.Notifier.SendResetLink(ctx, u.Email, t.Token); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "RESET_EMAIL_SENT", "message": "reset email sent"})
}

// ResetPassword consumes a reset token. The token row is deleted only after a
// successful reset; a failed attempt leaves it in place until expiry.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "invalid body"})
	}
	if strings.TrimSpace(req.Token) == "" || len(req.NewPassword) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_REQUEST", "message": "token and a password of at least 8 characters are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t, err := h.OTPs.FindResetToken(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_TOKEN", "message": "invalid or expired reset token"})
		}
		return serverError(c, err)
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_TOKEN", "message": "invalid or expired reset token"})
	}

	if err := h.Users.UpdatePassword(ctx, t.UserID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return serverError(c, err)
	}
	if err := h.OTPs.DeleteResetToken(ctx, t.Token); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "PASSWORD_RESET", "message": "password updated"})
}

// CheckResetToken validates a reset token without consuming it, so the UI can
// gate the reset form.
func (h *AuthHandler) CheckResetToken(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_TOKEN", "message": "invalid or expired reset token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t, err := h.OTPs.FindResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_TOKEN", "message": "invalid or expired reset token"})
		}
		return serverError(c, err)
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "INVALID_TOKEN", "message": "invalid or expired reset token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "VALID_TOKEN", "message": "token valid"})
}

// SessionActive reports whether the presented refresh token still matches a
// live session row for this user and device.
func (h *AuthHandler) SessionActive(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": "not authenticated"})
	}
	refreshCookie, err := c.Cookie(utils.CookieRefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": "no refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	dev := deviceContext(c)
	active, err := h.Sessions.IsActive(ctx, profile.UniqueID, dev.UserAgent, refreshCookie.Value)
	if err != nil {
		return serverError(c, err)
	}
	if !active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": "session revoked or expired"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "AUTHORIZED", "userData": userData(profile)})
}

// Logout revokes every session of this user on this device and clears the
// auth cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"code": "UNAUTHORIZED", "message": "not authenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	dev := deviceContext(c)
	if err := h.Sessions.RevokeAll(ctx, profile.UniqueID, dev.UserAgent); err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "LOGOUT_FAILED", "message": "no active session to log out"})
		}
		return serverError(c, err)
	}
	utils.ClearAuthCookies(c, h.Cfg.SecureCookies())
	return c.JSON(http.StatusOK, echo.Map{"code": "LOGOUT_SUCCESS", "message": "logged out"})
}
