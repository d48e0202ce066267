package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/auth"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/geocoder89/rfphub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

type AuthUsers interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SessionStore interface {
	Save(ctx context.Context, row postgres.RefreshTokenRow) error
	Rotate(ctx context.Context, oldID, presentedHash string, next postgres.RefreshTokenRow, now time.Time) error
	RevokeByID(ctx context.Context, id string) error
}

type AuthHandler struct {
	users        AuthUsers
	jwt          *auth.Manager
	sessions     SessionStore
	secureCookie bool
	now          func() time.Time
}

func NewAuthHandler(users AuthUsers, jwtManager *auth.Manager, sessions SessionStore, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		jwt:          jwtManager,
		sessions:     sessions,
		secureCookie: secureCookie,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Role        user.Role `json:"role"`
}

// POST /auth/register
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleBuyer
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := h.now()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.users.Create(cctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequestCode(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.issue(ctx, cctx, u, http.StatusCreated)
}

// POST /auth/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			slog.Default().ErrorContext(ctx.Request.Context(), "auth.lookup_failed", "err", err)
		}
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}
	if !u.IsActive {
		RespondForbidden(ctx, "Account is disabled")
		return
	}

	h.issue(ctx, cctx, u, http.StatusOK)
}

// POST /auth/refresh rotates the refresh cookie.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		RespondUnauthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	// role or activation may have changed since the token was issued
	u, err := h.users.GetByID(cctx, claims.UserID)
	if err != nil || !u.IsActive {
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	next := postgres.RefreshTokenRow{
		ID:        newJTI,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: h.now(),
	}

	err = h.sessions.Rotate(cctx, claims.ID, h.jwt.HashRefreshToken(raw), next, h.now())
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrRefreshTokenExpired):
			RespondUnauthorized(ctx, "expired_refresh", "Refresh token expired.")
		case errors.Is(err, postgres.ErrRefreshTokenNotFound),
			errors.Is(err, postgres.ErrRefreshTokenRevoked),
			errors.Is(err, postgres.ErrRefreshTokenMismatch):
			h.clearRefreshCookie(ctx)
			RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		default:
			RespondInternal(ctx, "Could not refresh session")
		}
		return
	}

	access, err := h.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setRefreshCookie(ctx, newRaw, newExpiresAt)
	ctx.JSON(http.StatusOK, tokenResponse(access, u))
}

// POST /auth/logout always clears the cookie.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	defer func() {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
	}()

	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.sessions.RevokeByID(cctx, claims.ID); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "auth.logout_revoke_failed", "err", err)
	}
}

func (h *AuthHandler) issue(ctx *gin.Context, cctx context.Context, u user.User, status int) {
	access, err := h.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	raw, jti, expiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	err = h.sessions.Save(cctx, postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: h.now(),
	})
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setRefreshCookie(ctx, raw, expiresAt)
	ctx.JSON(status, tokenResponse(access, u))
}

func tokenResponse(access string, u user.User) TokenResponse {
	return TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		UserID:      u.ID,
		Email:       u.Email,
		Role:        u.Role,
	}
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, raw, maxAge, refreshCookiePath, "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.secureCookie, true)
}
