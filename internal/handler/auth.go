package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/config"
	"github.com/iliyamo/game-social-network/internal/repository"
	"github.com/iliyamo/game-social-network/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints: register,
// login, refresh-token rotation, logout and the current-user routes.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Denylist Denylist       // optional; nil disables jti denylisting
	Events   EventPublisher // optional; nil disables event publishing
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, d Denylist, ev EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Denylist: d, Events: ev}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issuePair mints an access token plus the first refresh token of a
// fresh chain and persists the refresh record. Rotation goes through
// TokenStore.RotateRefresh instead, which parents the successor inside
// the consuming transaction.
func (h *AuthHandler) issuePair(ctx context.Context, userID uint64, chainID string) (tokenPart, tokenPart, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, chainID, nil, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	return tokenPart{Token: access.Token, Expires: access.Exp},
		tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil
}

// Register creates the user and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "detail": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	access, refresh, err := h.issuePair(ctx, uid, utils.NewChainID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:    userPart{ID: uid, Username: req.Username, Email: req.Email},
		Access:  access,
		Refresh: refresh,
	})
}

// Login verifies credentials and starts a fresh token chain. Bad
// credentials answer a uniform 401 regardless of which check failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
	}

	access, refresh, err := h.issuePair(ctx, u.ID, utils.NewChainID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// Refresh rotates a refresh token: the presented token is marked used
// and its successor is inserted in the same store transaction, then the
// successor pair is returned. Every failure mode answers the same 401;
// the reason is only logged. Reuse of a rotated-out token has already
// revoked the whole chain by the time the store reports it.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	successor, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	consumed, err := h.Tokens.RotateRefresh(ctx, hash, utils.HashRefreshRaw(successor.Raw), successor.Exp)
	if err != nil {
		if err == repository.ErrRefreshReused {
			log.Printf("auth: refresh reuse detected user_id=%d chain=%s; chain revoked", consumed.UserID, consumed.ChainID)
			if h.Events != nil {
				h.Events.TokenReuseDetected(ctx, consumed.UserID, consumed.ChainID)
			}
		} else {
			log.Printf("auth: refresh rejected: %v", err)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	u, err := h.Users.GetByID(ctx, consumed.UserID)
	if err != nil || !u.IsActive {
		// The successor is already stored; kill the sessions of an
		// account that can no longer refresh.
		_ = h.Tokens.RevokeAllForUser(ctx, consumed.UserID)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: successor.Raw, Expires: successor.Exp},
	})
}

// Logout revokes a session. With a refresh token in the body only that
// token is revoked. With a valid bearer and no body token, every
// refresh token of the user is revoked and the presented access token
// is denylisted for the rest of its lifetime.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(refreshToken)); err != nil {
			if err == repository.ErrRefreshNotFound {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No body token: fall back to the bearer for a global logout.
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide refresh_token or Authorization header"})
	}
	uid, jti, err := utils.VerifyAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	h.denylistAccess(ctx, jti)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// DeleteMe removes the account and everything it owns in one
// transaction, then kills all sessions.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Users.Delete(ctx, uid); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if jti, ok := c.Get("token_id").(string); ok {
		h.denylistAccess(ctx, jti)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) denylistAccess(ctx context.Context, jti string) {
	if h.Denylist == nil || jti == "" {
		return
	}
	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	if err := h.Denylist.Revoke(ctx, jti, ttl); err != nil {
		log.Printf("auth: denylist revoke failed: %v", err)
	}
}
