package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/config"
	"github.com/iliyamo/venue-calendar/internal/middleware"
	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/repository"
	"github.com/iliyamo/venue-calendar/internal/utils"
	"github.com/iliyamo/venue-calendar/internal/validation"
)

// UserStore is implemented by *repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is implemented by *repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"` // STAFF | CLIENT, default CLIENT
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a STAFF or CLIENT account and returns tokens
// immediately. ADMIN accounts are never self-registered.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validation.Message(err))
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = model.RoleClient
	case model.RoleStaff, model.RoleClient:
	case model.RoleAdmin:
		return errorJSON(c, http.StatusForbidden, "admin accounts cannot be self-registered")
	default:
		return errorJSON(c, http.StatusBadRequest, "role must be STAFF or CLIENT")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return errorJSON(c, http.StatusConflict, "email already exists")
		}
		c.Logger().Errorf("register %s: %v", req.Email, err)
		return errorJSON(c, http.StatusInternalServerError, "create user failed")
	}
	return h.issue(ctx, c, http.StatusCreated, userPart{ID: uid, Email: req.Email, Role: role})
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if msg := bindValid(c, &req); msg != "" {
		return errorJSON(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		}
		c.Logger().Errorf("login lookup: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return errorJSON(c, http.StatusForbidden, "account disabled")
	}
	return h.issue(ctx, c, http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}

// issue creates and stores a fresh token pair for u.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u userPart) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		c.Logger().Errorf("store refresh user=%d: %v", u.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// activeUser resolves a refresh token to its active owner. It returns nil
// and writes a 401 when the token or the user is not usable.
func (h *AuthHandler) activeUser(ctx context.Context, c echo.Context, hash string) (*model.User, error) {
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.Logger().Errorf("validate refresh: %v", err)
		}
		return nil, errorJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorJSON(c, http.StatusUnauthorized, "invalid refresh")
		}
		return nil, errorJSON(c, http.StatusInternalServerError, "load user failed")
	}
	if !u.IsActive {
		return nil, errorJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	return &u, nil
}

func bindRefresh(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(req.RefreshToken)
	return raw, raw != ""
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := bindRefresh(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.activeUser(ctx, c, hash)
	if u == nil {
		return err
	}
	revoked, err := h.Tokens.RevokeByHash(ctx, hash)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "revoke refresh failed")
	}
	if !revoked {
		// rotated concurrently by another request
		return errorJSON(c, http.StatusUnauthorized, "invalid refresh")
	}
	return h.issue(ctx, c, http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}

// RefreshAccess returns a new access token without rotating the refresh
// token. The API client calls it when a request comes back 401.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	raw, ok := bindRefresh(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "refresh_token required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.activeUser(ctx, c, utils.HashRefreshRaw(raw))
	if u == nil {
		return err
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes sessions. With a refresh_token in the body only that
// session ends; with just a valid bearer access token every session of the
// user is revoked. It does not sit behind JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid = claims.UserID
		}
	}
	refreshToken, _ := bindRefresh(c)

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return errorJSON(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if _, err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return errorJSON(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	case uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return errorJSON(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return errorJSON(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
}

// Me reports the identity behind the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	role := middleware.Role(c)
	resp := echo.Map{"user_id": uid, "role": role, "can_manage_calendar": model.CanManageCalendar(role)}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if u, err := h.Users.GetByID(ctx, uid); err == nil {
		resp["email"] = u.Email
	}
	return c.JSON(http.StatusOK, resp)
}
