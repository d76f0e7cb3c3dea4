package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/config"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/utils"
)

// UserStore loads admin accounts. *repository.UserRepo implements it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists refresh token hashes. *repository.TokenRepo
// implements it.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash string) (uint64, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for the session endpoints. Access
// tokens are short-lived JWTs; refresh tokens are random strings of which
// only a hash is stored.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
	Log    *zap.Logger
}

// NewAuthHandler builds the handler. cfg supplies the signing secret and
// token lifetimes.
func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
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

const authTimeout = 5 * time.Second

// Login handles POST /v1/auth/login. The email is matched case
// insensitively. Unknown emails, wrong passwords and deactivated accounts
// all answer the same 401 so that callers cannot learn which accounts
// exist. On success a new access and refresh token pair is returned.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return writeError(c, h.Log, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Log.Info("login rejected", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh. The posted refresh token is
// consumed, so each one works exactly once, and a new pair is issued. A
// revoked, expired or unknown token, or one whose user was deactivated,
// answers 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	userID, err := h.Tokens.Consume(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return writeError(c, h.Log, err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return writeError(c, h.Log, err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the bearer's user when only an access token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)
	uid, hasBearer := middleware.OptionalUserID(c, h.Cfg.JWTSecret)

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	switch {
	case refreshToken != "":
		if _, err := h.Tokens.Consume(ctx, utils.HashRefreshRaw(refreshToken)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return writeError(c, h.Log, err)
		}
	case hasBearer:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return writeError(c, h.Log, err)
		}
	default:
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/me and returns the account behind the bearer token.
// The role comes from the token so that the response matches what the
// middleware authorised.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: middleware.CurrentRole(c)})
}
