package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/config"
	"github.com/juliovp13-web/SafeZone/internal/middleware"
	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/repository"
	"github.com/juliovp13-web/SafeZone/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	State         string   `json:"state"`
	City          string   `json:"city"`
	Neighborhood  string   `json:"neighborhood"`
	Street        string   `json:"street"`
	Number        string   `json:"number"`
	CountryCode   string   `json:"country_code"`
	ResidentNames []string `json:"resident_names"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register: create the user and return a token immediately. The client
// routes straight to the payment screen afterwards, so a fresh account
// is always unpaid until it creates its subscription.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" ||
		req.Street == "" || req.Number == "" || req.Neighborhood == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, password and address are required"})
	}
	names := model.FilterResidentNames(req.ResidentNames)
	if len(names) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one resident name is required"})
	}
	// Older app builds only ask for street-level address.
	if req.State == "" {
		req.State = "SP"
	}
	if req.City == "" {
		req.City = "São Paulo"
	}
	if req.CountryCode == "" {
		req.CountryCode = "BR"
	}

	// The configured admin address registers with full privileges; this
	// is how the first dashboard account is bootstrapped.
	isAdmin := h.Cfg.AdminEmail != "" && req.Email == strings.ToLower(h.Cfg.AdminEmail)

	u := model.User{
		Name:          req.Name,
		Email:         req.Email,
		State:         req.State,
		City:          req.City,
		Neighborhood:  req.Neighborhood,
		Street:        req.Street,
		Number:        req.Number,
		CountryCode:   req.CountryCode,
		ResidentNames: names,
		IsAdmin:       isAdmin,
		IsVIP:         isAdmin, // permanent VIP for the bootstrap admin
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, u, hash)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email já cadastrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u.ID = id

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, u.IsAdmin, h.Cfg.AccessTTLHrs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:        toUserPayload(u),
		AccessToken: access.Token,
		TokenType:   "bearer",
	})
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Email ou senha incorretos"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Email ou senha incorretos"})
	}

	// Backfill: if the admin email was configured after this account
	// registered, promote it on login.
	if h.Cfg.AdminEmail != "" && req.Email == strings.ToLower(h.Cfg.AdminEmail) && (!u.IsAdmin || !u.IsVIP) {
		if err := h.Users.SetRoles(ctx, req.Email, true, true, nil); err == nil {
			u.IsAdmin = true
			u.IsVIP = true
			u.VIPExpiresAt = nil
		}
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, h.Cfg.AccessTTLHrs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:        toUserPayload(u),
		AccessToken: access.Token,
		TokenType:   "bearer",
	})
}

// Profile returns the authenticated user. Clients call this on startup
// to validate a persisted token; a 401 here clears it.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserPayload(u))
}
