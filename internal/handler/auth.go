package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/middleware"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// AccountAPI is the account service as seen by the HTTP layer.
type AccountAPI interface {
    Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
    Login(ctx context.Context, email, password string) (*service.AuthResult, error)
    Logout(ctx context.Context, sessionID string)
    CurrentUser(ctx context.Context, id *model.Identity) (*model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Accounts     AccountAPI
    CookieSecure bool
    Log          *zap.Logger
}

func NewAuthHandler(accounts AccountAPI, cookieSecure bool, log *zap.Logger) *AuthHandler {
    return &AuthHandler{Accounts: accounts, CookieSecure: cookieSecure, Log: log}
}

// ----- DTOs -----

type registerReq struct {
    Email      string  `json:"email" validate:"required,email"`
    Password   string  `json:"password" validate:"required,max=72"`
    Nom        string  `json:"nom" validate:"required"`
    Prenom     string  `json:"prenom" validate:"required"`
    Sexe       *string `json:"sexe"`
    Ville      *string `json:"ville"`
    Habitation *string `json:"habitation"`
}

type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type authResp struct {
    Success   bool      `json:"success"`
    User      userDTO   `json:"user"`
    Token     string    `json:"token"`
    ExpiresAt time.Time `json:"expires_at"`
}

// Register: create the account and open a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Accounts.Register(ctx, service.RegisterInput{
        Email: req.Email, Password: req.Password, Nom: req.Nom, Prenom: req.Prenom,
        Sexe: req.Sexe, Ville: req.Ville, Habitation: req.Habitation,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    h.setCookie(c, res.Session.Token, res.Session.Exp)
    return c.JSON(http.StatusCreated, authResp{Success: true, User: toUserDTO(res.User), Token: res.Session.Token, ExpiresAt: res.Session.Exp})
}

// Login: verify credentials and open a new session.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Accounts.Login(ctx, req.Email, req.Password)
    if err != nil {
        return fail(c, h.Log, err)
    }
    h.setCookie(c, res.Session.Token, res.Session.Exp)
    return c.JSON(http.StatusOK, authResp{Success: true, User: toUserDTO(res.User), Token: res.Session.Token, ExpiresAt: res.Session.Exp})
}

// Logout revokes the caller's session if there is one and always clears
// the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
    if id := middleware.IdentityFrom(c); id != nil {
        ctx, cancel := requestContext(c)
        defer cancel()
        h.Accounts.Logout(ctx, id.SessionID)
    }
    h.clearCookie(c)
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    u, err := h.Accounts.CurrentUser(ctx, id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "user": toUserDTO(*u)})
}

func (h *AuthHandler) setCookie(c echo.Context, token string, exp time.Time) {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    token,
        Path:     "/",
        Expires:  exp,
        HttpOnly: true,
        Secure:   h.CookieSecure,
        SameSite: http.SameSiteLaxMode,
    })
}

func (h *AuthHandler) clearCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   h.CookieSecure,
        SameSite: http.SameSiteLaxMode,
    })
}
