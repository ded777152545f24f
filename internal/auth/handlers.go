package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/store"
)

// Handler exposes the admin session endpoints.
type Handler struct {
	Svc          *Service
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func toAdminView(a store.AdminUser) adminView {
	return adminView{ID: a.ID, Username: a.Username}
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	token, admin, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		return
	}
	http.SetCookie(w, h.sessionCookie(token, h.SessionTTL))
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"user": toAdminView(admin),
	}})
}

// Logout drops the session server-side and expires the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.CookieName); err == nil {
		_ = h.Svc.Logout(r.Context(), cookie.Value)
	}
	http.SetCookie(w, h.sessionCookie("", -time.Hour))
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"loggedOut": true}})
}

// Session reports whether the request carries a live session. It never 401s;
// the storefront admin shell polls it to decide which UI to render.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.CookieName)
	if err != nil || cookie.Value == "" {
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"authenticated": false}})
		return
	}
	admin, err := h.Svc.Resolve(r.Context(), cookie.Value)
	if err != nil {
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"authenticated": false}})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"authenticated": true,
		"user":          toAdminView(admin),
	}})
}

// Setup creates the admin account on first run.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	admin, err := h.Svc.Setup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, ErrAlreadySetup):
			common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "setup failed", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toAdminView(admin)})
}

func (h *Handler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
