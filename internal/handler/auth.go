package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*model.AuthPayload, error)
	Login(ctx context.Context, req service.LoginRequest) (*model.AuthPayload, error)
	Me(ctx context.Context, userID int64) (*model.UserDto, error)
}

// AuthHandler serves registration, login and the current-user endpoint.
// Successful register and login responses carry the token in the body; the
// same token is also set as an HttpOnly cookie for browser clients.
type AuthHandler struct {
	auth         AuthService
	secureCookie bool
	logger       zerolog.Logger
}

func NewAuthHandler(svc AuthService, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, secureCookie: secureCookie, logger: logger}
}

// Routes mounts /auth/*. limit throttles the credential endpoints and
// protect guards /auth/me.
func (h *AuthHandler) Routes(r chi.Router, limit, protect func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.With(limit).Post("/register", h.HandleRegister)
		r.With(limit).Post("/login", h.HandleLogin)
		r.With(protect).Get("/me", h.HandleMe)
	})
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	payload, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setTokenCookie(w, payload.Token)
	writeJSON(w, h.logger, http.StatusCreated, payload)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	payload, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setTokenCookie(w, payload.Token)
	writeJSON(w, h.logger, http.StatusOK, payload)
}

// HandleMe must run behind auth.RequireAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
