package http

import (
	"net/http"
	"strings"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/pkg/clientip"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleLogin POST /auth/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.validator.ValidateRequiredFields(
		map[string]string{"username": req.Username, "password": req.Password},
		map[string]string{"username": "username", "password": "password"},
	); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStringLength(req.Username, "username", 1, 100); err != nil {
		h.handleError(w, r, err)
		return
	}

	ip := clientip.FromContext(r.Context())
	if ip == "" {
		ip = clientip.FromRequest(r)
	}

	pair, err := h.auth.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleRefresh POST /auth/refresh
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		h.handleError(w, r, domain.ErrValidation.WithDetails("refresh_token is required"))
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleLogout POST /auth/logout.
// Принимает и просроченный access токен: сессию нужно закрыть в любом случае.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if accessToken == "" {
		h.handleError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req refreshRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.handleError(w, r, err)
			return
		}
	}

	if err := h.auth.Logout(r.Context(), accessToken, req.RefreshToken); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleOwnSessions GET /auth/sessions
func (h *Handler) handleOwnSessions(w http.ResponseWriter, r *http.Request) {
	identity, _ := service.IdentityFromContext(r.Context())

	sessions, err := h.sessions.ListActive(r.Context(), identity.Username)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
