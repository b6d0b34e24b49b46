package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/service"
)

// AuthHandler handles HTTP requests for the session and its preferences.
type AuthHandler struct {
	service *service.SessionService
	log     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, log: logger}
}

// HandleLogin handles POST /api/v1/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleLogout handles POST /api/v1/auth/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/v1/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser()
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGetTheme handles GET /api/v1/theme requests.
func (h *AuthHandler) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ThemeRequest{Theme: h.service.Theme()})
}

// HandleSetTheme handles PUT /api/v1/theme requests.
func (h *AuthHandler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req model.ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SetTheme(r.Context(), req.Theme); err != nil {
		if errors.Is(err, service.ErrInvalidTheme) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error("saving theme", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.ThemeRequest{Theme: h.service.Theme()})
}

// HandleGetPalette handles GET /api/v1/palette requests.
func (h *AuthHandler) HandleGetPalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Palette())
}

// HandleUpdatePalette handles PATCH /api/v1/palette requests.
func (h *AuthHandler) HandleUpdatePalette(w http.ResponseWriter, r *http.Request) {
	var req model.PaletteUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, h.service.UpdatePalette(req))
}
