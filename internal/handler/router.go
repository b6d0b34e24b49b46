package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medash/medash-go/internal/middleware"
	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/service"
)

// RouterDeps carries everything the HTTP API is built from.
type RouterDeps struct {
	Sessions   *service.SessionService
	Dashboards *service.DashboardService
	Registry   *panel.Registry
	Logger     *slog.Logger
	JWTSecret  string
	ShareURL   func(token string) string
}

// NewRouter wires the API routes. ctx bounds the background work of the
// rate limiters.
func NewRouter(ctx context.Context, deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Sessions, deps.Logger)
	dashHandler := NewDashboardHandler(deps.Dashboards, deps.Logger, deps.ShareURL)
	currentHandler := NewCurrentHandler(deps.Dashboards, deps.Registry, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, 5, 10))
		r.Post("/api/v1/auth/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, 20, 40))
		r.Get("/api/v1/shared/{token}", dashHandler.HandleShared)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(deps.JWTSecret, deps.Sessions))

		r.Post("/api/v1/auth/logout", authHandler.HandleLogout)
		r.Get("/api/v1/auth/me", authHandler.HandleMe)
		r.Get("/api/v1/theme", authHandler.HandleGetTheme)
		r.Put("/api/v1/theme", authHandler.HandleSetTheme)
		r.Get("/api/v1/palette", authHandler.HandleGetPalette)
		r.Patch("/api/v1/palette", authHandler.HandleUpdatePalette)

		r.Get("/api/v1/dashboards", dashHandler.HandleList)
		r.Post("/api/v1/dashboards", dashHandler.HandleCreate)
		r.Get("/api/v1/dashboards/{id}", dashHandler.HandleGet)
		r.Put("/api/v1/dashboards/{id}", dashHandler.HandleUpdate)
		r.Delete("/api/v1/dashboards/{id}", dashHandler.HandleDelete)
		r.Post("/api/v1/dashboards/{id}/share", dashHandler.HandleShare)
		r.Delete("/api/v1/dashboards/{id}/share", dashHandler.HandleUnshare)
		r.Post("/api/v1/save", dashHandler.HandleSave)
		r.Post("/api/v1/load", dashHandler.HandleLoad)

		r.Get("/api/v1/current", currentHandler.HandleGet)
		r.Put("/api/v1/current", currentHandler.HandleSelect)
		r.Get("/api/v1/current/edit-mode", currentHandler.HandleEditMode)
		r.Put("/api/v1/current/layout", currentHandler.HandleLayout)
		r.Post("/api/v1/current/panels", currentHandler.HandleAddPanel)
		r.Patch("/api/v1/current/panels/{panel_id}", currentHandler.HandleUpdatePanel)
		r.Delete("/api/v1/current/panels/{panel_id}", currentHandler.HandleRemovePanel)
		r.Put("/api/v1/current/panels/{panel_id}/config", currentHandler.HandleSetPanelConfig)
		r.Get("/api/v1/current/panels/{panel_id}/view", currentHandler.HandleViewPanel)
	})

	return r
}
