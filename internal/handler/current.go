package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/service"
)

// CurrentHandler handles HTTP requests against the current dashboard and
// its panels.
type CurrentHandler struct {
	service  *service.DashboardService
	registry *panel.Registry
	log      *slog.Logger
}

// NewCurrentHandler creates a new CurrentHandler.
func NewCurrentHandler(svc *service.DashboardService, registry *panel.Registry, logger *slog.Logger) *CurrentHandler {
	return &CurrentHandler{service: svc, registry: registry, log: logger}
}

// HandleGet handles GET /api/v1/current requests.
func (h *CurrentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := h.service.CurrentDashboard()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("no current dashboard"))
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// HandleSelect handles PUT /api/v1/current requests.
func (h *CurrentHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req model.SelectDashboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.service.SetCurrentDashboard(req.ID) {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	d, _ := h.service.CurrentDashboard()
	writeJSON(w, http.StatusOK, d)
}

// HandleAddPanel handles POST /api/v1/current/panels requests.
func (h *CurrentHandler) HandleAddPanel(w http.ResponseWriter, r *http.Request) {
	var req model.AddPanelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, ok := h.service.CurrentDashboard(); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("no current dashboard"))
		return
	}

	p := req.Panel(h.service.NextFreeRow())
	if req.Config != nil {
		upd, err := h.registry.DecodeChange(p, req.Config)
		if err != nil {
			h.writePanelError(w, err)
			return
		}
		p.Config = upd.Config
	} else if !p.Type.Valid() {
		h.writePanelError(w, panel.ErrUnknownType)
		return
	}

	if !h.service.AddPanel(p) {
		writeJSON(w, http.StatusConflict, errorResponse("panel id already in use"))
		return
	}

	d, _ := h.service.CurrentDashboard()
	writeJSON(w, http.StatusCreated, d.Panels[len(d.Panels)-1])
}

// HandleUpdatePanel handles PATCH /api/v1/current/panels/{panel_id} requests.
func (h *CurrentHandler) HandleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	var req model.PanelUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, errorResponse("nothing to update"))
		return
	}

	p, ok := h.currentPanel(chi.URLParam(r, "panel_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("panel not found"))
		return
	}

	if req.Config != nil && !isJSONNull(req.Config) {
		upd, err := h.registry.DecodeChange(p, req.Config)
		if err != nil {
			h.writePanelError(w, err)
			return
		}
		req.Config = upd.Config
	}

	h.applyUpdate(w, p.ID, req)
}

// HandleSetPanelConfig handles PUT /api/v1/current/panels/{panel_id}/config
// requests. The config is validated against the panel's type and replaces
// the stored one. A null config clears it.
func (h *CurrentHandler) HandleSetPanelConfig(w http.ResponseWriter, r *http.Request) {
	var req model.ConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, ok := h.currentPanel(chi.URLParam(r, "panel_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("panel not found"))
		return
	}

	if isJSONNull(req.Config) {
		h.applyUpdate(w, p.ID, model.PanelUpdate{Config: json.RawMessage("null")})
		return
	}

	upd, err := h.registry.DecodeChange(p, req.Config)
	if err != nil {
		h.writePanelError(w, err)
		return
	}

	h.applyUpdate(w, p.ID, upd)
}

// HandleRemovePanel handles DELETE /api/v1/current/panels/{panel_id} requests.
func (h *CurrentHandler) HandleRemovePanel(w http.ResponseWriter, r *http.Request) {
	if !h.service.RemovePanel(chi.URLParam(r, "panel_id")) {
		writeJSON(w, http.StatusNotFound, errorResponse("panel not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleViewPanel handles GET /api/v1/current/panels/{panel_id}/view requests.
func (h *CurrentHandler) HandleViewPanel(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPanel(chi.URLParam(r, "panel_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("panel not found"))
		return
	}

	editing, _ := strconv.ParseBool(r.URL.Query().Get("edit"))
	view, err := h.registry.Render(p, editing)
	if err != nil {
		h.writePanelError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleLayout handles PUT /api/v1/current/layout requests.
func (h *CurrentHandler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	var req model.LayoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, ok := h.service.CurrentDashboard(); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("no current dashboard"))
		return
	}

	writeJSON(w, http.StatusOK, model.LayoutResponse{Applied: h.service.ApplyLayout(req.Items)})
}

// HandleEditMode handles GET /api/v1/current/edit-mode requests. The flag is
// cleared by reading it.
func (h *CurrentHandler) HandleEditMode(w http.ResponseWriter, r *http.Request) {
	open, err := h.service.ConsumeOpenInEditMode(r.Context())
	if err != nil {
		h.log.Error("reading edit mode flag", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.EditModeResponse{OpenInEditMode: open})
}

func (h *CurrentHandler) currentPanel(panelID string) (model.Panel, bool) {
	d, ok := h.service.CurrentDashboard()
	if !ok {
		return model.Panel{}, false
	}
	i := d.PanelIndex(panelID)
	if i < 0 {
		return model.Panel{}, false
	}
	return d.Panels[i], true
}

func (h *CurrentHandler) applyUpdate(w http.ResponseWriter, panelID string, upd model.PanelUpdate) {
	if !h.service.UpdatePanel(panelID, upd) {
		writeJSON(w, http.StatusNotFound, errorResponse("panel not found"))
		return
	}

	p, _ := h.currentPanel(panelID)
	writeJSON(w, http.StatusOK, p)
}

func (h *CurrentHandler) writePanelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, panel.ErrUnknownType):
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown panel type"))
	case errors.Is(err, panel.ErrInvalidConfig), errors.Is(err, panel.ErrConfigMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error("panel config", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
