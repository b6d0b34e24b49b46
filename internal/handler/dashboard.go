package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/service"
)

// DashboardHandler handles HTTP requests for the dashboard collection,
// sharing and persistence.
type DashboardHandler struct {
	service  *service.DashboardService
	log      *slog.Logger
	shareURL func(token string) string
}

// NewDashboardHandler creates a new DashboardHandler. shareURL turns a share
// token into the link handed out to viewers.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger, shareURL func(token string) string) *DashboardHandler {
	return &DashboardHandler{service: svc, log: logger, shareURL: shareURL}
}

// HandleList handles GET /api/v1/dashboards requests.
func (h *DashboardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Dashboards())
}

// HandleCreate handles POST /api/v1/dashboards requests. The collection is
// saved right away; with open set the new dashboard becomes current and the
// grid is flagged to open in edit mode.
func (h *DashboardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDashboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("name is required"))
		return
	}

	d := h.service.CreateDashboard(req.Name, req.Description)
	if err := h.service.SaveDashboards(r.Context()); err != nil {
		h.log.Error("saving dashboards", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	if req.Open {
		h.service.SetCurrentDashboardDirect(d)
		if err := h.service.MarkOpenInEditMode(r.Context()); err != nil {
			h.log.Error("flagging edit mode", "dashboard_id", d.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	}

	writeJSON(w, http.StatusCreated, d)
}

// HandleGet handles GET /api/v1/dashboards/{id} requests.
func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := h.service.Dashboard(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// HandleUpdate handles PUT /api/v1/dashboards/{id} requests.
func (h *DashboardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var d model.Dashboard
	if !decodeJSON(w, r, &d) {
		return
	}
	d.ID = chi.URLParam(r, "id")

	if !h.service.UpdateDashboard(d) {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	updated, _ := h.service.Dashboard(d.ID)
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/v1/dashboards/{id} requests.
func (h *DashboardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.service.DeleteDashboard(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShare handles POST /api/v1/dashboards/{id}/share requests.
func (h *DashboardHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	token, ok := h.service.ShareDashboard(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	writeJSON(w, http.StatusOK, model.ShareResponse{Token: token, URL: h.shareURL(token)})
}

// HandleUnshare handles DELETE /api/v1/dashboards/{id}/share requests.
func (h *DashboardHandler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	if !h.service.UnshareDashboard(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse("dashboard not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShared handles GET /api/v1/shared/{token} requests. It needs no
// session.
func (h *DashboardHandler) HandleShared(w http.ResponseWriter, r *http.Request) {
	d, ok := h.service.ResolveShared(chi.URLParam(r, "token"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse("shared dashboard not found"))
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// HandleSave handles POST /api/v1/save requests.
func (h *DashboardHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SaveDashboards(r.Context()); err != nil {
		h.log.Error("saving dashboards", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleLoad handles POST /api/v1/load requests and returns the reloaded
// collection.
func (h *DashboardHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LoadDashboards(r.Context()); err != nil {
		h.log.Error("loading dashboards", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, h.service.Dashboards())
}
