package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/repository"
	"github.com/medash/medash-go/internal/service"
)

const testSecret = "test-secret"

type testAPI struct {
	t          *testing.T
	handler    http.Handler
	dashboards *service.DashboardService
	token      string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	dashboards := service.NewDashboardService(store, logger, model.DefaultGridColumns)
	sessions := service.NewSessionService(store, dashboards, logger, testSecret, time.Hour)

	h := NewRouter(ctx, RouterDeps{
		Sessions:   sessions,
		Dashboards: dashboards,
		Registry:   panel.NewRegistry(),
		Logger:     logger,
		JWTSecret:  testSecret,
		ShareURL:   func(token string) string { return "http://localhost:8080?share=" + token },
	})
	return &testAPI{t: t, handler: h, dashboards: dashboards}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login() model.AuthResponse {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Email: "jane@example.com"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.AuthResponse
	decode(a.t, rec, &resp)
	a.token = resp.Token
	return resp
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"valid", model.LoginRequest{Email: "jane@example.com"}, http.StatusOK},
		{"empty email", model.LoginRequest{}, http.StatusBadRequest},
		{"malformed body", "{", http.StatusBadRequest},
		{"body too large", `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			rec := api.do(http.MethodPost, "/api/v1/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/dashboards", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.login()
	rec = api.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user model.User
	decode(t, rec, &user)
	assert.Equal(t, "jane@example.com", user.Email)

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/dashboards", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the token dies with the session")
}

func TestThemeAndPalette(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPut, "/api/v1/theme", model.ThemeRequest{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/theme", model.ThemeRequest{Theme: model.ThemeDark})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/theme", nil)
	var theme model.ThemeRequest
	decode(t, rec, &theme)
	assert.Equal(t, model.ThemeDark, theme.Theme)

	rec = api.do(http.MethodPatch, "/api/v1/palette", model.PaletteUpdate{Accent: "#FF0000"})
	require.Equal(t, http.StatusOK, rec.Code)
	var palette model.ColorPalette
	decode(t, rec, &palette)
	assert.Equal(t, "#FF0000", palette.Accent)
	assert.Equal(t, model.DefaultColorPalette().Primary, palette.Primary)
}

func TestDashboardCRUD(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodGet, "/api/v1/dashboards", nil)
	var list []model.Dashboard
	decode(t, rec, &list)
	assert.Len(t, list, 2, "first login seeds the samples")

	rec = api.do(http.MethodPost, "/api/v1/dashboards", model.CreateDashboardRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/dashboards", model.CreateDashboardRequest{Name: "Trip Planning"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Dashboard
	decode(t, rec, &created)
	assert.Equal(t, "Trip Planning", created.Name)

	created.Description = "summer"
	rec = api.do(http.MethodPut, "/api/v1/dashboards/"+created.ID, created)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Dashboard
	decode(t, rec, &updated)
	assert.Equal(t, "summer", updated.Description)

	rec = api.do(http.MethodGet, "/api/v1/dashboards/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodDelete, "/api/v1/dashboards/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = api.do(method, "/api/v1/dashboards/"+created.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
	}
	rec = api.do(http.MethodPut, "/api/v1/dashboards/"+created.ID, created)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDashboard_Open(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/v1/dashboards", model.CreateDashboardRequest{Name: "Fresh", Open: true})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Dashboard
	decode(t, rec, &created)

	rec = api.do(http.MethodGet, "/api/v1/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current model.Dashboard
	decode(t, rec, &current)
	assert.Equal(t, created.ID, current.ID)

	var edit model.EditModeResponse
	decode(t, api.do(http.MethodGet, "/api/v1/current/edit-mode", nil), &edit)
	assert.True(t, edit.OpenInEditMode)
	decode(t, api.do(http.MethodGet, "/api/v1/current/edit-mode", nil), &edit)
	assert.False(t, edit.OpenInEditMode)
}

func TestShareFlow(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/v1/dashboards/sample-1/share", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var share model.ShareResponse
	decode(t, rec, &share)
	assert.True(t, strings.HasPrefix(share.Token, "share_"))
	assert.Equal(t, "http://localhost:8080?share="+share.Token, share.URL)

	api.token = ""
	rec = api.do(http.MethodGet, "/api/v1/shared/"+share.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "shared dashboards need no session")
	var shared model.Dashboard
	decode(t, rec, &shared)
	assert.Equal(t, "sample-1", shared.ID)

	api.login()
	rec = api.do(http.MethodDelete, "/api/v1/dashboards/sample-1/share", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/shared/"+share.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/dashboards/missing/share", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentPanels(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/v1/current/panels", model.AddPanelRequest{Type: model.PanelNotes})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no current dashboard yet")

	rec = api.do(http.MethodPut, "/api/v1/current", model.SelectDashboardRequest{ID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodPut, "/api/v1/current", model.SelectDashboardRequest{ID: "sample-2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/current/panels", model.AddPanelRequest{
		ID:     "p-notes",
		Title:  "Notes",
		Type:   model.PanelNotes,
		Config: json.RawMessage(`{"content":"**hi**"}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added model.Panel
	decode(t, rec, &added)
	assert.Equal(t, 4, added.Y, "placed below the weather panel")
	assert.Equal(t, model.DefaultPanelWidth, added.W)

	rec = api.do(http.MethodPost, "/api/v1/current/panels", model.AddPanelRequest{ID: "p-notes", Type: model.PanelNotes})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(http.MethodPost, "/api/v1/current/panels", model.AddPanelRequest{Type: "clock"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/api/v1/current/panels", model.AddPanelRequest{Type: model.PanelWeather, Config: json.RawMessage(`"sunny"`)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPatch, "/api/v1/current/panels/p-notes", `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &added)
	assert.Equal(t, "Renamed", added.Title)
	assert.JSONEq(t, `{"content":"**hi**"}`, string(added.Config))

	rec = api.do(http.MethodPatch, "/api/v1/current/panels/p-notes", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPatch, "/api/v1/current/panels/ghost", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/current/panels/p-notes/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view panel.ViewModel
	decode(t, rec, &view)
	assert.Contains(t, view.HTML, "<strong>hi</strong>")
	assert.Empty(t, view.Fields)

	rec = api.do(http.MethodGet, "/api/v1/current/panels/p-notes/view?edit=true", nil)
	decode(t, rec, &view)
	assert.True(t, view.Editing)
	assert.NotEmpty(t, view.Fields)

	rec = api.do(http.MethodDelete, "/api/v1/current/panels/p-notes", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, "/api/v1/current/panels/p-notes", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPanelConfig(t *testing.T) {
	api := newTestAPI(t)
	api.login()
	require.True(t, api.dashboards.SetCurrentDashboard("sample-2"))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantConfig string
	}{
		{"valid", `{"config":{"location":"Paris","units":"imperial","extra":1}}`, http.StatusOK, `{"location":"Paris","units":"imperial"}`},
		{"wrong shape", `{"config":[1,2]}`, http.StatusBadRequest, ""},
		{"null clears", `{"config":null}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPut, "/api/v1/current/panels/panel-5/config", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var p model.Panel
			decode(t, rec, &p)
			if tt.wantConfig == "" {
				assert.Nil(t, p.Config)
				return
			}
			assert.JSONEq(t, tt.wantConfig, string(p.Config))
		})
	}
}

func TestLayout(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	req := model.LayoutRequest{Items: []model.LayoutItem{
		{I: "panel-1", X: 6, Y: 0, W: 6, H: 3},
		{I: "panel-2", X: 0, Y: 0, W: 6, H: 3},
	}}

	rec := api.do(http.MethodPut, "/api/v1/current/layout", req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.True(t, api.dashboards.SetCurrentDashboard("sample-1"))
	rec = api.do(http.MethodPut, "/api/v1/current/layout", req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.LayoutResponse
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Applied)
}

func TestSaveLoad(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	rec := api.do(http.MethodPost, "/api/v1/dashboards", model.CreateDashboardRequest{Name: "Kept"})
	require.Equal(t, http.StatusCreated, rec.Code)
	api.dashboards.CreateDashboard("Unsaved", "")

	rec = api.do(http.MethodPost, "/api/v1/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Dashboard
	decode(t, rec, &list)
	require.Len(t, list, 3, "unsaved dashboards are dropped by a reload")

	api.dashboards.CreateDashboard("Saved", "")
	rec = api.do(http.MethodPost, "/api/v1/save", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	decode(t, api.do(http.MethodPost, "/api/v1/load", nil), &list)
	assert.Len(t, list, 4)
}
