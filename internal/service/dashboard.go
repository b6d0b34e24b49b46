package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medash/medash-go/internal/crypto"
	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/repository"
)

const (
	dashboardIDPrefix = "dash-"
	panelIDPrefix     = "panel-"
	editModeFlag      = "true"
)

// DashboardService owns the dashboard collection and the current-dashboard
// selection.
//
// The collection is the single source of truth. The current dashboard is a key
// into it, so panel mutations land in the collection directly and a later
// SaveDashboards always persists what CurrentDashboard returns. The only
// exception is a dashboard selected through SetCurrentDashboardDirect that is
// not part of the collection: it is held as a detached copy until it is
// replaced or cleared.
//
// Nothing is persisted until SaveDashboards is called.
type DashboardService struct {
	mu       sync.Mutex
	repo     repository.Store
	log      *slog.Logger
	now      func() time.Time
	newToken func() (string, error)
	columns  int

	dashboards []model.Dashboard
	currentID  string
	detached   *model.Dashboard
}

// NewDashboardService creates a DashboardService with an empty collection.
// Call LoadDashboards to populate it from storage.
func NewDashboardService(repo repository.Store, logger *slog.Logger, columns int) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if columns < 1 {
		columns = model.DefaultGridColumns
	}
	return &DashboardService{
		repo:     repo,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: crypto.GenerateShareToken,
		columns:  columns,
	}
}

// Columns returns the grid width panels are normalized against.
func (s *DashboardService) Columns() int {
	return s.columns
}

// Dashboards returns a copy of the collection in insertion order.
func (s *DashboardService) Dashboards() []model.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Dashboard, len(s.dashboards))
	for i, d := range s.dashboards {
		out[i] = d.Clone()
	}
	return out
}

// Dashboard returns a copy of the dashboard with the given id.
func (s *DashboardService) Dashboard(id string) (model.Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Dashboard{}, false
	}
	return s.dashboards[i].Clone(), true
}

// CreateDashboard appends a new, empty, private dashboard and returns it. The
// new dashboard is neither selected nor persisted.
func (s *DashboardService) CreateDashboard(name, description string) model.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	d := model.Dashboard{
		ID:          s.newDashboardID(),
		Name:        name,
		Description: description,
		Panels:      []model.Panel{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.dashboards = append(s.dashboards, d)

	s.log.Debug("dashboard created", "dashboard_id", d.ID)
	return d.Clone()
}

// UpdateDashboard replaces the stored dashboard that has d's id with d and a
// refreshed UpdatedAt. Unknown ids are ignored. The share invariant, panel
// geometry and panel types are enforced on the way in; new panels of an
// unknown type are dropped.
func (s *DashboardService) UpdateDashboard(d model.Dashboard) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(d.ID)
	if i < 0 {
		return false
	}

	next := d.Clone()
	next.Panels = s.normalizePanels(next.ID, next.Panels, s.dashboards[i].Panels)
	if err := s.enforceShareInvariant(&next); err != nil {
		s.log.Error("generating share token", "dashboard_id", d.ID, "error", err)
		return false
	}
	next.UpdatedAt = s.now()
	s.dashboards[i] = next

	s.log.Debug("dashboard updated", "dashboard_id", d.ID)
	return true
}

// DeleteDashboard removes the dashboard and its panels. If it was the current
// dashboard the selection is cleared.
func (s *DashboardService) DeleteDashboard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == id {
		s.currentID = ""
	}
	if s.detached != nil && s.detached.ID == id {
		s.detached = nil
	}

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.dashboards = append(s.dashboards[:i], s.dashboards[i+1:]...)

	s.log.Debug("dashboard deleted", "dashboard_id", id)
	return true
}

// SetCurrentDashboard selects the dashboard with the given id, or clears the
// selection when there is none.
func (s *DashboardService) SetCurrentDashboard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detached = nil
	if s.indexOf(id) < 0 {
		s.currentID = ""
		return false
	}
	s.currentID = id
	return true
}

// SetCurrentDashboardDirect selects d without a lookup. If d is in the
// collection the selection points at the stored entry; otherwise a detached
// copy of d becomes current.
func (s *DashboardService) SetCurrentDashboardDirect(d model.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(d.ID) >= 0 {
		s.currentID = d.ID
		s.detached = nil
		return
	}

	c := d.Clone()
	s.currentID = ""
	s.detached = &c
}

// ClearCurrentDashboard drops the selection.
func (s *DashboardService) ClearCurrentDashboard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentID = ""
	s.detached = nil
}

// CurrentDashboard returns a copy of the current dashboard.
func (s *DashboardService) CurrentDashboard() (model.Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.current()
	if d == nil {
		return model.Dashboard{}, false
	}
	return d.Clone(), true
}

// AddPanel appends p to the current dashboard. It does nothing without a
// current dashboard, for an unknown panel type, for a config that is not
// JSON or when the id is taken. An empty id is filled in.
func (s *DashboardService) AddPanel(p model.Panel) bool {
	return s.mutateCurrent(func(d *model.Dashboard) bool {
		if !p.Type.Valid() {
			return false
		}
		if p.ID == "" {
			p.ID = panelIDPrefix + uuid.NewString()
		}
		if d.PanelIndex(p.ID) >= 0 {
			return false
		}
		cfg, err := canonicalConfig(p.Config)
		if err != nil {
			return false
		}
		p.Config = cfg
		p.Normalize(s.columns)
		d.Panels = append(d.Panels, p)
		return true
	})
}

// UpdatePanel merges u into the panel of the current dashboard with the
// given id. Fields absent from u are kept; a config in u replaces the stored
// one wholesale. A config that is not JSON leaves the panel unchanged.
func (s *DashboardService) UpdatePanel(panelID string, u model.PanelUpdate) bool {
	return s.mutateCurrent(func(d *model.Dashboard) bool {
		i := d.PanelIndex(panelID)
		if i < 0 {
			return false
		}
		p := u.Apply(d.Panels[i])
		cfg, err := canonicalConfig(p.Config)
		if err != nil {
			return false
		}
		p.Config = cfg
		p.Normalize(s.columns)
		d.Panels[i] = p
		return true
	})
}

// RemovePanel deletes the panel with the given id from the current dashboard.
func (s *DashboardService) RemovePanel(panelID string) bool {
	return s.mutateCurrent(func(d *model.Dashboard) bool {
		i := d.PanelIndex(panelID)
		if i < 0 {
			return false
		}
		d.Panels = append(d.Panels[:i], d.Panels[i+1:]...)
		return true
	})
}

// ApplyLayout moves and resizes every listed panel of the current dashboard
// in one step and returns how many panels it touched. Unknown ids are skipped.
func (s *DashboardService) ApplyLayout(items []model.LayoutItem) int {
	applied := 0
	s.mutateCurrent(func(d *model.Dashboard) bool {
		for _, item := range items {
			i := d.PanelIndex(item.I)
			if i < 0 {
				continue
			}
			p := d.Panels[i]
			p.X, p.Y, p.W, p.H = item.X, item.Y, item.W, item.H
			p.Normalize(s.columns)
			d.Panels[i] = p
			applied++
		}
		return applied > 0
	})
	return applied
}

// NextFreeRow returns the first grid row below every panel of the current
// dashboard, or 0 without one.
func (s *DashboardService) NextFreeRow() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.current()
	if d == nil {
		return 0
	}
	row := 0
	for _, p := range d.Panels {
		row = max(row, p.Y+p.H)
	}
	return row
}

// ShareDashboard makes the dashboard public under a fresh token and returns
// the token. Sharing an already public dashboard rotates its token.
func (s *DashboardService) ShareDashboard(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return "", false
	}

	token, err := s.newToken()
	if err != nil {
		s.log.Error("generating share token", "dashboard_id", id, "error", err)
		return "", false
	}

	d := &s.dashboards[i]
	d.IsPublic = true
	d.ShareToken = token
	d.UpdatedAt = s.now()

	s.log.Info("dashboard shared", "dashboard_id", id)
	return token, true
}

// UnshareDashboard makes the dashboard private and drops its token.
func (s *DashboardService) UnshareDashboard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	d := &s.dashboards[i]
	d.IsPublic = false
	d.ShareToken = ""
	d.UpdatedAt = s.now()

	s.log.Info("dashboard unshared", "dashboard_id", id)
	return true
}

// ResolveShared returns the public dashboard whose share token is token.
// Private dashboards never resolve.
func (s *DashboardService) ResolveShared(token string) (model.Dashboard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.dashboards {
		if d.IsPublic && crypto.TokensEqual(d.ShareToken, token) {
			return d.Clone(), true
		}
	}
	return model.Dashboard{}, false
}

// LoadDashboards replaces the collection with the stored one. A missing or
// unreadable collection is replaced by the default welcome dashboard; only
// storage failures are returned.
func (s *DashboardService) LoadDashboards(ctx context.Context) error {
	raw, err := s.repo.Get(ctx, repository.KeyDashboards)
	if err != nil && !errors.Is(err, repository.ErrKeyNotFound) {
		return fmt.Errorf("loading dashboards: %w", err)
	}

	var loaded []model.Dashboard
	switch {
	case err != nil:
		s.log.Info("no stored dashboards, seeding default dashboard")
		loaded = defaultDashboards(s.now())
	default:
		loaded, err = decodeDashboards(raw)
		if err != nil {
			s.log.Warn("stored dashboards unreadable, seeding default dashboard", "error", err)
			loaded = defaultDashboards(s.now())
		}
	}

	loaded = s.normalizeLoaded(loaded)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboards = loaded
	if s.currentID != "" && s.indexOf(s.currentID) < 0 {
		s.currentID = ""
	}

	s.log.Debug("dashboards loaded", "count", len(loaded))
	return nil
}

// SaveDashboards writes the whole collection to storage, replacing whatever
// was stored before.
func (s *DashboardService) SaveDashboards(ctx context.Context) error {
	s.mu.Lock()
	raw, err := json.Marshal(s.dashboards)
	count := len(s.dashboards)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding dashboards: %w", err)
	}

	if err := s.repo.Put(ctx, repository.KeyDashboards, raw); err != nil {
		return fmt.Errorf("saving dashboards: %w", err)
	}

	s.log.Debug("dashboards saved", "count", count)
	return nil
}

// HasPersistedDashboards reports whether storage holds a readable, non-empty
// collection.
func (s *DashboardService) HasPersistedDashboards(ctx context.Context) (bool, error) {
	raw, err := s.repo.Get(ctx, repository.KeyDashboards)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading dashboards: %w", err)
	}

	loaded, err := decodeDashboards(raw)
	if err != nil {
		return false, nil
	}
	return len(loaded) > 0, nil
}

// SeedSamples writes the sample dashboards to storage and makes them the
// collection.
func (s *DashboardService) SeedSamples(ctx context.Context) error {
	samples := sampleDashboards(s.now())

	raw, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encoding dashboards: %w", err)
	}
	if err := s.repo.Put(ctx, repository.KeyDashboards, raw); err != nil {
		return fmt.Errorf("saving dashboards: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboards = samples
	s.currentID = ""
	s.detached = nil

	s.log.Info("sample dashboards created", "count", len(samples))
	return nil
}

// MarkOpenInEditMode asks the next grid view to start in edit mode.
func (s *DashboardService) MarkOpenInEditMode(ctx context.Context) error {
	return s.repo.Put(ctx, repository.KeyOpenInEditMode, []byte(editModeFlag))
}

// ConsumeOpenInEditMode reports whether the edit-mode flag was set and
// clears it.
func (s *DashboardService) ConsumeOpenInEditMode(ctx context.Context) (bool, error) {
	raw, err := s.repo.Get(ctx, repository.KeyOpenInEditMode)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.repo.Delete(ctx, repository.KeyOpenInEditMode); err != nil {
		return false, err
	}
	return string(raw) == editModeFlag, nil
}

// mutateCurrent applies fn to the current dashboard and refreshes UpdatedAt
// when fn reports a change.
func (s *DashboardService) mutateCurrent(fn func(d *model.Dashboard) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.current()
	if d == nil {
		return false
	}
	if !fn(d) {
		return false
	}
	d.UpdatedAt = s.now()
	return true
}

// current returns the current dashboard in place. Callers hold s.mu.
func (s *DashboardService) current() *model.Dashboard {
	if s.detached != nil {
		return s.detached
	}
	if s.currentID == "" {
		return nil
	}
	i := s.indexOf(s.currentID)
	if i < 0 {
		return nil
	}
	return &s.dashboards[i]
}

// indexOf returns the collection index of id, or -1. Callers hold s.mu.
func (s *DashboardService) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.dashboards {
		if s.dashboards[i].ID == id {
			return i
		}
	}
	return -1
}

// newDashboardID returns an id not used in the collection. UUIDv7 ids are
// time ordered, so they also sort by creation.
func (s *DashboardService) newDashboardID() string {
	for {
		id := dashboardIDPrefix + uuid.Must(uuid.NewV7()).String()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

// normalizeLoaded drops dashboards without an id or with an id seen earlier
// in the collection and enforces the record invariants on the rest.
func (s *DashboardService) normalizeLoaded(loaded []model.Dashboard) []model.Dashboard {
	out := make([]model.Dashboard, 0, len(loaded))
	seen := make(map[string]bool, len(loaded))
	for _, d := range loaded {
		if d.ID == "" || seen[d.ID] {
			s.log.Warn("dropping stored dashboard with missing or duplicate id", "dashboard_id", d.ID, "name", d.Name)
			continue
		}
		seen[d.ID] = true

		d.Panels = s.normalizePanels(d.ID, d.Panels, nil)
		if err := s.enforceShareInvariant(&d); err != nil {
			s.log.Warn("making stored dashboard private", "dashboard_id", d.ID, "error", err)
			d.IsPublic = false
			d.ShareToken = ""
		}
		out = append(out, d)
	}
	return out
}

// normalizePanels drops duplicate panel ids, clamps geometry and keeps the
// stored type of every panel id that already existed. Panels new to prev
// with an unknown type or a config that is not JSON are dropped.
func (s *DashboardService) normalizePanels(dashboardID string, next, prev []model.Panel) []model.Panel {
	types := make(map[string]model.PanelType, len(prev))
	for _, p := range prev {
		types[p.ID] = p.Type
	}

	out := make([]model.Panel, 0, len(next))
	seen := make(map[string]bool, len(next))
	for _, p := range next {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if t, ok := types[p.ID]; ok {
			p.Type = t
		}
		if !p.Type.Valid() {
			s.log.Warn("dropping panel of unknown type", "dashboard_id", dashboardID, "panel_id", p.ID, "type", p.Type)
			continue
		}
		cfg, err := canonicalConfig(p.Config)
		if err != nil {
			s.log.Warn("dropping panel with invalid config", "dashboard_id", dashboardID, "panel_id", p.ID, "error", err)
			continue
		}
		p.Config = cfg
		p.Normalize(s.columns)
		out = append(out, p)
	}
	return out
}

// canonicalConfig returns raw in the form json.Marshal writes it, so stored
// configs survive a save and load byte for byte. Empty input and JSON null
// become nil.
func canonicalConfig(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding panel config: %w", err)
	}
	return out, nil
}

func (s *DashboardService) enforceShareInvariant(d *model.Dashboard) error {
	if !d.IsPublic {
		d.ShareToken = ""
		return nil
	}
	if d.ShareToken != "" {
		return nil
	}
	token, err := s.newToken()
	if err != nil {
		return err
	}
	d.ShareToken = token
	return nil
}

func decodeDashboards(raw []byte) ([]model.Dashboard, error) {
	var loaded []model.Dashboard
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, errors.New("stored dashboards are not an array")
	}
	for i := range loaded {
		if loaded[i].Panels == nil {
			loaded[i].Panels = []model.Panel{}
		}
	}
	return loaded, nil
}
