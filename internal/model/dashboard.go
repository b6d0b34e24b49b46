package model

import (
	"encoding/json"
	"time"
)

// Dashboard is a named set of positioned panels plus sharing and appearance
// metadata. ShareToken is non-empty exactly when IsPublic is true.
type Dashboard struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Panels          []Panel   `json:"panels"`
	IsPublic        bool      `json:"isPublic"`
	ShareToken      string    `json:"shareToken,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Theme           Theme     `json:"theme,omitempty"`
	PrimaryColor    string    `json:"primaryColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
}

// Clone returns a deep copy of d. Panels and their configs are not shared.
func (d Dashboard) Clone() Dashboard {
	out := d
	if d.Panels != nil {
		out.Panels = make([]Panel, len(d.Panels))
		for i, p := range d.Panels {
			out.Panels[i] = p.Clone()
		}
	}
	return out
}

// PanelIndex returns the position of the panel with the given id, or -1.
func (d *Dashboard) PanelIndex(panelID string) int {
	for i := range d.Panels {
		if d.Panels[i].ID == panelID {
			return i
		}
	}
	return -1
}

// CreateDashboardRequest represents a dashboard creation request. Open selects
// the new dashboard and flags it to be opened in edit mode.
type CreateDashboardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Open        bool   `json:"open"`
}

// SelectDashboardRequest represents a change of the current dashboard.
type SelectDashboardRequest struct {
	ID string `json:"id"`
}

// ShareResponse is returned when a dashboard is shared.
type ShareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// EditModeResponse reports whether the grid should open in edit mode.
type EditModeResponse struct {
	OpenInEditMode bool `json:"open_in_edit_mode"`
}

// LayoutRequest carries the grid layout after a drag or resize.
type LayoutRequest struct {
	Items []LayoutItem `json:"items"`
}

// LayoutResponse reports how many panels a layout change touched.
type LayoutResponse struct {
	Applied int `json:"applied"`
}

// ConfigRequest carries a typed panel configuration as raw JSON.
type ConfigRequest struct {
	Config json.RawMessage `json:"config"`
}

// AddPanelRequest represents a new panel for the current dashboard. A missing
// position places the panel in column 0 of the first free row.
type AddPanelRequest struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Type   PanelType       `json:"type"`
	X      *int            `json:"x,omitempty"`
	Y      *int            `json:"y,omitempty"`
	W      int             `json:"w"`
	H      int             `json:"h"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Default size of a panel added without one.
const (
	DefaultPanelWidth  = 4
	DefaultPanelHeight = 3
)

// Panel builds the panel to add. nextRow is used when Y is absent.
func (r AddPanelRequest) Panel(nextRow int) Panel {
	p := Panel{
		ID:     r.ID,
		Title:  r.Title,
		Type:   r.Type,
		Y:      nextRow,
		W:      r.W,
		H:      r.H,
		Config: r.Config,
	}
	if r.X != nil {
		p.X = *r.X
	}
	if r.Y != nil {
		p.Y = *r.Y
	}
	if p.W == 0 {
		p.W = DefaultPanelWidth
	}
	if p.H == 0 {
		p.H = DefaultPanelHeight
	}
	return p
}
