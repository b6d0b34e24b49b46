package model

import (
	"bytes"
	"encoding/json"
)

// PanelType selects the renderer that interprets a panel's config.
type PanelType string

const (
	PanelNotes          PanelType = "notes"
	PanelChart          PanelType = "chart"
	PanelStats          PanelType = "stats"
	PanelCalendar       PanelType = "calendar"
	PanelWeather        PanelType = "weather"
	PanelEmbed          PanelType = "embed"
	PanelIframe         PanelType = "iframe"
	PanelTwitter        PanelType = "twitter"
	PanelGoogleCalendar PanelType = "google-calendar"
	PanelStock          PanelType = "stock"
)

// PanelTypes lists every supported panel type in display order.
var PanelTypes = []PanelType{
	PanelNotes,
	PanelChart,
	PanelStats,
	PanelCalendar,
	PanelWeather,
	PanelEmbed,
	PanelIframe,
	PanelTwitter,
	PanelGoogleCalendar,
	PanelStock,
}

// Valid reports whether t is a known panel type.
func (t PanelType) Valid() bool {
	for _, known := range PanelTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultGridColumns is the grid width used when none is configured.
const DefaultGridColumns = 12

// Panel is a positioned, sized unit of dashboard content. Config is opaque to
// the store and only interpreted by the renderer registered for Type.
type Panel struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Type   PanelType       `json:"type"`
	X      int             `json:"x"`
	Y      int             `json:"y"`
	W      int             `json:"w"`
	H      int             `json:"h"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Clone returns a copy of p that does not share its config bytes.
func (p Panel) Clone() Panel {
	if p.Config != nil {
		p.Config = bytes.Clone(p.Config)
	}
	return p
}

// Normalize clamps the panel geometry into a grid of the given width.
func (p *Panel) Normalize(columns int) {
	if columns < 1 {
		columns = DefaultGridColumns
	}
	if p.W < 1 {
		p.W = 1
	}
	if p.W > columns {
		p.W = columns
	}
	if p.H < 1 {
		p.H = 1
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.X+p.W > columns {
		p.X = columns - p.W
	}
	if p.Y < 0 {
		p.Y = 0
	}
}

// PanelUpdate is a partial panel change. Nil fields are preserved; Config,
// when present, replaces the stored config wholesale. A panel's type cannot
// be changed.
type PanelUpdate struct {
	Title  *string         `json:"title,omitempty"`
	X      *int            `json:"x,omitempty"`
	Y      *int            `json:"y,omitempty"`
	W      *int            `json:"w,omitempty"`
	H      *int            `json:"h,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// IsEmpty reports whether u changes nothing.
func (u PanelUpdate) IsEmpty() bool {
	return u.Title == nil && u.X == nil && u.Y == nil && u.W == nil && u.H == nil && u.Config == nil
}

// Apply merges u into p.
func (u PanelUpdate) Apply(p Panel) Panel {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.X != nil {
		p.X = *u.X
	}
	if u.Y != nil {
		p.Y = *u.Y
	}
	if u.W != nil {
		p.W = *u.W
	}
	if u.H != nil {
		p.H = *u.H
	}
	switch {
	case u.Config == nil:
	case bytes.Equal(bytes.TrimSpace(u.Config), []byte("null")):
		p.Config = nil
	default:
		p.Config = bytes.Clone(u.Config)
	}
	return p
}

// LayoutItem is one panel's position as reported by the grid.
type LayoutItem struct {
	I string `json:"i"`
	X int    `json:"x"`
	Y int    `json:"y"`
	W int    `json:"w"`
	H int    `json:"h"`
}
