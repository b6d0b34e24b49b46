// Package panel maps each panel type to its typed configuration and renderer.
//
// The dashboard store treats a panel's config as opaque JSON. This package is
// the only place that knows what the bytes mean for a given type, so adding a
// panel type means adding a Config and a Renderer here and nothing else.
package panel

import "github.com/medash/medash-go/internal/model"

// Config is the typed configuration of one or more panel types.
type Config interface {
	Serves(t model.PanelType) bool
}

// NotesConfig holds Markdown content.
type NotesConfig struct {
	Content string `json:"content"`
}

// ChartPoint is one labelled value of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartConfig describes a single-series chart.
type ChartConfig struct {
	Kind   string       `json:"kind,omitempty"` // "bar" or "line"
	Points []ChartPoint `json:"points,omitempty"`
}

// Stat is one labelled figure of a stats panel.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StatsConfig lists the figures shown by a stats panel.
type StatsConfig struct {
	Items []Stat `json:"items,omitempty"`
}

// CalendarConfig configures the month view.
type CalendarConfig struct {
	WeekStart string `json:"weekStart,omitempty"` // "sunday" or "monday"
}

// WeatherConfig names the location to show.
type WeatherConfig struct {
	Location string `json:"location,omitempty"`
	Units    string `json:"units,omitempty"` // "metric" or "imperial"
}

// EmbedConfig holds the page URL of embed and iframe panels.
type EmbedConfig struct {
	URL string `json:"url"`
}

// TwitterConfig names the account whose timeline is shown.
type TwitterConfig struct {
	Username string `json:"username"`
}

// GoogleCalendarConfig identifies a public Google calendar.
type GoogleCalendarConfig struct {
	CalendarID string `json:"calendarId"`
}

// StockConfig names the ticker symbol to quote.
type StockConfig struct {
	Symbol string `json:"symbol"`
}

func (NotesConfig) Serves(t model.PanelType) bool    { return t == model.PanelNotes }
func (ChartConfig) Serves(t model.PanelType) bool    { return t == model.PanelChart }
func (StatsConfig) Serves(t model.PanelType) bool    { return t == model.PanelStats }
func (CalendarConfig) Serves(t model.PanelType) bool { return t == model.PanelCalendar }
func (WeatherConfig) Serves(t model.PanelType) bool  { return t == model.PanelWeather }
func (TwitterConfig) Serves(t model.PanelType) bool  { return t == model.PanelTwitter }
func (StockConfig) Serves(t model.PanelType) bool    { return t == model.PanelStock }

func (EmbedConfig) Serves(t model.PanelType) bool {
	return t == model.PanelEmbed || t == model.PanelIframe
}

func (GoogleCalendarConfig) Serves(t model.PanelType) bool {
	return t == model.PanelGoogleCalendar
}
