package panel

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medash/medash-go/internal/model"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestRegistry_CoversEveryPanelType(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, model.PanelTypes, r.Types())

	for _, typ := range model.PanelTypes {
		_, ok := r.Renderer(typ)
		assert.True(t, ok, "no renderer for %s", typ)
	}
}

func TestRender_UnknownType(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Render(model.Panel{ID: "p1", Type: "clock"}, false)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRender_Notes(t *testing.T) {
	r := newTestRegistry()
	p := model.Panel{
		ID:     "p1",
		Title:  "Welcome",
		Type:   model.PanelNotes,
		Config: json.RawMessage(`{"content":"# Hello\n\n<script>alert(1)</script>**bold**"}`),
	}

	vm, err := r.Render(p, false)
	require.NoError(t, err)

	assert.Equal(t, "p1", vm.PanelID)
	assert.Equal(t, "Welcome", vm.Title)
	assert.Contains(t, vm.HTML, "<h1")
	assert.Contains(t, vm.HTML, "Hello")
	assert.NotContains(t, vm.HTML, "<script>")
	assert.Empty(t, vm.Fields, "fields are only listed in edit mode")

	vm, err = r.Render(p, true)
	require.NoError(t, err)
	require.Len(t, vm.Fields, 1)
	assert.Equal(t, "content", vm.Fields[0].Name)
	assert.True(t, vm.Editing)
}

func TestRender_MissingConfigUsesDefaults(t *testing.T) {
	r := newTestRegistry()

	vm, err := r.Render(model.Panel{ID: "p1", Type: model.PanelStock}, false)
	require.NoError(t, err)

	stock, ok := vm.Data.(StockView)
	require.True(t, ok)
	assert.Equal(t, "AAPL", stock.Symbol)
	assert.False(t, vm.InvalidConfig)
}

func TestRender_InvalidConfigFallsBack(t *testing.T) {
	r := newTestRegistry()

	vm, err := r.Render(model.Panel{ID: "p1", Type: model.PanelWeather, Config: json.RawMessage(`"sunny"`)}, false)
	require.NoError(t, err)

	assert.True(t, vm.InvalidConfig)
	weather, ok := vm.Data.(WeatherConfig)
	require.True(t, ok)
	assert.Equal(t, "metric", weather.Units)
}

func TestRender_Sources(t *testing.T) {
	tests := []struct {
		name    string
		typ     model.PanelType
		config  string
		wantSrc string
	}{
		{name: "embed https", typ: model.PanelEmbed, config: `{"url":"https://example.com/page"}`, wantSrc: "https://example.com/page"},
		{name: "iframe http", typ: model.PanelIframe, config: `{"url":"http://example.com"}`, wantSrc: "http://example.com"},
		{name: "embed javascript scheme", typ: model.PanelEmbed, config: `{"url":"javascript:alert(1)"}`, wantSrc: ""},
		{name: "embed relative", typ: model.PanelEmbed, config: `{"url":"/local"}`, wantSrc: ""},
		{name: "twitter strips at", typ: model.PanelTwitter, config: `{"username":"@golang"}`, wantSrc: "https://twitter.com/golang"},
		{name: "twitter empty", typ: model.PanelTwitter, config: `{}`, wantSrc: ""},
		{name: "google calendar", typ: model.PanelGoogleCalendar, config: `{"calendarId":"team@example.com"}`, wantSrc: "https://calendar.google.com/calendar/embed?src=team%40example.com"},
	}

	r := newTestRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, err := r.Render(model.Panel{ID: "p", Type: tt.typ, Config: json.RawMessage(tt.config)}, false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, vm.Src)
		})
	}
}

func TestRender_Stock(t *testing.T) {
	r := newTestRegistry()

	vm, err := r.Render(model.Panel{ID: "p", Type: model.PanelStock, Config: json.RawMessage(`{"symbol":" msft "}`)}, true)
	require.NoError(t, err)

	stock := vm.Data.(StockView)
	assert.Equal(t, "MSFT", stock.Symbol)
	assert.True(t, strings.HasSuffix(stock.QuoteURL, "symbol=MSFT"))
	require.Len(t, vm.Fields, 1)
	assert.Equal(t, "MSFT", vm.Fields[0].Value)
}

func TestMonthGrid(t *testing.T) {
	// October 2026 starts on a Thursday and has 31 days.
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	sunday := monthGrid(now, "sunday")
	assert.Equal(t, "October 2026", sunday.Month)
	assert.Equal(t, 15, sunday.Today)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 2, 3}, sunday.Weeks[0])
	assert.Len(t, sunday.Weeks, 5)

	monday := monthGrid(now, "monday")
	assert.Equal(t, []int{0, 0, 0, 1, 2, 3, 4}, monday.Weeks[0])
	last := monday.Weeks[len(monday.Weeks)-1]
	assert.Equal(t, 31, last[5])
}

func TestConfigChange(t *testing.T) {
	r := newTestRegistry()
	notes := model.Panel{ID: "p1", Type: model.PanelNotes}

	update, err := r.ConfigChange(notes, NotesConfig{Content: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"hi"}`, string(update.Config))
	assert.Nil(t, update.Title, "a config change only carries the config")
}

func TestConfigChange_TypeMatch(t *testing.T) {
	tests := []struct {
		name    string
		typ     model.PanelType
		cfg     Config
		wantErr bool
	}{
		{name: "embed on embed", typ: model.PanelEmbed, cfg: EmbedConfig{URL: "https://example.com"}},
		{name: "embed on iframe", typ: model.PanelIframe, cfg: EmbedConfig{URL: "https://example.com"}},
		{name: "google calendar", typ: model.PanelGoogleCalendar, cfg: GoogleCalendarConfig{CalendarID: "team"}},
		{name: "stock on notes", typ: model.PanelNotes, cfg: StockConfig{Symbol: "AAPL"}, wantErr: true},
		{name: "notes on chart", typ: model.PanelChart, cfg: NotesConfig{Content: "x"}, wantErr: true},
		{name: "embed on twitter", typ: model.PanelTwitter, cfg: EmbedConfig{URL: "https://example.com"}, wantErr: true},
		{name: "nil config", typ: model.PanelNotes, cfg: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			_, err := r.ConfigChange(model.Panel{ID: "p1", Type: tt.typ}, tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfigMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Serves(t *testing.T) {
	assert.True(t, EmbedConfig{}.Serves(model.PanelEmbed))
	assert.True(t, EmbedConfig{}.Serves(model.PanelIframe))
	assert.False(t, EmbedConfig{}.Serves(model.PanelNotes))
	assert.True(t, StockConfig{}.Serves(model.PanelStock))
	assert.False(t, StockConfig{}.Serves(model.PanelIframe))
}

func TestDecodeChange(t *testing.T) {
	r := newTestRegistry()
	p := model.Panel{ID: "p1", Type: model.PanelStock}

	update, err := r.DecodeChange(p, json.RawMessage(`{"symbol":"TSLA","extra":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"TSLA"}`, string(update.Config))

	_, err = r.DecodeChange(p, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = r.DecodeChange(model.Panel{Type: "clock"}, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}
