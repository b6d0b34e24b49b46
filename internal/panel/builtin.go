package panel

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/medash/medash-go/internal/model"
)

// notesSanitizer strips scripts, event handlers and the like from rendered
// notes while keeping ordinary formatting.
var notesSanitizer = bluemonday.UGCPolicy()

const (
	defaultStockSymbol = "AAPL"
	stockQuoteURL      = "https://api.twelvedata.com/quote"
	twitterBaseURL     = "https://twitter.com/"
	googleCalendarURL  = "https://calendar.google.com/calendar/embed"
)

func registerBuiltins(r *Registry) {
	r.Register(model.PanelNotes, newRenderer(func() NotesConfig { return NotesConfig{} }, renderNotes))
	r.Register(model.PanelChart, newRenderer(func() ChartConfig { return ChartConfig{Kind: "bar"} }, renderChart))
	r.Register(model.PanelStats, newRenderer(func() StatsConfig { return StatsConfig{} }, renderStats))
	r.Register(model.PanelCalendar, newRenderer(func() CalendarConfig { return CalendarConfig{WeekStart: "sunday"} }, r.renderCalendar))
	r.Register(model.PanelWeather, newRenderer(func() WeatherConfig { return WeatherConfig{Units: "metric"} }, renderWeather))
	r.Register(model.PanelEmbed, newRenderer(func() EmbedConfig { return EmbedConfig{} }, renderEmbed))
	r.Register(model.PanelIframe, newRenderer(func() EmbedConfig { return EmbedConfig{} }, renderEmbed))
	r.Register(model.PanelTwitter, newRenderer(func() TwitterConfig { return TwitterConfig{} }, renderTwitter))
	r.Register(model.PanelGoogleCalendar, newRenderer(func() GoogleCalendarConfig { return GoogleCalendarConfig{} }, renderGoogleCalendar))
	r.Register(model.PanelStock, newRenderer(func() StockConfig { return StockConfig{Symbol: defaultStockSymbol} }, renderStock))
}

func renderNotes(_ model.Panel, cfg NotesConfig, _ bool) ViewModel {
	vm := ViewModel{
		Fields: []Field{{Name: "content", Label: "Content", Kind: "textarea", Value: cfg.Content}},
	}
	if cfg.Content == "" {
		return vm
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(cfg.Content), &buf); err != nil {
		vm.HTML = notesSanitizer.Sanitize(cfg.Content)
		return vm
	}
	vm.HTML = string(notesSanitizer.SanitizeBytes(buf.Bytes()))
	return vm
}

func renderChart(_ model.Panel, cfg ChartConfig, _ bool) ViewModel {
	if cfg.Kind != "line" {
		cfg.Kind = "bar"
	}
	return ViewModel{
		Data:   cfg,
		Fields: []Field{{Name: "kind", Label: "Chart type", Kind: "select", Value: cfg.Kind}},
	}
}

func renderStats(_ model.Panel, cfg StatsConfig, _ bool) ViewModel {
	return ViewModel{Data: cfg}
}

// CalendarView is the month grid of a calendar panel. Days outside the month
// are zero.
type CalendarView struct {
	Month     string  `json:"month"`
	Today     int     `json:"today"`
	WeekStart string  `json:"weekStart"`
	Weeks     [][]int `json:"weeks"`
}

func (r *Registry) renderCalendar(_ model.Panel, cfg CalendarConfig, _ bool) ViewModel {
	if cfg.WeekStart != "monday" {
		cfg.WeekStart = "sunday"
	}
	return ViewModel{
		Data:   monthGrid(r.now(), cfg.WeekStart),
		Fields: []Field{{Name: "weekStart", Label: "Week starts on", Kind: "select", Value: cfg.WeekStart}},
	}
}

func monthGrid(now time.Time, weekStart string) CalendarView {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	days := first.AddDate(0, 1, -1).Day()

	offset := int(first.Weekday())
	if weekStart == "monday" {
		offset = (offset + 6) % 7
	}

	view := CalendarView{
		Month:     first.Format("January 2006"),
		Today:     now.Day(),
		WeekStart: weekStart,
	}
	week := make([]int, 7)
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			view.Weeks = append(view.Weeks, week)
			week = make([]int, 7)
			col = 0
		}
	}
	if col > 0 {
		view.Weeks = append(view.Weeks, week)
	}
	return view
}

func renderWeather(_ model.Panel, cfg WeatherConfig, _ bool) ViewModel {
	if cfg.Units != "imperial" {
		cfg.Units = "metric"
	}
	return ViewModel{
		Data: cfg,
		Fields: []Field{
			{Name: "location", Label: "Location", Kind: "text", Value: cfg.Location},
			{Name: "units", Label: "Units", Kind: "select", Value: cfg.Units},
		},
	}
}

func renderEmbed(_ model.Panel, cfg EmbedConfig, _ bool) ViewModel {
	return ViewModel{
		Src:    safeURL(cfg.URL),
		Fields: []Field{{Name: "url", Label: "URL", Kind: "url", Value: cfg.URL}},
	}
}

func renderTwitter(_ model.Panel, cfg TwitterConfig, _ bool) ViewModel {
	vm := ViewModel{
		Fields: []Field{{Name: "username", Label: "Username", Kind: "text", Value: cfg.Username}},
	}
	if user := strings.TrimPrefix(strings.TrimSpace(cfg.Username), "@"); user != "" {
		vm.Src = twitterBaseURL + url.PathEscape(user)
	}
	return vm
}

func renderGoogleCalendar(_ model.Panel, cfg GoogleCalendarConfig, _ bool) ViewModel {
	vm := ViewModel{
		Fields: []Field{{Name: "calendarId", Label: "Calendar ID", Kind: "text", Value: cfg.CalendarID}},
	}
	if id := strings.TrimSpace(cfg.CalendarID); id != "" {
		vm.Src = googleCalendarURL + "?src=" + url.QueryEscape(id)
	}
	return vm
}

// StockView tells the client which symbol to quote and where to fetch it.
type StockView struct {
	Symbol   string `json:"symbol"`
	QuoteURL string `json:"quoteUrl"`
}

func renderStock(_ model.Panel, cfg StockConfig, _ bool) ViewModel {
	symbol := strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if symbol == "" {
		symbol = defaultStockSymbol
	}
	return ViewModel{
		Data: StockView{
			Symbol:   symbol,
			QuoteURL: stockQuoteURL + "?symbol=" + url.QueryEscape(symbol),
		},
		Fields: []Field{{Name: "symbol", Label: "Symbol", Kind: "text", Value: symbol}},
	}
}

// safeURL returns raw if it is an absolute http(s) URL and "" otherwise.
func safeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
