package model

// User is the signed-in identity. It only lives for the duration of a session
// and owns nothing: every dashboard is visible to whoever is signed in.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// LoginRequest represents a login request. There is no password.
type LoginRequest struct {
	Email string `json:"email"`
}

// AuthResponse represents a login response with a session token and user info.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Theme is the global light/dark preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the supported themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// ThemeRequest represents a theme change request.
type ThemeRequest struct {
	Theme Theme `json:"theme"`
}

// ColorPalette holds the global accent colours.
type ColorPalette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// DefaultColorPalette returns the palette a fresh session starts with.
func DefaultColorPalette() ColorPalette {
	return ColorPalette{
		Primary:    "#3B82F6",
		Secondary:  "#10B981",
		Accent:     "#F59E0B",
		Background: "#FFFFFF",
		Text:       "#1F2937",
	}
}

// PaletteUpdate is a partial palette change. Empty fields are left alone.
type PaletteUpdate struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Apply merges u into p.
func (u PaletteUpdate) Apply(p ColorPalette) ColorPalette {
	if u.Primary != "" {
		p.Primary = u.Primary
	}
	if u.Secondary != "" {
		p.Secondary = u.Secondary
	}
	if u.Accent != "" {
		p.Accent = u.Accent
	}
	if u.Background != "" {
		p.Background = u.Background
	}
	if u.Text != "" {
		p.Text = u.Text
	}
	return p
}
