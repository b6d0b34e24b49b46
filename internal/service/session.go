package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medash/medash-go/internal/crypto"
	"github.com/medash/medash-go/internal/model"
	"github.com/medash/medash-go/internal/repository"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidTheme  = errors.New("theme must be light or dark")
	ErrNotLoggedIn   = errors.New("not logged in")
)

const (
	stubUserID   = "1"
	stubUserName = "John Doe"
	stubAvatar   = "https://api.dicebear.com/7.x/avataaars/svg?seed=John"
)

// SessionService holds the signed-in user, the theme and the colour palette.
//
// Login is an identity stub: any email signs in as the same fabricated user.
// The issued JWT only ties HTTP requests to the live session so that Logout
// revokes it.
type SessionService struct {
	mu         sync.Mutex
	repo       repository.Store
	dashboards *DashboardService
	log        *slog.Logger
	jwtSecret  string
	jwtExpiry  time.Duration

	user      *model.User
	sessionID string
	theme     model.Theme
	palette   model.ColorPalette
}

// NewSessionService creates a SessionService with the light theme and the
// default palette.
func NewSessionService(repo repository.Store, dashboards *DashboardService, logger *slog.Logger, secret string, expiry time.Duration) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		repo:       repo,
		dashboards: dashboards,
		log:        logger,
		jwtSecret:  secret,
		jwtExpiry:  expiry,
		theme:      model.ThemeLight,
		palette:    model.DefaultColorPalette(),
	}
}

// Login signs in with the given email and returns a session token. On the
// first login the sample dashboards are written to storage; otherwise the
// stored collection is loaded.
func (s *SessionService) Login(ctx context.Context, email string) (model.AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}

	seeded, err := s.dashboards.HasPersistedDashboards(ctx)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if seeded {
		err = s.dashboards.LoadDashboards(ctx)
	} else {
		err = s.dashboards.SeedSamples(ctx)
	}
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := model.User{
		ID:     stubUserID,
		Name:   stubUserName,
		Email:  email,
		Avatar: stubAvatar,
	}
	sessionID := uuid.NewString()

	token, err := crypto.GenerateToken(user.ID, user.Email, sessionID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issuing session token: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.sessionID = sessionID
	s.mu.Unlock()

	s.log.Info("user logged in", "email", email, "seeded", !seeded)
	return model.AuthResponse{Token: token, User: user}, nil
}

// Logout ends the session and clears the current dashboard. Stored
// dashboards are kept.
func (s *SessionService) Logout() {
	s.mu.Lock()
	s.user = nil
	s.sessionID = ""
	s.mu.Unlock()

	s.dashboards.ClearCurrentDashboard()
	s.log.Info("user logged out")
}

// CurrentUser returns the signed-in user.
func (s *SessionService) CurrentUser() (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return model.User{}, ErrNotLoggedIn
	}
	return *s.user, nil
}

// IsActive reports whether sessionID belongs to the live session.
func (s *SessionService) IsActive(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionID != "" && s.sessionID == sessionID
}

// Theme returns the active theme.
func (s *SessionService) Theme() model.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.theme
}

// SetTheme switches and persists the theme.
func (s *SessionService) SetTheme(ctx context.Context, theme model.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	if err := s.repo.Put(ctx, repository.KeyTheme, []byte(theme)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// LoadTheme restores the stored theme. Anything other than a stored "dark"
// means light.
func (s *SessionService) LoadTheme(ctx context.Context) error {
	raw, err := s.repo.Get(ctx, repository.KeyTheme)
	if err != nil && !errors.Is(err, repository.ErrKeyNotFound) {
		return fmt.Errorf("loading theme: %w", err)
	}

	theme := model.ThemeLight
	if err == nil && model.Theme(raw) == model.ThemeDark {
		theme = model.ThemeDark
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// Palette returns the active colour palette.
func (s *SessionService) Palette() model.ColorPalette {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.palette
}

// UpdatePalette merges u into the palette and returns the result. The
// palette is not persisted.
func (s *SessionService) UpdatePalette(u model.PaletteUpdate) model.ColorPalette {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.palette = u.Apply(s.palette)
	return s.palette
}
