package panel

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/medash/medash-go/internal/model"
)

// Registry maps panel types to renderers.
type Registry struct {
	mu        sync.RWMutex
	renderers map[model.PanelType]Renderer
	now       func() time.Time
}

// NewRegistry returns a registry with every built-in panel type registered.
func NewRegistry() *Registry {
	r := &Registry{
		renderers: make(map[model.PanelType]Renderer),
		now:       time.Now,
	}
	registerBuiltins(r)
	return r
}

// Register adds or replaces the renderer for t.
func (r *Registry) Register(t model.PanelType, rend Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[t] = rend
}

// Renderer returns the renderer registered for t.
func (r *Registry) Renderer(t model.PanelType) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rend, ok := r.renderers[t]
	return rend, ok
}

// Types lists the registered panel types in display order.
func (r *Registry) Types() []model.PanelType {
	var out []model.PanelType
	for _, t := range model.PanelTypes {
		if _, ok := r.Renderer(t); ok {
			out = append(out, t)
		}
	}
	return out
}

// Decode parses p's stored config into its typed form.
func (r *Registry) Decode(p model.Panel) (Config, error) {
	rend, ok := r.Renderer(p.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	return rend.Decode(p.Config)
}

// Render builds p's view model. A stored config that does not parse renders
// with the type's defaults and InvalidConfig set.
func (r *Registry) Render(p model.Panel, editing bool) (ViewModel, error) {
	rend, ok := r.Renderer(p.Type)
	if !ok {
		return ViewModel{}, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}

	cfg, err := rend.Decode(p.Config)
	invalid := err != nil
	if invalid {
		cfg, _ = rend.Decode(nil)
	}

	vm := rend.Render(p, cfg, editing)
	vm.InvalidConfig = invalid
	return vm, nil
}

// ConfigChange turns a new typed config for p into the update that replaces
// p's config. A config that does not serve p's type is refused with
// ErrConfigMismatch. It never touches the store itself.
func (r *Registry) ConfigChange(p model.Panel, cfg Config) (model.PanelUpdate, error) {
	rend, ok := r.Renderer(p.Type)
	if !ok {
		return model.PanelUpdate{}, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	if cfg == nil || !cfg.Serves(p.Type) || !rend.Accepts(cfg) {
		return model.PanelUpdate{}, ErrConfigMismatch
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return model.PanelUpdate{}, fmt.Errorf("encoding config: %w", err)
	}
	return model.PanelUpdate{Config: raw}, nil
}

// DecodeChange validates raw JSON against p's type and returns the update
// carrying its canonical encoding.
func (r *Registry) DecodeChange(p model.Panel, raw json.RawMessage) (model.PanelUpdate, error) {
	rend, ok := r.Renderer(p.Type)
	if !ok {
		return model.PanelUpdate{}, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	cfg, err := rend.Decode(raw)
	if err != nil {
		return model.PanelUpdate{}, err
	}
	return r.ConfigChange(p, cfg)
}
