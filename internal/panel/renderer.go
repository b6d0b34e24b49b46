package panel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/medash/medash-go/internal/model"
)

var (
	ErrUnknownType    = errors.New("unknown panel type")
	ErrInvalidConfig  = errors.New("invalid panel config")
	ErrConfigMismatch = errors.New("config does not match panel type")
)

// Field is one input of a panel's edit affordance.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  string `json:"kind"` // "text", "textarea", "url" or "select"
	Value string `json:"value"`
}

// ViewModel is what a client needs to draw a panel. Exactly which of HTML,
// Src and Data are set depends on the panel type.
type ViewModel struct {
	PanelID       string          `json:"panel_id"`
	Title         string          `json:"title"`
	Type          model.PanelType `json:"type"`
	Editing       bool            `json:"editing"`
	HTML          string          `json:"html,omitempty"`
	Src           string          `json:"src,omitempty"`
	Data          any             `json:"data,omitempty"`
	Fields        []Field         `json:"fields,omitempty"`
	InvalidConfig bool            `json:"invalid_config,omitempty"`
}

// Renderer is the capability every panel type provides.
type Renderer interface {
	// Decode parses a stored config. Missing or null configs decode to the
	// type's defaults.
	Decode(raw json.RawMessage) (Config, error)

	// Accepts reports whether cfg is this renderer's config type.
	Accepts(cfg Config) bool

	// Render builds the view model. In edit mode it also lists the inputs
	// whose values feed back into a config change.
	Render(p model.Panel, cfg Config, editing bool) ViewModel
}

// renderer adapts a typed render function to the Renderer interface.
type renderer[C Config] struct {
	defaults func() C
	render   func(p model.Panel, cfg C, editing bool) ViewModel
}

func newRenderer[C Config](defaults func() C, render func(model.Panel, C, bool) ViewModel) Renderer {
	return renderer[C]{defaults: defaults, render: render}
}

func (r renderer[C]) Decode(raw json.RawMessage) (Config, error) {
	cfg := r.defaults()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cfg, nil
	}
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (r renderer[C]) Accepts(cfg Config) bool {
	_, ok := cfg.(C)
	return ok
}

func (r renderer[C]) Render(p model.Panel, cfg Config, editing bool) ViewModel {
	c, ok := cfg.(C)
	if !ok {
		c = r.defaults()
	}
	vm := r.render(p, c, editing)
	vm.PanelID = p.ID
	vm.Title = p.Title
	vm.Type = p.Type
	vm.Editing = editing
	if !editing {
		vm.Fields = nil
	}
	return vm
}
