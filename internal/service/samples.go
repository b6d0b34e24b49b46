package service

import (
	"encoding/json"
	"time"

	"github.com/medash/medash-go/internal/model"
)

// defaultDashboards is the collection used when nothing readable is stored.
func defaultDashboards(now time.Time) []model.Dashboard {
	return []model.Dashboard{
		{
			ID:          "dash-sample",
			Name:        "My First Dashboard",
			Description: "A sample dashboard to get started",
			Panels: []model.Panel{
				{
					ID:     "panel-1",
					Title:  "Welcome",
					Type:   model.PanelNotes,
					X:      0,
					Y:      0,
					W:      6,
					H:      3,
					Config: mustConfig(map[string]any{"content": "Welcome to Me.Dash! Start by adding panels to your dashboard."}),
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// sampleDashboards is the collection seeded on the first login.
func sampleDashboards(now time.Time) []model.Dashboard {
	return []model.Dashboard{
		{
			ID:          "sample-1",
			Name:        "My First Dashboard",
			Description: "A sample dashboard to get you started",
			Panels: []model.Panel{
				{
					ID:     "panel-1",
					Title:  "Welcome Notes",
					Type:   model.PanelNotes,
					X:      0,
					Y:      0,
					W:      6,
					H:      3,
					Config: mustConfig(map[string]any{"content": "Welcome to Me.Dash! Start by adding panels to your dashboard."}),
				},
				{
					ID:    "panel-2",
					Title: "Quick Stats",
					Type:  model.PanelStats,
					X:     6,
					Y:     0,
					W:     6,
					H:     3,
					Config: mustConfig(map[string]any{"items": []map[string]any{
						{"label": "Tasks", "value": "12"},
						{"label": "Done", "value": "8"},
					}}),
				},
				{
					ID:    "panel-3",
					Title: "Monthly Chart",
					Type:  model.PanelChart,
					X:     0,
					Y:     3,
					W:     8,
					H:     4,
					Config: mustConfig(map[string]any{"kind": "bar", "points": []map[string]any{
						{"label": "Jan", "value": 30},
						{"label": "Feb", "value": 45},
						{"label": "Mar", "value": 28},
					}}),
				},
				{
					ID:    "panel-4",
					Title: "Calendar",
					Type:  model.PanelCalendar,
					X:     8,
					Y:     3,
					W:     4,
					H:     4,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "sample-2",
			Name:        "Weather Dashboard",
			Description: "Track weather and stay organized",
			Panels: []model.Panel{
				{
					ID:     "panel-5",
					Title:  "Current Weather",
					Type:   model.PanelWeather,
					X:      0,
					Y:      0,
					W:      12,
					H:      4,
					Config: mustConfig(map[string]any{"location": "London", "units": "metric"}),
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func mustConfig(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
