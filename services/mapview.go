package services

import (
	"context"
	"fmt"

	"civicportal-be/gateway"
	"civicportal-be/models"
)

const (
	TileURL          = "https://{s}.google.com/vt/lyrs=y&x={x}&y={y}&z={z}"
	TileAttribution  = "&copy; Google"
	RelayoutDelayMS  = 100
	sidebarListLimit = 5
)

var TileSubdomains = []string{"mt0", "mt1", "mt2", "mt3"}

// MapConfig is the initial viewport and tile layer handed to the map widget.
type MapConfig struct {
	Center          [2]float64 `json:"center"`
	Zoom            int        `json:"zoom"`
	TileURL         string     `json:"tile_url"`
	Subdomains      []string   `json:"subdomains"`
	Attribution     string     `json:"attribution"`
	RelayoutDelayMS int        `json:"relayout_delay_ms"`
}

func NewMapConfig(lat, lng float64, zoom int) MapConfig {
	return MapConfig{
		Center:          [2]float64{lat, lng},
		Zoom:            zoom,
		TileURL:         TileURL,
		Subdomains:      TileSubdomains,
		Attribution:     TileAttribution,
		RelayoutDelayMS: RelayoutDelayMS,
	}
}

type MarkerIcon struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

type MarkerPopup struct {
	Title    string               `json:"title"`
	Location string               `json:"location"`
	Status   models.IssueStatus   `json:"status"`
	Priority models.IssuePriority `json:"priority"`
	Upvotes  int                  `json:"upvotes"`
	ImageURL string               `json:"image_url,omitempty"`
}

type Marker struct {
	ID       string      `json:"id"`
	Position [2]float64  `json:"position"`
	Icon     MarkerIcon  `json:"icon"`
	Popup    MarkerPopup `json:"popup"`
}

type SidebarStats struct {
	Total      int `json:"total"`
	Critical   int `json:"critical"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

type SidebarItem struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Location string               `json:"location"`
	Category models.IssueCategory `json:"category"`
	Color    string               `json:"color"`
}

type Legend struct {
	Categories []models.LegendEntry `json:"categories"`
	Statuses   []models.LegendEntry `json:"statuses"`
}

type MapView struct {
	Config   MapConfig     `json:"config"`
	Category string        `json:"category"`
	Markers  []Marker      `json:"markers"`
	Stats    SidebarStats  `json:"stats"`
	Recent   []SidebarItem `json:"recent"`
	Legend   Legend        `json:"legend"`
}

// BuildMap keeps issues with both coordinates, applies the category filter and derives markers
// and sidebar content from what is left.
func BuildMap(cfg MapConfig, issues []models.Issue, category string) MapView {
	if category == "" {
		category = FilterAll
	}
	view := MapView{
		Config:   cfg,
		Category: category,
		Markers:  []Marker{},
		Recent:   []SidebarItem{},
		Legend: Legend{
			Categories: models.CategoryLegend(),
			Statuses:   models.StatusLegend(),
		},
	}

	for _, issue := range issues {
		if !issue.HasCoordinates() {
			continue
		}
		if category != FilterAll && string(issue.Category) != category {
			continue
		}

		view.Markers = append(view.Markers, Marker{
			ID:       issue.ID.Hex(),
			Position: [2]float64{*issue.Latitude, *issue.Longitude},
			Icon: MarkerIcon{
				Fill:   models.CategoryColor(issue.Category),
				Border: models.StatusColor(issue.Status),
			},
			Popup: MarkerPopup{
				Title:    issue.Title,
				Location: issue.Location,
				Status:   issue.Status,
				Priority: issue.Priority,
				Upvotes:  issue.Upvotes,
				ImageURL: issue.ImageURL,
			},
		})

		view.Stats.Total++
		if issue.Priority == models.Critical {
			view.Stats.Critical++
		}
		switch issue.Status {
		case models.InProgress:
			view.Stats.InProgress++
		case models.Resolved:
			view.Stats.Resolved++
		}

		if len(view.Recent) < sidebarListLimit {
			view.Recent = append(view.Recent, SidebarItem{
				ID:       issue.ID.Hex(),
				Title:    issue.Title,
				Location: issue.Location,
				Category: issue.Category,
				Color:    models.CategoryColor(issue.Category),
			})
		}
	}
	return view
}

type MapService struct {
	issues gateway.IssueGateway
	cfg    MapConfig
}

func NewMapService(issues gateway.IssueGateway, cfg MapConfig) *MapService {
	return &MapService{issues: issues, cfg: cfg}
}

func (s *MapService) Load(ctx context.Context, category string) (*MapView, error) {
	issues, err := s.issues.List(ctx, gateway.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	view := BuildMap(s.cfg, issues, category)
	return &view, nil
}
