package model

// Roadmap is the chart-ready learning plan shape the frontend renders.
type Roadmap struct {
	Labels   []string         `json:"labels"`
	Datasets []RoadmapDataset `json:"datasets"`
}

type RoadmapDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
}

// Resource is one suggested learning resource.
type Resource struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Difficulty  string `json:"difficulty,omitempty"`
	Duration    string `json:"duration,omitempty"`
}
