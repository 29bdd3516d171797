package api

import (
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(records []models.AlertRecord, now time.Time) FeatureCollection {
	features := make([]Feature, 0, len(records))

	for _, r := range records {
		features = append(features, toFeature(r, now))
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func toFeature(r models.AlertRecord, now time.Time) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{r.Longitude, r.Latitude},
		},
		Properties: map[string]any{
			"message":   r.Message,
			"place":     r.Place,
			"tier":      string(models.TierForAge(now.Sub(r.Timestamp))),
			"timestamp": r.Timestamp,
		},
	}
}
