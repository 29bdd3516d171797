package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

// Regional anchor: the map is always centered on Kyiv at a fixed zoom,
// whatever the current alerts are.
const (
	CenterLat   = 50.4501
	CenterLon   = 30.5234
	DefaultZoom = 10
)

var tierColors = map[models.SeverityTier]string{
	models.TierCritical: "red",
	models.TierWarning:  "yellow",
	models.TierStale:    "gray",
}

const mapTemplate = `<!DOCTYPE html>
<html lang="uk">
<head>
   <meta charset="UTF-8"/>
   <title>Kyiv Region Alerts</title>
   <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
   <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
   <style>
      html, body, #map {
         height: 100%;
         margin: 0;
      }
   </style>
</head>
<body>
   <div id="map"></div>
   <script>
      const map = L.map("map").setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
      L.tileLayer("https://tile.openstreetmap.org/{z}/{x}/{y}.png", {
         attribution: "&copy; OpenStreetMap contributors"
      }).addTo(map);

      {{range .Markers}}
      L.circleMarker([{{.Lat}}, {{.Lon}}], {
         radius: 6,
         color: {{.Color}},
         fill: true,
         fillColor: {{.Color}},
         fillOpacity: 0.7
      }).bindPopup({{.Message}}).addTo(map);
      {{end}}
   </script>
</body>
</html>
`

type mapData struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
	Markers   []marker
}

type marker struct {
	Lat     float64
	Lon     float64
	Color   string
	Message string
}

// Renderer turns the current record set into a self-contained Leaflet map
// document. Pure function of (records, now): no state beyond the parsed
// template, so rendering twice with the same inputs gives the same bytes.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("map").Parse(mapTemplate)),
	}
}

// Render draws one severity-colored marker per record. Records older than the
// retention window are skipped even if a caller passes them in; an empty
// record list renders a valid empty map centered on the anchor.
func (r *Renderer) Render(records []models.AlertRecord, now time.Time) ([]byte, error) {
	data := mapData{
		CenterLat: CenterLat,
		CenterLon: CenterLon,
		Zoom:      DefaultZoom,
	}

	for _, rec := range records {
		tier := models.TierForAge(now.Sub(rec.Timestamp))
		color, ok := tierColors[tier]
		if !ok {
			continue
		}
		data.Markers = append(data.Markers, marker{
			Lat:     rec.Latitude,
			Lon:     rec.Longitude,
			Color:   color,
			Message: rec.Message,
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("error rendering map: %w", err)
	}
	return buf.Bytes(), nil
}
