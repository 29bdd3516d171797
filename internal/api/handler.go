package api

import (
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/akravchenko/alertmap/internal/broadcast"
	"github.com/akravchenko/alertmap/internal/render"
	"github.com/akravchenko/alertmap/internal/store"
)

const dashboardTemplate = `<!DOCTYPE html>
<html lang="uk">
<head>
   <meta charset="UTF-8"/>
   <title>Kyiv Alerts Map</title>
   <style>
      body { font-family: Arial, sans-serif; margin: 0; padding: 12px; }
      iframe { border: none; width: 100%; height: 800px; }
   </style>
</head>
<body>
   <h2>Kyiv Region Alerts</h2>
   <iframe src="{{.MapURL}}"></iframe>
   <script>
      setInterval(function() {
         document.querySelector("iframe").src = {{.MapURL}} + "?rand=" + Math.random();
      }, 30000);
   </script>
</body>
</html>
`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardTemplate))

type Handler struct {
	store       store.Store
	publisher   *render.Publisher
	broadcaster *broadcast.Broadcaster
	window      time.Duration
	mapURL      string
	clock       clockwork.Clock
}

func NewHandler(
	st store.Store,
	publisher *render.Publisher,
	broadcaster *broadcast.Broadcaster,
	window time.Duration,
	mapURL string,
	clock clockwork.Clock,
) *Handler {
	return &Handler{
		store:       st,
		publisher:   publisher,
		broadcaster: broadcaster,
		window:      window,
		mapURL:      mapURL,
		clock:       clock,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.dashboard)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/stream", h.streamAlerts)
	r.GET("/health", h.health)
}

// dashboard regenerates the map artifact, then serves the page that embeds
// it. A refresh failure still serves the page with the previous artifact.
func (h *Handler) dashboard(c *gin.Context) {
	if err := h.publisher.Refresh(c.Request.Context()); err != nil {
		slog.Error("dashboard map refresh failed", "error", err)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dashboardTmpl.Execute(c.Writer, gin.H{"MapURL": h.mapURL}); err != nil {
		slog.Error("dashboard template failed", "error", err)
	}
}

func (h *Handler) getAlerts(c *gin.Context) {
	now := h.clock.Now().UTC()

	records, err := h.store.SnapshotWithin(c.Request.Context(), h.window, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	fc := toGeoJSON(records, now)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

// streamAlerts pushes each newly stored record to the client as a
// server-sent event until the client disconnects.
func (h *Handler) streamAlerts(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case rec, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("alert", toFeature(rec, h.clock.Now().UTC()))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
