package pipeline

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/akravchenko/alertmap/internal/broadcast"
	"github.com/akravchenko/alertmap/internal/geocode"
	"github.com/akravchenko/alertmap/internal/models"
	"github.com/akravchenko/alertmap/internal/nlp"
	"github.com/akravchenko/alertmap/internal/observability"
	"github.com/akravchenko/alertmap/internal/render"
	"github.com/akravchenko/alertmap/internal/store"
)

// Pipeline runs one inbound channel message through extraction,
// normalization, geocoding and storage, then triggers a map refresh when
// anything was stored.
type Pipeline struct {
	tagger      nlp.LocationTagger
	normalizer  *nlp.Normalizer
	geocoder    geocode.Geocoder
	store       store.Store
	publisher   *render.Publisher
	broadcaster *broadcast.Broadcaster
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

func New(
	tagger nlp.LocationTagger,
	normalizer *nlp.Normalizer,
	geocoder geocode.Geocoder,
	st store.Store,
	publisher *render.Publisher,
	broadcaster *broadcast.Broadcaster,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) *Pipeline {
	return &Pipeline{
		tagger:      tagger,
		normalizer:  normalizer,
		geocoder:    geocoder,
		store:       st,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     metrics,
		clock:       clock,
	}
}

// Process handles one message. Every location extracted from it carries the
// same timestamp, taken once here. An unresolved location is dropped without
// aborting the rest of the message; a tagging failure drops the whole message
// but never the process.
func (p *Pipeline) Process(ctx context.Context, msg models.InboundMessage) error {
	p.metrics.MessagesProcessed.Inc()
	ts := p.clock.Now().UTC()

	spans, err := p.tagger.TagLocations(ctx, msg.Text)
	if err != nil {
		p.metrics.TagFailures.Inc()
		slog.Warn("entity tagging failed, dropping message", "error", err)
		return err
	}

	stored := 0
	for _, span := range spans {
		p.metrics.LocationsExtracted.Inc()

		canonical := p.normalizer.Normalize(span)
		coords, ok := p.geocoder.Resolve(ctx, canonical)
		if !ok {
			p.metrics.GeocodeMisses.Inc()
			slog.Debug("location did not resolve", "place", canonical)
			continue
		}
		p.metrics.GeocodeResolved.Inc()

		rec := &models.AlertRecord{
			Message:   msg.Text,
			PlaceRaw:  span,
			Place:     canonical,
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
			Timestamp: ts,
		}
		if err := p.store.Append(ctx, rec); err != nil {
			slog.Error("error appending alert", "place", canonical, "error", err)
			continue
		}
		p.metrics.RecordsStored.Inc()
		stored++

		slog.Info("alert recorded", "place", canonical, "lat", coords.Latitude, "lon", coords.Longitude)

		if p.broadcaster != nil {
			p.broadcaster.Broadcast(*rec)
		}
	}

	if stored == 0 {
		return nil
	}

	if err := p.publisher.Refresh(ctx); err != nil {
		p.metrics.MapRefreshFailures.Inc()
		slog.Error("map refresh failed", "error", err)
		return err
	}
	p.metrics.MapRefreshes.Inc()
	return nil
}
