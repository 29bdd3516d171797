package geocode

import (
	"context"

	"github.com/akravchenko/alertmap/internal/models"
)

// Geocoder resolves a canonical place name to coordinates. The boolean is
// false when the name did not resolve; callers cannot distinguish "not found"
// from a transient provider failure, and are not meant to.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (models.Coordinates, bool)
}
