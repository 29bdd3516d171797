package models

import "time"

// AlertRecord is one geo-located alert extracted from a channel message.
// Records are only ever created with a resolved coordinate pair; an
// unresolved place name never becomes a record.
type AlertRecord struct {
	ID        int64
	Message   string // original channel message, verbatim
	PlaceRaw  string // extracted span before normalization
	Place     string // canonical (lemmatized) place name
	Latitude  float64
	Longitude float64
	Timestamp time.Time // UTC, assigned when the message entered the pipeline
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (r *AlertRecord) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

type SeverityTier string

const (
	TierCritical SeverityTier = "critical" // age <= 15 min
	TierWarning  SeverityTier = "warning"  // 15 min < age <= 30 min
	TierStale    SeverityTier = "stale"    // 30 min < age <= 60 min
	TierExpired  SeverityTier = "expired"  // outside the retention window
)

// TierForAge classifies a record's age. Boundaries are inclusive: an age of
// exactly 15 minutes is still critical, exactly 60 minutes is still stale.
func TierForAge(age time.Duration) SeverityTier {
	switch {
	case age <= 15*time.Minute:
		return TierCritical
	case age <= 30*time.Minute:
		return TierWarning
	case age <= 60*time.Minute:
		return TierStale
	default:
		return TierExpired
	}
}

// InboundMessage is a raw channel post waiting for pipeline processing.
type InboundMessage struct {
	Text string
}
