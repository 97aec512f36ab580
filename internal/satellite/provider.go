// Package satellite adapts the external imagery collaborator into an
// advisory verdict source. The engine treats any failure here as "verdict
// absent" and degrades, never as a classification failure.
package satellite

import (
	"context"
	"errors"

	"github.com/landsafe/landsafe/internal/model"
)

// ErrUnavailable: the provider could not produce a verdict (timeout, network
// failure, service down). Callers degrade to verdict-absent mode.
var ErrUnavailable = errors.New("satellite verdict unavailable")

// Provider defines the interface for satellite verdict sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetVerdict fetches the environmental verdict for a coordinate
	GetVerdict(ctx context.Context, lat, lng float64) (*model.SatelliteGeofenceResult, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}
