package satellite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/landsafe/landsafe/internal/model"
)

// StaticProvider serves verdicts from a local JSON file keyed by rounded
// coordinate. Meant for offline runs and CI; coordinates without an entry
// get a neutral full-confidence verdict rather than an error.
type StaticProvider struct {
	verdicts map[string]model.SatelliteGeofenceResult
}

// NewStaticProvider loads the verdict file
func NewStaticProvider(path string) (*StaticProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("satellite static_path is required for the static provider")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verdict file: %w", err)
	}
	var verdicts map[string]model.SatelliteGeofenceResult
	if err := json.Unmarshal(data, &verdicts); err != nil {
		return nil, fmt.Errorf("parse verdict file: %w", err)
	}
	return &StaticProvider{verdicts: verdicts}, nil
}

// Name returns the provider name
func (p *StaticProvider) Name() string {
	return "static"
}

// IsAvailable always reports true once the file has loaded
func (p *StaticProvider) IsAvailable(context.Context) bool {
	return true
}

// coordKey rounds to 4 decimals (~11 m), matching the file format
func coordKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

// GetVerdict looks up the coordinate, falling back to a neutral verdict
func (p *StaticProvider) GetVerdict(_ context.Context, lat, lng float64) (*model.SatelliteGeofenceResult, error) {
	if v, ok := p.verdicts[coordKey(lat, lng)]; ok {
		v.Source = p.Name()
		return &v, nil
	}
	return &model.SatelliteGeofenceResult{
		ConfidenceScore: 1.0,
		Source:          p.Name(),
	}, nil
}
