package satellite

import (
	"fmt"
	"strings"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/model"
)

// NewProvider creates a verdict provider based on configuration. An empty
// provider name disables the adapter: (nil, nil), and the engine records
// every verdict as absent.
func NewProvider(cfg model.SatelliteConfig, verdictCache cache.Cache) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "http":
		return NewHTTPProvider(cfg, verdictCache)

	case "static":
		return NewStaticProvider(cfg.StaticPath)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown satellite provider: %s (supported: http, static)", cfg.Provider)
	}
}
