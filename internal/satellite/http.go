package satellite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/model"
)

const verdictMaxRetries = 3

// verdictSleepFunc is the sleep function used between retries (injectable for tests)
var verdictSleepFunc = time.Sleep

// HTTPProvider fetches verdicts from the imagery service over HTTP. Requests
// are rate-limited and responses cached; the service bills per lookup.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	cache   cache.Cache
}

// NewHTTPProvider creates an HTTP verdict provider
func NewHTTPProvider(cfg model.SatelliteConfig, verdictCache cache.Cache) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("satellite base_url is required for the http provider")
	}
	if verdictCache == nil {
		verdictCache = cache.NopCache{}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 5
	}

	return &HTTPProvider{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		cache:   verdictCache,
	}, nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// IsAvailable checks the service health endpoint
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GetVerdict fetches the verdict for a coordinate, consulting the cache
// first. Transient failures are retried with exponential backoff; a final
// failure returns ErrUnavailable.
func (p *HTTPProvider) GetVerdict(ctx context.Context, lat, lng float64) (*model.SatelliteGeofenceResult, error) {
	key := cache.Key("satellite", fmt.Sprintf("%.6f,%.6f", lat, lng))
	if raw, found := p.cache.Get(key); found {
		var cached model.SatelliteGeofenceResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := 0; attempt < verdictMaxRetries; attempt++ {
		verdict, retryable, err := p.fetch(ctx, lat, lng)
		if err == nil {
			if raw, merr := json.Marshal(verdict); merr == nil {
				_ = p.cache.Set(key, raw, 0)
			}
			return verdict, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		if attempt < verdictMaxRetries-1 {
			verdictSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// fetch performs one request; retryable covers 5xx, 429, and network errors
func (p *HTTPProvider) fetch(ctx context.Context, lat, lng float64) (*model.SatelliteGeofenceResult, bool, error) {
	url := fmt.Sprintf("%s/verdict?lat=%.6f&lng=%.6f", p.baseURL, lat, lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "landsafe/0.1")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	var verdict model.SatelliteGeofenceResult
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, false, fmt.Errorf("decode verdict: %w", err)
	}
	verdict.Source = p.Name()
	if verdict.CapturedAt.IsZero() {
		verdict.CapturedAt = time.Now().UTC()
	}
	return &verdict, false, nil
}
