package satellite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/model"
)

func init() {
	// No real sleeping between retries in tests
	verdictSleepFunc = func(time.Duration) {}
}

func httpCfg(baseURL string) model.SatelliteConfig {
	return model.SatelliteConfig{
		Provider:   "http",
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		RatePerSec: 1000,
		RateBurst:  1000,
	}
}

func TestNewProvider_DisabledReturnsNil(t *testing.T) {
	p, err := NewProvider(model.SatelliteConfig{Provider: ""}, nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p != nil {
		t.Error("Expected nil provider when disabled")
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(model.SatelliteConfig{Provider: "sentinel2"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestHTTPProvider_GetVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verdict" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(model.SatelliteGeofenceResult{
			ConfidenceScore:   0.85,
			WaterBodyDetected: true,
		})
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(httpCfg(srv.URL), cache.NopCache{})
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	v, err := p.GetVerdict(context.Background(), 6.5, 3.3)
	if err != nil {
		t.Fatalf("GetVerdict: %v", err)
	}
	if v.ConfidenceScore != 0.85 || !v.WaterBodyDetected {
		t.Errorf("Unexpected verdict: %+v", v)
	}
	if v.Source != "http" {
		t.Errorf("Expected source http, got %s", v.Source)
	}
}

func TestHTTPProvider_UnavailableOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := httpCfg(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	p, err := NewHTTPProvider(cfg, cache.NopCache{})
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	_, err = p.GetVerdict(context.Background(), 6.5, 3.3)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestHTTPProvider_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(model.SatelliteGeofenceResult{ConfidenceScore: 0.9})
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(httpCfg(srv.URL), cache.NopCache{})
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	v, err := p.GetVerdict(context.Background(), 6.5, 3.3)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if v.ConfidenceScore != 0.9 {
		t.Errorf("Unexpected verdict: %+v", v)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestHTTPProvider_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(httpCfg(srv.URL), cache.NopCache{})
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	if _, err := p.GetVerdict(context.Background(), 6.5, 3.3); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single attempt for a client error, got %d", got)
	}
}

func TestHTTPProvider_CachesVerdicts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(model.SatelliteGeofenceResult{ConfidenceScore: 0.8})
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(httpCfg(srv.URL), cache.NewMemoryCache(time.Minute, time.Minute))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.GetVerdict(context.Background(), 6.5, 3.3); err != nil {
			t.Fatalf("GetVerdict: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single upstream call with caching, got %d", got)
	}
}

func TestStaticProvider_LookupAndFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.json")
	verdicts := map[string]model.SatelliteGeofenceResult{
		"6.5000,3.3000": {ConfidenceScore: 0.4, ProtectedAreaDetected: true},
	}
	data, _ := json.Marshal(verdicts)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write verdict file: %v", err)
	}

	p, err := NewStaticProvider(path)
	if err != nil {
		t.Fatalf("NewStaticProvider: %v", err)
	}

	v, err := p.GetVerdict(context.Background(), 6.5, 3.3)
	if err != nil {
		t.Fatalf("GetVerdict: %v", err)
	}
	if v.ConfidenceScore != 0.4 || !v.ProtectedAreaDetected {
		t.Errorf("Unexpected verdict: %+v", v)
	}

	neutral, err := p.GetVerdict(context.Background(), 9.1, 7.4)
	if err != nil {
		t.Fatalf("GetVerdict fallback: %v", err)
	}
	if neutral.ConfidenceScore != 1.0 || neutral.WaterBodyDetected || neutral.ProtectedAreaDetected {
		t.Errorf("Expected neutral fallback verdict, got %+v", neutral)
	}
}
