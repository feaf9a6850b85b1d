package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/margdarshak/backend/internal/domain"
)

var (
	testOrigin = domain.Coordinate{Lat: 19.07, Lon: 72.87}
	testDest   = domain.Coordinate{Lat: 19.10, Lon: 72.90}
)

func TestGraphHopperNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("points_encoded") != "false" {
			t.Errorf("expected points_encoded=false, got %q", r.URL.Query().Get("points_encoded"))
		}
		fmt.Fprint(w, `{"paths":[{"distance":4321.5,"time":600000,"points":{"coordinates":[[72.87,19.07],[72.88,19.08],[72.90,19.10]]}}]}`)
	}))
	defer srv.Close()

	gh := NewGraphHopper("test-key", srv.URL, 2*time.Second)
	routes, err := gh.FetchRoutes(context.Background(), testOrigin, testDest, false)
	if err != nil {
		t.Fatalf("FetchRoutes: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	r := routes[0]
	if r.DistanceM != 4321.5 {
		t.Errorf("distance = %v", r.DistanceM)
	}
	if r.DurationS != 600 { // GraphHopper time is milliseconds
		t.Errorf("duration = %v, want 600", r.DurationS)
	}
	if len(r.Path) != 3 || r.Path[0].Lat != 19.07 || r.Path[0].Lon != 72.87 {
		t.Errorf("path not normalized from lon/lat pairs: %+v", r.Path)
	}
}

func TestGraphHopperMissingKey(t *testing.T) {
	gh := NewGraphHopper("", "http://unused", time.Second)
	_, err := gh.FetchRoutes(context.Background(), testOrigin, testDest, false)
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Retryable() {
		t.Error("missing key must not be retryable")
	}
}

func TestOSRMRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":1000,"duration":100,"geometry":{"coordinates":[[72.87,19.07],[72.90,19.10]]}}]}`)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL, 2*time.Second)
	routes, err := o.FetchRoutes(context.Background(), testOrigin, testDest, true)
	if err != nil {
		t.Fatalf("FetchRoutes after retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls (1 retry), got %d", calls)
	}
	if len(routes) != 1 || routes[0].DurationS != 100 {
		t.Errorf("unexpected routes: %+v", routes)
	}
}

func TestOSRMDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL, 2*time.Second)
	_, err := o.FetchRoutes(context.Background(), testOrigin, testDest, false)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls)
	}
}

func TestOSRMRejectsInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"NoRoute","routes":[]}`)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL, 2*time.Second)
	if _, err := o.FetchRoutes(context.Background(), testOrigin, testDest, false); err == nil {
		t.Fatal("expected invalid payload error")
	}
}

func TestOSRMAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"Ok","routes":[
			{"distance":1000,"duration":100,"geometry":{"coordinates":[[72.87,19.07],[72.90,19.10]]}},
			{"distance":1500,"duration":140,"geometry":{"coordinates":[[72.87,19.07],[72.89,19.06],[72.90,19.10]]}}
		]}`)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL, 2*time.Second)
	routes, err := o.FetchRoutes(context.Background(), testOrigin, testDest, true)
	if err != nil {
		t.Fatalf("FetchRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected both alternatives, got %d", len(routes))
	}
}

func TestORSNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ors-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[[72.87,19.07],[72.90,19.10]]},"properties":{"summary":{"distance":2500,"duration":300}}}]}`)
	}))
	defer srv.Close()

	ors := NewOpenRouteService("ors-key", srv.URL, 2*time.Second)
	routes, err := ors.FetchRoutes(context.Background(), testOrigin, testDest, false)
	if err != nil {
		t.Fatalf("FetchRoutes: %v", err)
	}
	if len(routes) != 1 || routes[0].DistanceM != 2500 || routes[0].DurationS != 300 {
		t.Errorf("unexpected routes: %+v", routes)
	}
}

func TestTomTomSyntheticFallback(t *testing.T) {
	tt := NewTomTom("") // unconfigured: always synthetic
	sample, err := tt.FlowAt(context.Background(), 19.07, 72.87)
	if err != nil {
		t.Fatalf("FlowAt: %v", err)
	}
	if sample.Speed < 10 || sample.Speed > 80 {
		t.Errorf("synthetic speed out of range: %v", sample.Speed)
	}
	if sample.Severity < 0 || sample.Severity > 100 {
		t.Errorf("severity out of range: %v", sample.Severity)
	}
}

func TestSeverityMappings(t *testing.T) {
	if got := SeverityFromJamFactor(5); got != 50 {
		t.Errorf("SeverityFromJamFactor(5) = %v, want 50", got)
	}
	if got := SeverityFromJamFactor(15); got != 100 {
		t.Errorf("jam factor above 10 must clamp to 100, got %v", got)
	}
	if got := SeverityFromSpeed(80); got != 0 {
		t.Errorf("free flow speed must score 0, got %v", got)
	}
	if got := SeverityFromSpeed(0); got != 100 {
		t.Errorf("standstill must score 100, got %v", got)
	}
}
