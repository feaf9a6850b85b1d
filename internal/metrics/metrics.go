package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveCorridors  prometheus.Gauge
	CorridorsCreated prometheus.Counter
	PositionUpdates  prometheus.Counter

	RaceWins       *prometheus.CounterVec // provider label: graphhopper|osrm|ors
	ProviderErrors *prometheus.CounterVec // provider label
	Fallbacks      *prometheus.CounterVec // tier label: snapped|straight

	RaceDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveCorridors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corridor_active_requests",
			Help: "Number of corridor requests currently in the active state.",
		}),
		CorridorsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corridor_created_total",
			Help: "Total corridor requests created.",
		}),
		PositionUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corridor_position_updates_total",
			Help: "Total vehicle position updates applied.",
		}),
		RaceWins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_race_wins_total",
			Help: "Route races won, by provider.",
		}, []string{"provider"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_provider_errors_total",
			Help: "Provider adapter failures, by provider.",
		}, []string{"provider"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_fallbacks_total",
			Help: "Route computations served by a geometric fallback tier.",
		}, []string{"tier"}),
		RaceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "routing_race_duration_seconds",
			Help:    "Duration of one provider racing round.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corridor_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corridor_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corridor_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	// Register
	reg.MustRegister(
		c.ActiveCorridors, c.CorridorsCreated, c.PositionUpdates,
		c.RaceWins, c.ProviderErrors, c.Fallbacks, c.RaceDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)

	return c
}

// RaceWin satisfies the routing metrics hooks.
func (c *Collector) RaceWin(provider string) { c.RaceWins.WithLabelValues(provider).Inc() }

func (c *Collector) ProviderFailure(provider string) {
	c.ProviderErrors.WithLabelValues(provider).Inc()
}

func (c *Collector) FallbackUsed(tier string) { c.Fallbacks.WithLabelValues(tier).Inc() }

func (c *Collector) ObserveRace(d time.Duration) { c.RaceDuration.Observe(d.Seconds()) }

// CorridorCreated satisfies the corridor planner hooks.
func (c *Collector) CorridorCreated() {
	c.CorridorsCreated.Inc()
	c.ActiveCorridors.Inc()
}

func (c *Collector) PositionUpdated() { c.PositionUpdates.Inc() }

// NATSPublishedInc satisfies the publisher metrics hooks.
func (c *Collector) NATSPublishedInc() { c.NATSPublished.Inc() }

func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
