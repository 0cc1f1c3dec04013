package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the asset module.
type Metrics struct {
	AssetsCreated     prometheus.Counter
	AssetsDeactivated prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// New creates a new Metrics instance with all asset module metrics registered.
func New() *Metrics {
	return &Metrics{
		AssetsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_assets_created_total",
			Help: "Total number of assets created",
		}),
		AssetsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_assets_deactivated_total",
			Help: "Total number of assets deactivated",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_asset_cache_hits_total",
			Help: "Asset snapshot cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroom_asset_cache_misses_total",
			Help: "Asset snapshot cache misses",
		}),
	}
}

func (m *Metrics) IncrementAssetsCreated() {
	m.AssetsCreated.Inc()
}

func (m *Metrics) IncrementAssetsDeactivated() {
	m.AssetsDeactivated.Inc()
}

func (m *Metrics) IncrementCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) IncrementCacheMiss() {
	m.CacheMisses.Inc()
}
