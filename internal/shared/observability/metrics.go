package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classforge_site_refresh_seconds",
		Help:    "Time spent refreshing a member reference site.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	RenamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classforge_renames_total",
		Help: "Total number of applied definition renames.",
	}, []string{"kind"})

	RenameCascadeBlocks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classforge_rename_cascade_blocks",
		Help:    "Number of blocks visited by one rename cascade.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	WorkspaceBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classforge_workspace_blocks_total",
		Help: "Total number of live blocks in the loaded workspaces.",
	})

	WorkspaceClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classforge_workspace_classes_total",
		Help: "Total number of class definitions in the loaded workspaces.",
	})

	DanglingSites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classforge_dangling_sites_total",
		Help: "Current number of reference sites whose binding is unresolved.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classforge_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ReloadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classforge_workspace_reload_seconds",
		Help:    "Time spent loading a workspace file into block state.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	SessionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classforge_session_requests_total",
		Help: "Total number of session operations served.",
	}, []string{"operation", "status"})

	SessionRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classforge_session_request_seconds",
		Help:    "Latency for serving one session operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	StoreWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classforge_store_write_seconds",
		Help:    "Latency for persisting one write batch, by store.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
)
