package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSummary is the aggregated view served by the stats endpoint.
type MetricsSummary struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	PlacementsCommitted      uint64    `json:"placements_committed"`
	PlacementsRejected       uint64    `json:"placements_rejected"`
	ConflictScans            uint64    `json:"conflict_scans"`
	ConflictScanCacheRatio   float64   `json:"conflict_scan_cache_ratio"`
	OpenConflicts            int       `json:"open_conflicts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for API consumption. All methods are nil-safe so
// instrumentation stays optional in tests.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	placements      *prometheus.CounterVec
	conflictScans   *prometheus.CounterVec
	snapshotOps     *prometheus.CounterVec
	openConflicts   prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	placementCommitted   uint64
	placementRejected    uint64
	scanHitCount         uint64
	scanMissCount        uint64
	openConflictCount    int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_placements_total",
		Help: "Assignment placements by outcome",
	}, []string{"outcome"})

	conflictScans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflict_scans_total",
		Help: "Full conflict scans by cache outcome",
	}, []string{"cache"})

	snapshotOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_snapshot_operations_total",
		Help: "Snapshot exports, imports and resets",
	}, []string{"op"})

	openConflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_open_conflicts",
		Help: "Slot conflicts currently present in the dataset",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, placements, conflictScans, snapshotOps, openConflicts, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		placements:      placements,
		conflictScans:   conflictScans,
		snapshotOps:     snapshotOps,
		openConflicts:   openConflicts,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for
// the summary endpoint.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordPlacement counts assignment placements by outcome. Rejected means
// the placement was refused because of an unconfirmed conflict.
func (m *MetricsService) RecordPlacement(committed bool) {
	if m == nil {
		return
	}
	if committed {
		m.placements.WithLabelValues("committed").Inc()
		atomic.AddUint64(&m.placementCommitted, 1)
	} else {
		m.placements.WithLabelValues("rejected").Inc()
		atomic.AddUint64(&m.placementRejected, 1)
	}
}

// RecordConflictScan counts full-dataset conflict scans and whether the
// memoized result for the current revision was reused.
func (m *MetricsService) RecordConflictScan(cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.conflictScans.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.scanHitCount, 1)
	} else {
		m.conflictScans.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.scanMissCount, 1)
	}
}

// RecordSnapshot counts completed dataset-wide operations: "export",
// "import" or "reset".
func (m *MetricsService) RecordSnapshot(op string) {
	if m == nil {
		return
	}
	m.snapshotOps.WithLabelValues(op).Inc()
}

// SetConflictCount publishes the number of conflicts found by the latest
// scan.
func (m *MetricsService) SetConflictCount(count int) {
	if m == nil {
		return
	}
	m.openConflicts.Set(float64(count))
	atomic.StoreInt64(&m.openConflictCount, int64(count))
}

// Summary returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Summary() MetricsSummary {
	if m == nil {
		return MetricsSummary{GeneratedAt: time.Now().UTC()}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	hits := atomic.LoadUint64(&m.scanHitCount)
	misses := atomic.LoadUint64(&m.scanMissCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	return MetricsSummary{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		PlacementsCommitted:      atomic.LoadUint64(&m.placementCommitted),
		PlacementsRejected:       atomic.LoadUint64(&m.placementRejected),
		ConflictScans:            hits + misses,
		ConflictScanCacheRatio:   cacheRatio,
		OpenConflicts:            int(atomic.LoadInt64(&m.openConflictCount)),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
