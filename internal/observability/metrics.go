package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ensureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mergectl",
			Subsystem: "provision",
			Name:      "ensure_total",
			Help:      "Resource ensure attempts by outcome.",
		},
		[]string{"resource", "kind", "outcome"},
	)
	ensureDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mergectl",
			Subsystem: "provision",
			Name:      "ensure_duration_seconds",
			Help:      "Resource ensure duration in seconds.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"resource", "kind", "outcome"},
	)
	downloadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mergectl",
			Subsystem: "tool",
			Name:      "download_bytes_total",
			Help:      "Bytes downloaded for external tool packages.",
		},
		[]string{"package"},
	)
	launchExit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mergectl",
			Subsystem: "launch",
			Name:      "last_exit_code",
			Help:      "Exit code of the most recent application run.",
		},
		[]string{"entry"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ensureTotal, ensureDuration, downloadBytes, launchExit)
	})
}

func RecordEnsure(resource, kind, outcome string, duration time.Duration) {
	RegisterMetrics()
	ensureTotal.WithLabelValues(resource, kind, outcome).Inc()
	ensureDuration.WithLabelValues(resource, kind, outcome).Observe(duration.Seconds())
}

func RecordDownload(pkg string, n int64) {
	RegisterMetrics()
	if n <= 0 {
		return
	}
	downloadBytes.WithLabelValues(pkg).Add(float64(n))
}

func RecordLaunchExit(entry string, code int) {
	RegisterMetrics()
	launchExit.WithLabelValues(entry).Set(float64(code))
}

// WriteTextfile writes the default registry in text exposition format for the
// node_exporter textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
