package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all job metrics
type Metrics struct {
	// Job runs
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	JobLastRun  *prometheus.GaugeVec

	// Per-item outcomes
	ItemsProcessed *prometheus.CounterVec
	ItemsFailed    *prometheus.CounterVec
	ItemsSkipped   *prometheus.CounterVec

	// Delivery
	NotificationsCreated *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
}

// New creates the metrics without registering them.
func New(namespace string) *Metrics {
	return &Metrics{
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of job runs by outcome",
		}, []string{"job", "status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent running a job",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		JobLastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}, []string{"job"}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_processed_total",
			Help:      "Items a job handled successfully",
		}, []string{"job"}),
		ItemsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_failed_total",
			Help:      "Items a job failed on and skipped",
		}, []string{"job"}),
		ItemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_skipped_total",
			Help:      "Items a job looked at and left alone",
		}, []string{"job"}),
		NotificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications created by type",
		}, []string{"type"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Digest emails by outcome",
		}, []string{"status"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.JobRuns,
		m.JobDuration,
		m.JobLastRun,
		m.ItemsProcessed,
		m.ItemsFailed,
		m.ItemsSkipped,
		m.NotificationsCreated,
		m.EmailsSent,
	}
}
