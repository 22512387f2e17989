// Package metrics records export job metrics on a private Prometheus
// registry, written out for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/fbz-tec/dbxport/core/exporters"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dbxport"

// Recorder is an exporters.Observer feeding Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	rows     *prometheus.CounterVec
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	info     *prometheus.GaugeVec
}

// NewRecorder registers every collector on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows written by export jobs.",
		}, []string{"format"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Export jobs by format and final state.",
		}, []string{"format", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of export jobs.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800},
		}, []string{"format"}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information of dbxport.",
		}, []string{"version", "commit"}),
	}
	r.registry.MustRegister(r.rows, r.jobs, r.duration, r.info)
	return r
}

// SetBuildInfo publishes the running version.
func (r *Recorder) SetBuildInfo(version, commit string) {
	r.info.WithLabelValues(version, commit).Set(1)
}

func (r *Recorder) RowsWritten(job *exporters.Job, n int) {
	r.rows.WithLabelValues(job.Options.Format).Add(float64(n))
}

func (r *Recorder) JobFinished(job *exporters.Job, res exporters.Result) {
	format := job.Options.Format
	r.jobs.WithLabelValues(format, res.State.String()).Inc()
	r.duration.WithLabelValues(format).Observe(res.Duration.Seconds())
}

// Registry exposes the collectors, for tests and custom gatherers.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteToTextfile writes the current values in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", path, err)
	}
	return nil
}
