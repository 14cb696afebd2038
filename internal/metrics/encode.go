// Package metrics provides Prometheus metrics for probing, encoding and
// preview extraction.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidshrink"

// Encode results.
const (
	ResultSuccess    = "success"
	ResultFailed     = "failed"
	ResultCancelled  = "cancelled"
	ResultSuperseded = "superseded"
)

var (
	encodeProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encode",
		Name:      "progress_percent",
		Help:      "Completion of running transcode jobs",
	}, []string{"job_id"})

	encodeJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "encode",
		Name:      "jobs_total",
		Help:      "Finished transcode jobs by result",
	}, []string{"result"})

	encodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "encode",
		Name:      "duration_seconds",
		Help:      "Wall time of transcode jobs",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	probeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "probe",
		Name:      "failures_total",
		Help:      "Probes that did not yield a complete description",
	})

	// Last reported progress, for the API.
	progressCache   = make(map[string]float64)
	progressCacheMu sync.RWMutex
)

// SetEncodeProgress records the completion percentage of a job.
func SetEncodeProgress(jobID string, percent float64) {
	encodeProgress.WithLabelValues(jobID).Set(percent)
	progressCacheMu.Lock()
	progressCache[jobID] = percent
	progressCacheMu.Unlock()
}

// EncodeProgress returns the last percentage recorded for a job.
func EncodeProgress(jobID string) (float64, bool) {
	progressCacheMu.RLock()
	defer progressCacheMu.RUnlock()
	p, ok := progressCache[jobID]
	return p, ok
}

// FinishEncode drops the job's progress series and counts its result.
func FinishEncode(jobID, result string, seconds float64) {
	encodeProgress.DeleteLabelValues(jobID)
	progressCacheMu.Lock()
	delete(progressCache, jobID)
	progressCacheMu.Unlock()

	encodeJobs.WithLabelValues(result).Inc()
	encodeDuration.Observe(seconds)
}

// IncProbeFailures counts a failed probe.
func IncProbeFailures() {
	probeFailures.Inc()
}
