package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "preview",
		Name:      "frames_total",
		Help:      "Preview frames delivered",
	})

	previewStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "preview",
		Name:      "stopped_total",
		Help:      "Preview extractions that ended early, by reason",
	}, []string{"reason"})
)

// IncPreviewFrames counts one delivered frame.
func IncPreviewFrames() {
	previewFrames.Inc()
}

// IncPreviewStopped counts an extraction that ended early.
func IncPreviewStopped(reason string) {
	previewStops.WithLabelValues(reason).Inc()
}
