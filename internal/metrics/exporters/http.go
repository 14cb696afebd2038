// Package exporters serves the registered metrics over HTTP.
package exporters

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/vidshrink/internal/logging"
)

// HTTPHandler returns the Prometheus handler for every promauto metric.
// OpenMetrics is negotiated when the scraper asks for it, and gather errors
// are logged under the "metrics" module.
func HTTPHandler() http.Handler {
	errorLog := slog.NewLogLogger(logging.GetLogger("metrics").Handler(), slog.LevelWarn)
	return promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:          errorLog,
			EnableOpenMetrics: true,
		}))
}
