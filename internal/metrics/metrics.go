package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RowsParsed     prometheus.Counter
	Requests       *prometheus.CounterVec
	Retries        prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	InFlight       prometheus.Gauge
	ActiveBatches  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsParsed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geobatch_rows_parsed_total",
			Help: "Total number of input rows accepted for geocoding.",
		}),
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geobatch_geocode_requests_total",
			Help: "Total number of geocode requests sent, by outcome.",
		}, []string{"status"}),
		Retries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geobatch_geocode_retries_total",
			Help: "Total number of automatic geocode retries.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geobatch_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		InFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "geobatch_requests_in_flight",
			Help: "Current number of geocode requests awaiting a response.",
		}),
		ActiveBatches: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "geobatch_active_batches",
			Help: "Current number of batches held by the server.",
		}),
	}
}
