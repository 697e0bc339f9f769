package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "furnacelog_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	seriesCreatedTotal   *prometheus.CounterVec
	occurrenceEditsTotal *prometheus.CounterVec

	insightsRequests *prometheus.CounterVec
	insightsLatency  *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	materializerRunsTotal *prometheus.CounterVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_ingest_requests_total",
				Help: "Total weather ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "weather_ingest_errors_total",
				Help: "Total weather ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "weather_ingest_latency_seconds",
				Help:    "Weather ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		seriesCreatedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_created_total",
				Help: "Total recurring series created by result",
			},
			[]string{"result"},
		)
		occurrenceEditsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "occurrence_edits_total",
				Help: "Total occurrence edits by action and result",
			},
			[]string{"action", "result"},
		)

		insightsRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "insights_requests_total",
				Help: "Total insights requests by kind and result",
			},
			[]string{"kind", "result"},
		)
		insightsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "insights_latency_seconds",
				Help:    "Insights computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)

		materializerRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "materializer_runs_total",
				Help: "Total materializer job runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			seriesCreatedTotal,
			occurrenceEditsTotal,
			insightsRequests,
			insightsLatency,
			reportExportTotal,
			reportExportLatency,
			materializerRunsTotal,
		)
	})
}

// ObserveWeatherIngest records one ingest request outcome.
func ObserveWeatherIngest(err error, reason string, duration time.Duration) {
	if ingestRequests == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
		if reason != "" {
			ingestErrors.WithLabelValues(reason).Inc()
		}
	}
	ingestRequests.WithLabelValues(result).Inc()
	ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveSeriesCreated records a series creation outcome.
func ObserveSeriesCreated(err error) {
	if seriesCreatedTotal == nil {
		return
	}
	seriesCreatedTotal.WithLabelValues(resultOf(err)).Inc()
}

// ObserveOccurrenceEdit records an occurrence edit outcome.
func ObserveOccurrenceEdit(action string, err error) {
	if occurrenceEditsTotal == nil {
		return
	}
	occurrenceEditsTotal.WithLabelValues(action, resultOf(err)).Inc()
}

// ObserveInsights records an insights request outcome.
func ObserveInsights(kind string, err error, duration time.Duration) {
	if insightsRequests == nil {
		return
	}
	insightsRequests.WithLabelValues(kind, resultOf(err)).Inc()
	insightsLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveReportExport records a report export outcome.
func ObserveReportExport(format string, err error, duration time.Duration) {
	if reportExportTotal == nil {
		return
	}
	reportExportTotal.WithLabelValues(format, resultOf(err)).Inc()
	reportExportLatency.WithLabelValues(format).Observe(duration.Seconds())
}

// ObserveMaterializerRun records a materializer job outcome.
func ObserveMaterializerRun(err error) {
	if materializerRunsTotal == nil {
		return
	}
	materializerRunsTotal.WithLabelValues(resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
