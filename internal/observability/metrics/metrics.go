package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	VerifyAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_verify_attempts_total",
			Help: "Total number of access verification attempts.",
		},
		[]string{"service", "result", "credential_type"},
	)

	VerifyDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intercom_verify_duration_seconds",
			Help:    "Duration of access verification calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	UsageConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_usage_conflicts_total",
			Help: "Total number of lost usage-consumption races (CAS retries).",
		},
		[]string{"service", "kind"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	VerifyAttemptsTotal = VerifyAttemptsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	VerifyDurationSeconds = VerifyDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	UsageConflictsTotal = UsageConflictsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		VerifyAttemptsTotal,
		VerifyDurationSeconds,
		UsageConflictsTotal,
	)
}
