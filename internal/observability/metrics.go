package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	apiRequestsTotal  *prometheus.CounterVec
	apiLatencySeconds *prometheus.HistogramVec
	apiErrorsTotal    *prometheus.CounterVec

	assessmentAttemptsTotal  *prometheus.CounterVec
	certificatesIssuedTotal  prometheus.Counter
	issuanceFailuresTotal    *prometheus.CounterVec
	certificateRendersTotal  *prometheus.CounterVec
	verificationLookupsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		assessmentAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_attempts_total",
			Help: "Assessment submissions by outcome.",
		}, []string{"outcome"})

		certificatesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates minted for passing attempts.",
		})

		issuanceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_issuance_failures_total",
			Help: "Certificate issuance failures by stage.",
		}, []string{"stage"})

		certificateRendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_renders_total",
			Help: "Certificate PDF renders by mode.",
		}, []string{"mode"})

		verificationLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_verifications_total",
			Help: "Public certificate verification lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			assessmentAttemptsTotal,
			certificatesIssuedTotal,
			issuanceFailuresTotal,
			certificateRendersTotal,
			verificationLookupsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AssessmentAttempts counts submissions labelled passed, failed, rejected or limited.
func AssessmentAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentAttemptsTotal
}

// CertificatesIssued counts minted certificates.
func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesIssuedTotal
}

// IssuanceFailures counts swallowed issuance errors.
func IssuanceFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return issuanceFailuresTotal
}

// CertificateRenders counts renders labelled stream or archive.
func CertificateRenders() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateRendersTotal
}

// VerificationLookups counts verification requests labelled valid, expired or unknown.
func VerificationLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationLookupsTotal
}
