package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteAttempts counts every call made to the spreadsheet, per operation and result.
	RemoteAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_sheets_remote_attempts_total",
			Help: "Total number of attempts against the spreadsheet API",
		},
		[]string{"operation", "result"},
	)

	// RemoteUnavailable counts wrapped calls that ran out of attempts.
	RemoteUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_sheets_remote_unavailable_total",
			Help: "Total number of calls that exhausted their retries",
		},
		[]string{"operation"},
	)

	// Submissions counts form submissions by outcome.
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_sheets_submissions_total",
			Help: "Total number of form submissions",
		},
		[]string{"result"},
	)

	// HTTPDuration tracks request latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expense_sheets_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Attempt results.
const (
	ResultSuccess   = "success"
	ResultTransient = "transient"
	ResultFatal     = "fatal"
)

// Submission outcomes.
const (
	SubmissionSaved       = "saved"
	SubmissionMissing     = "missing"
	SubmissionInvalid     = "invalid"
	SubmissionUnavailable = "unavailable"
	SubmissionError       = "error"
)
