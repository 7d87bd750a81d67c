// internal/common/metrics/metrics.go
package metrics

import (
	"reward-management-api/internal/common/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RewardSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_selections_total",
			Help: "Total number of reward selections processed, by transport and outcome code",
		},
		[]string{"source", "outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reward_pipeline_stage_duration_seconds",
			Help:    "Duration of each reward pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_upstream_requests_total",
			Help: "Total number of downstream calls, by service and result",
		},
		[]string{"service", "result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reward_upstream_request_duration_seconds",
			Help:    "Duration of downstream calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Upstream call results used as the "result" label.
const (
	ResultSuccess     = "success"
	ResultTimeout     = "timeout"
	ResultBadStatus   = "bad_status"
	ResultBadBody     = "bad_body"
	ResultUnavailable = "unavailable"
	ResultCanceled    = "canceled"
)

// UpstreamResult maps the outcome of a downstream call onto a result label.
func UpstreamResult(err error) string {
	if err == nil {
		return ResultSuccess
	}
	stdErr := errors.AsStandardError(err)
	switch stdErr.UpstreamKind() {
	case errors.UpstreamTimeout:
		return ResultTimeout
	case errors.UpstreamBadStatus:
		return ResultBadStatus
	case errors.UpstreamBadBody:
		return ResultBadBody
	}
	if stdErr.Code == errors.ErrCodeRequestCanceled {
		return ResultCanceled
	}
	return ResultUnavailable
}
