package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on the submissions counter.
const (
	OutcomeSucceeded      = "succeeded"
	OutcomeUploadFailed   = "upload_failed"
	OutcomeInsertFailed   = "insert_failed"
	OutcomeConflict       = "conflict"
	OutcomeRejected       = "rejected"
	OutcomeInternalFailed = "internal_error"
)

var stepBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics provides observability for the intake module.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	StepDuration       *prometheus.HistogramVec
	NotifyFailures     *prometheus.CounterVec
	NotifyDeliveries   *prometheus.CounterVec
}

// New registers the intake metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the intake metrics on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grantintake_submissions_total",
			Help: "Application submissions by outcome",
		}, []string{"variant", "outcome"}),
		SubmissionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantintake_submission_duration_seconds",
			Help:    "End-to-end duration of a submission",
			Buckets: stepBuckets,
		}),
		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grantintake_submission_step_duration_seconds",
			Help:    "Duration of each submission step (upload, verify, notify, insert)",
			Buckets: stepBuckets,
		}, []string{"step"}),
		NotifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grantintake_notify_failures_total",
			Help: "Best-effort notification failures by target",
		}, []string{"target"}),
		NotifyDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "grantintake_notify_deliveries_total",
			Help: "Successful best-effort notification deliveries by target",
		}, []string{"target"}),
	}
}

// IncrementSubmission records one submission outcome.
func (m *Metrics) IncrementSubmission(variant, outcome string) {
	m.Submissions.WithLabelValues(variant, outcome).Inc()
}

// ObserveSubmission records the end-to-end duration. Call with time.Now() at
// the start of the operation.
func (m *Metrics) ObserveSubmission(start time.Time) {
	m.SubmissionDuration.Observe(time.Since(start).Seconds())
}

// ObserveStep records the duration of one orchestrator step.
func (m *Metrics) ObserveStep(step string, start time.Time) {
	m.StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementNotifyFailure(target string) {
	m.NotifyFailures.WithLabelValues(target).Inc()
}

func (m *Metrics) IncrementNotifyDelivery(target string) {
	m.NotifyDeliveries.WithLabelValues(target).Inc()
}
