// Package notifier forwards submitted payloads to best-effort downstream
// targets. Delivery failures are reported to a FailureSink and never returned.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"

	"grantintake/internal/intake/metrics"
	"grantintake/internal/intake/models"
)

// Target receives the JSON encoding of one payload.
type Target interface {
	Name() string
	Deliver(ctx context.Context, body []byte) error
}

// FailureSink is the error channel for failed deliveries.
type FailureSink interface {
	DeliveryFailed(ctx context.Context, target string, err error)
}

// FailureSinkFunc adapts a function to FailureSink.
type FailureSinkFunc func(ctx context.Context, target string, err error)

func (f FailureSinkFunc) DeliveryFailed(ctx context.Context, target string, err error) {
	f(ctx, target, err)
}

// Notifier delivers to its targets one after another, in registration order.
type Notifier struct {
	targets []Target
	sink    FailureSink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(n *Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithFailureSink replaces the default sink, which logs at warn level.
func WithFailureSink(sink FailureSink) Option {
	return func(n *Notifier) {
		n.sink = sink
	}
}

func New(targets []Target, opts ...Option) *Notifier {
	n := &Notifier{targets: targets, logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	if n.sink == nil {
		n.sink = FailureSinkFunc(n.logFailure)
	}
	return n
}

// Targets returns the registered target names in delivery order.
func (n *Notifier) Targets() []string {
	names := make([]string, len(n.targets))
	for i, t := range n.targets {
		names[i] = t.Name()
	}
	return names
}

// Notify encodes payload once and hands the same bytes to every target.
func (n *Notifier) Notify(ctx context.Context, payload *models.Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		for _, t := range n.targets {
			n.failed(ctx, t.Name(), err)
		}
		return
	}
	for _, t := range n.targets {
		if err := t.Deliver(ctx, body); err != nil {
			n.failed(ctx, t.Name(), err)
			continue
		}
		if n.metrics != nil {
			n.metrics.IncrementNotifyDelivery(t.Name())
		}
	}
}

func (n *Notifier) failed(ctx context.Context, target string, err error) {
	if n.metrics != nil {
		n.metrics.IncrementNotifyFailure(target)
	}
	n.sink.DeliveryFailed(ctx, target, err)
}

func (n *Notifier) logFailure(ctx context.Context, target string, err error) {
	n.logger.WarnContext(ctx, "notification delivery failed",
		"target", target,
		"error", err,
	)
}
