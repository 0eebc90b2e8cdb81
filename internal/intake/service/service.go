package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"grantintake/internal/intake/metrics"
	"grantintake/internal/intake/models"
	"grantintake/internal/intake/validation"
	dErrors "grantintake/pkg/domain-errors"
	"grantintake/pkg/platform/sentinel"
	"grantintake/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// ObjectStorage holds uploaded support letters. Upload always overwrites an
// existing object of the same name.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, name string, content io.Reader, contentType string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	PublicURL(bucket, name string) string
}

// RecordStore persists one record per successful submission.
type RecordStore interface {
	Insert(ctx context.Context, table string, payload *models.Payload) (*models.Record, error)
}

// Notifier forwards a payload to best-effort targets. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, payload *models.Payload)
}

// InFlightGuard rejects a second concurrent submission for the same key.
// Acquire returns sentinel.ErrInFlight when the key is held.
type InFlightGuard interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// Default bounds for outbound work. The notify bound covers every target in
// sequence.
const (
	DefaultStepTimeout   = 30 * time.Second
	DefaultNotifyTimeout = 30 * time.Second
)

const (
	stepUpload = "upload"
	stepVerify = "verify"
	stepNotify = "notify"
	stepInsert = "insert"
)

// Service runs the submission pipeline: upload, verify, resolve URL, normalize,
// notify, insert.
type Service struct {
	objects  ObjectStorage
	records  RecordStore
	variants map[string]models.Variant
	notifier Notifier
	guard    InFlightGuard
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	stepTimeout   time.Duration
	notifyTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithGuard enables duplicate-submit rejection keyed by draft ID.
func WithGuard(g InFlightGuard) Option {
	return func(s *Service) {
		s.guard = g
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithStepTimeout bounds each upload, verify and insert call.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithNotifyTimeout bounds the whole notification step.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithVariants replaces the built-in form variants.
func WithVariants(variants map[string]models.Variant) Option {
	return func(s *Service) {
		if len(variants) > 0 {
			s.variants = variants
		}
	}
}

// New constructs a Service.
func New(objects ObjectStorage, records RecordStore, opts ...Option) *Service {
	s := &Service{
		objects:  objects,
		records:  records,
		variants: models.DefaultVariants(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("grantintake/internal/intake/service"),

		stepTimeout:   DefaultStepTimeout,
		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Variant returns the named form variant.
func (s *Service) Variant(name string) (models.Variant, bool) {
	v, ok := s.variants[name]
	return v, ok
}

// Submit persists a validated draft. Steps run strictly in order and nothing is
// retried: a failed upload or listing aborts before any notification or insert;
// notification failures never affect the result; a failed insert leaves the
// uploaded object in place.
//
// Once called, a submission runs to completion: cancelling ctx has no effect and
// only the per-step timeouts bound the outbound calls.
func (s *Service) Submit(ctx context.Context, draft *models.Draft) (*models.Record, error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "intake.Submit", trace.WithAttributes(
		attribute.String("draft.id", draft.ID),
		attribute.String("form.variant", draft.Variant),
	))
	defer span.End()

	rec, err := s.submit(ctx, draft)
	s.observeSubmission(draft.Variant, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("record.id", rec.ID))
	return rec, nil
}

func (s *Service) submit(ctx context.Context, draft *models.Draft) (*models.Record, error) {
	variant, ok := s.variants[draft.Variant]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown form variant")
	}
	if draft.Attachment == nil || draft.Attachment.Content == nil {
		return nil, dErrors.New(dErrors.CodeValidation, validation.MsgAttachmentRequired)
	}

	release, err := s.acquire(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	obj, err := s.storeAttachment(ctx, variant, draft)
	if err != nil {
		return nil, err
	}

	payload := NewPayload(draft, obj.PublicURL)

	if s.notifier != nil {
		_ = s.step(ctx, stepNotify, s.notifyTimeout, func(ctx context.Context) error {
			s.notifier.Notify(ctx, &payload)
			return nil
		})
	}

	var rec *models.Record
	err = s.step(ctx, stepInsert, s.stepTimeout, func(ctx context.Context) error {
		var insertErr error
		rec, insertErr = s.records.Insert(ctx, variant.Table, &payload)
		return insertErr
	})
	if err != nil {
		// the object stays in storage; the next attempt overwrites it
		s.logger.ErrorContext(ctx, "failed to insert application record",
			"error", err,
			"draft_id", draft.ID,
			"object", obj.Name,
		)
		return nil, dErrors.Wrap(fmt.Errorf("%w: %w", ErrPersistence, err), dErrors.CodeUpstream, persistenceMessage(err))
	}

	s.logAudit(ctx, "application_submitted",
		"record_id", rec.ID,
		"draft_id", draft.ID,
		"variant", variant.Name,
		"object", obj.Name,
	)
	return rec, nil
}

func (s *Service) acquire(ctx context.Context, draftID string) (func(), error) {
	noop := func() {}
	if s.guard == nil || draftID == "" {
		return noop, nil
	}
	err := s.guard.Acquire(ctx, draftID)
	switch {
	case errors.Is(err, sentinel.ErrInFlight):
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, MsgAlreadySubmitted)
	case err != nil:
		// an unreachable guard must not block intake
		s.logger.WarnContext(ctx, "in-flight guard unavailable", "error", err, "draft_id", draftID)
		return noop, nil
	}
	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), draftID); err != nil {
			s.logger.WarnContext(ctx, "failed to release in-flight guard", "error", err, "draft_id", draftID)
		}
	}, nil
}

// storeAttachment uploads the support letter, confirms it through a listing and
// resolves its public URL.
func (s *Service) storeAttachment(ctx context.Context, variant models.Variant, draft *models.Draft) (*models.StoredObject, error) {
	att := draft.Attachment
	name := ObjectName(draft.FullName, att)

	err := s.step(ctx, stepUpload, s.stepTimeout, func(ctx context.Context) error {
		if _, err := att.Content.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind attachment: %w", err)
		}
		return s.objects.Upload(ctx, variant.Bucket, name, att.Content, att.ContentType)
	})
	if err != nil {
		return nil, s.uploadFailed(ctx, name, err)
	}

	err = s.step(ctx, stepVerify, s.stepTimeout, func(ctx context.Context) error {
		names, err := s.objects.List(ctx, variant.Bucket, name)
		if err != nil {
			return err
		}
		if !slices.Contains(names, name) {
			return errObjectMissing
		}
		return nil
	})
	if err != nil {
		return nil, s.uploadFailed(ctx, name, err)
	}

	return &models.StoredObject{
		Name:      name,
		Bucket:    variant.Bucket,
		PublicURL: s.objects.PublicURL(variant.Bucket, name),
	}, nil
}

func (s *Service) uploadFailed(ctx context.Context, name string, err error) error {
	s.logger.ErrorContext(ctx, "failed to store support letter", "error", err, "object", name)
	return dErrors.Wrap(fmt.Errorf("%w: %w", ErrAttachmentUpload, err), dErrors.CodeUpstream, MsgUploadFailed)
}

func (s *Service) step(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "intake."+name)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if s.metrics != nil {
		s.metrics.ObserveStep(name, start)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Service) observeSubmission(variant string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSubmission(start)
	s.metrics.IncrementSubmission(variant, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSucceeded
	case errors.Is(err, ErrAttachmentUpload):
		return metrics.OutcomeUploadFailed
	case errors.Is(err, ErrPersistence):
		return metrics.OutcomeInsertFailed
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return metrics.OutcomeConflict
	case dErrors.HasCode(err, dErrors.CodeValidation), dErrors.HasCode(err, dErrors.CodeNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeInternalFailed
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes,
		"event", event,
		"log_type", "audit",
		"at", requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	)
	s.logger.InfoContext(ctx, event, args...)
}
