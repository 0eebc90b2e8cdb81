// Package form tracks the state of one application form: current values,
// per-field errors, conditional visibility and the submission lifecycle.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"grantintake/internal/intake/models"
	"grantintake/internal/intake/validation"
	dErrors "grantintake/pkg/domain-errors"
)

// Status is the lifecycle state the shell renders.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Messages for raw field values that fail to parse.
const (
	MsgInvalidDate    = "Please enter a valid date"
	MsgInvalidBoolean = "Please choose yes or no"
)

var (
	ErrUnknownField        = errors.New("unknown form field")
	ErrSubmitInProgress    = errors.New("a submission is already in progress")
	errAttachmentViaSetter = errors.New("support letter must be attached as a file")
)

// Submitter persists a validated draft.
type Submitter interface {
	Submit(ctx context.Context, draft *models.Draft) (*models.Record, error)
}

// ValidationError carries the per-field messages that blocked a submit.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for _, f := range validation.Fields {
		if _, ok := e.Errors[f]; ok {
			fields = append(fields, string(f))
		}
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// Controller is safe for concurrent use; the network part of Submit runs without
// holding the lock so Status can be polled while a submission is in flight.
type Controller struct {
	mu        sync.Mutex
	schema    *validation.Schema
	draft     *models.Draft
	parseErrs validation.Errors
	touched   map[validation.Field]bool
	submitted bool
	errors    validation.Errors
	status    Status
	lastErr   error
}

type Option func(c *Controller)

// WithDraftID keeps a shell-supplied draft identifier instead of generating one.
func WithDraftID(id string) Option {
	return func(c *Controller) {
		if id = strings.TrimSpace(id); id != "" {
			c.draft.ID = id
		}
	}
}

// New returns an idle controller with an empty draft for the schema's variant.
func New(schema *validation.Schema, opts ...Option) *Controller {
	c := &Controller{schema: schema}
	c.resetLocked()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) resetLocked() {
	c.draft = &models.Draft{ID: uuid.NewString(), Variant: c.schema.Variant().Name}
	c.parseErrs = validation.Errors{}
	c.touched = map[validation.Field]bool{}
	c.submitted = false
	c.errors = validation.Errors{}
	c.status = StatusIdle
	c.lastErr = nil
}

// Set applies a raw edit to field and recomputes errors.
func (c *Controller) Set(field validation.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.applyLocked(field, value); err != nil {
		return err
	}
	c.touched[field] = true
	c.recomputeLocked()
	return nil
}

// SetAll applies several edits at once; unknown fields are rejected before any
// value is applied.
func (c *Controller) SetAll(values map[string]string) error {
	fields := make(map[validation.Field]string, len(values))
	for name, v := range values {
		f, ok := validation.ParseField(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		if f == validation.FieldSupportLetter {
			return errAttachmentViaSetter
		}
		fields[f] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for f, v := range fields {
		if err := c.applyLocked(f, v); err != nil {
			return err
		}
		c.touched[f] = true
	}
	c.recomputeLocked()
	return nil
}

// Attach sets the supporting document and revalidates.
func (c *Controller) Attach(att *models.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Attachment = att
	c.touched[validation.FieldSupportLetter] = true
	c.recomputeLocked()
}

func (c *Controller) applyLocked(field validation.Field, value string) error {
	d := c.draft
	delete(c.parseErrs, field)

	switch field {
	case validation.FieldFullName:
		d.FullName = value
	case validation.FieldStreet:
		d.Street = value
	case validation.FieldCity:
		d.City = value
	case validation.FieldPostalCode:
		d.PostalCode = value
	case validation.FieldEmail:
		d.Email = value
	case validation.FieldPhoneNumber:
		d.PhoneNumber = value
	case validation.FieldFundsUsage:
		d.FundsUsage = value
	case validation.FieldPreviousGrantUsage:
		d.PreviousGrantUsage = value
	case validation.FieldProvince:
		p, err := models.ParseProvince(value)
		if err != nil {
			// keep the raw value so the schema reports it
			p = models.Province(strings.ToUpper(strings.TrimSpace(value)))
		}
		d.Province = p
	case validation.FieldDateOfBirth:
		d.DateOfBirth = c.parseDate(field, value)
	case validation.FieldGrantRequestedDate:
		d.GrantRequestedDate = c.parseDate(field, value)
	case validation.FieldIsForDependent:
		if b, ok := c.parseBool(field, value); ok {
			d.IsForDependent = &b
		} else {
			d.IsForDependent = nil
		}
	case validation.FieldPreviousGrant:
		b, _ := c.parseBool(field, value)
		d.PreviousGrant = b
	case validation.FieldAttestation:
		b, _ := c.parseBool(field, value)
		d.Attestation = b
	case validation.FieldSupportLetter:
		return errAttachmentViaSetter
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func (c *Controller) parseDate(field validation.Field, value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		c.parseErrs[field] = MsgInvalidDate
		return nil
	}
	return &t
}

// parseBool accepts the values HTML checkboxes and selects send. An empty value
// is false.
func (c *Controller) parseBool(field validation.Field, value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "yes", "1":
		return true, true
	case "false", "off", "no", "0":
		return false, true
	case "":
		return false, false
	default:
		c.parseErrs[field] = MsgInvalidBoolean
		return false, false
	}
}

// recomputeLocked rebuilds the visible error set. Before the first submit attempt
// only touched fields report errors.
func (c *Controller) recomputeLocked() {
	all := c.schema.Validate(c.draft)
	for f, msg := range c.parseErrs {
		all[f] = msg
	}
	visible := validation.Errors{}
	for f, msg := range all {
		if c.submitted || c.touched[f] || (f == validation.FieldPreviousGrantUsage && c.touched[validation.FieldPreviousGrant]) {
			visible[f] = msg
		}
	}
	c.errors = visible
}

// Errors returns a copy of the current visible errors.
func (c *Controller) Errors() validation.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(validation.Errors, len(c.errors))
	for f, msg := range c.errors {
		out[f] = msg
	}
	return out
}

// ShowPreviousGrantUsage reports whether the follow-up field should be rendered.
func (c *Controller) ShowPreviousGrantUsage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.PreviousGrant
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() models.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.draft
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError is the single user-facing error slot; a later failure replaces it.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reset discards the draft and returns to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Submit validates the whole draft and hands it to sub. Nothing reaches sub while
// any field fails. On success the draft is cleared and onSuccess runs once; on
// failure the draft is kept so the applicant can retry.
func (c *Controller) Submit(ctx context.Context, sub Submitter, onSuccess func(*models.Record)) (*models.Record, error) {
	c.mu.Lock()
	if c.status == StatusSubmitting {
		c.mu.Unlock()
		return nil, dErrors.Wrap(ErrSubmitInProgress, dErrors.CodeConflict, "This application is already being submitted")
	}
	c.submitted = true
	c.recomputeLocked()
	if c.errors.HasErrors() {
		verr := &ValidationError{Errors: make(validation.Errors, len(c.errors))}
		for f, msg := range c.errors {
			verr.Errors[f] = msg
		}
		c.mu.Unlock()
		return nil, dErrors.Wrap(verr, dErrors.CodeValidation, "Please correct the highlighted fields")
	}
	draft := *c.draft
	c.status = StatusSubmitting
	c.mu.Unlock()

	rec, err := sub.Submit(ctx, &draft)

	c.mu.Lock()
	if err != nil {
		c.status = StatusFailed
		c.lastErr = err
		c.mu.Unlock()
		return nil, err
	}
	c.resetLocked()
	c.status = StatusSucceeded
	c.mu.Unlock()

	if onSuccess != nil {
		onSuccess(rec)
	}
	return rec, nil
}
