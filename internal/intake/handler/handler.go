package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"grantintake/internal/intake/form"
	"grantintake/internal/intake/models"
	"grantintake/internal/intake/validation"
	dErrors "grantintake/pkg/domain-errors"
	"grantintake/pkg/platform/httputil"
	"grantintake/pkg/requestcontext"
)

const (
	// multipartMemory is how much of an upload is buffered before spilling to disk.
	multipartMemory = 8 << 20
	// bodySlack allows the text fields and multipart framing on top of the
	// attachment ceiling, so a slightly oversized file still gets a field error.
	bodySlack = 2 << 20

	fileField    = "support_letter"
	draftIDField = "draft_id"
)

// Service defines the intake operations the handler needs.
type Service interface {
	Variant(name string) (models.Variant, bool)
	Submit(ctx context.Context, draft *models.Draft) (*models.Record, error)
}

// Handler wires the form endpoints used by the presentation shell.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an intake handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts intake endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/forms/{variant}", func(r chi.Router) {
		r.Get("/", h.HandleDescribe)
		r.Post("/validate", h.HandleValidate)
		r.Post("/applications", h.HandleSubmit)
	})
}

// HandleDescribe handles GET /api/forms/{variant}.
func (h *Handler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVariant(variant))
}

// HandleValidate handles POST /api/forms/{variant}/validate. Only the fields
// present in the body are reported on.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ctrl := form.New(validation.NewSchema(variant))
	if err := ctrl.SetAll(req.Values); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ValidateResponse{
		Errors:                 ctrl.Errors().Strings(),
		ShowPreviousGrantUsage: ctrl.ShowPreviousGrantUsage(),
	})
}

// HandleSubmit handles POST /api/forms/{variant}/applications.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	variant, ok := h.variant(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, variant.MaxAttachmentBytes+bodySlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.WarnContext(ctx, "failed to parse application form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, multipartError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	values := make(map[string]string, len(r.MultipartForm.Value))
	for name, vs := range r.MultipartForm.Value {
		if name == draftIDField || len(vs) == 0 {
			continue
		}
		values[name] = vs[0]
	}

	ctrl := form.New(validation.NewSchema(variant), form.WithDraftID(r.FormValue(draftIDField)))
	if err := ctrl.SetAll(values); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error()))
		return
	}

	file, header, err := r.FormFile(fileField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// reported by the schema on submit
	case err != nil:
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "Could not read support letter"))
		return
	default:
		defer file.Close()
		att, err := attachmentFrom(file, header)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "Could not read support letter"))
			return
		}
		ctrl.Attach(att)
	}

	// the pipeline outlives the request once started
	rec, err := ctrl.Submit(context.WithoutCancel(ctx), h.service, nil)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteErrorWithFields(w, err, verr.Errors.Strings())
			return
		}
		h.logger.ErrorContext(ctx, "application submission failed",
			"request_id", requestID,
			"variant", variant.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application submitted",
		"request_id", requestID,
		"variant", variant.Name,
		"record_id", rec.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

func (h *Handler) variant(w http.ResponseWriter, r *http.Request) (models.Variant, bool) {
	v, ok := h.service.Variant(chi.URLParam(r, "variant"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown form variant"))
		return models.Variant{}, false
	}
	return v, true
}

// attachmentFrom builds the draft attachment from an uploaded part. A missing or
// generic content type is replaced by the sniffed one.
func attachmentFrom(file multipart.File, header *multipart.FileHeader) (*models.Attachment, error) {
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		mt, err := mimetype.DetectReader(file)
		if err != nil {
			return nil, err
		}
		contentType = mt.String()
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}
	return &models.Attachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	}, nil
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Request is too large")
	}
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid multipart form")
}
