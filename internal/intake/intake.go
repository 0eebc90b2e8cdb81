// Package intake assembles the grant application intake: the submission service
// and the HTTP handler the presentation shell talks to.
package intake

import (
	"log/slog"

	"grantintake/internal/intake/handler"
	"grantintake/internal/intake/service"
)

// Service runs the submission pipeline.
type Service = service.Service

// Handler wires HTTP endpoints to the intake service.
type Handler = handler.Handler

// NewService constructs the intake service with its storage dependencies.
func NewService(objects service.ObjectStorage, records service.RecordStore, opts ...service.Option) *Service {
	return service.New(objects, records, opts...)
}

// NewHandler constructs an HTTP handler for the form routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
