// Package intake provides the quote intake domain module: the public
// submission endpoint plus the read endpoints for the operator dashboard and
// the companion automation agent.
package intake

import (
	apphttp "quotewidget_backend/internal/http"
	"quotewidget_backend/internal/intake/handler"
	"quotewidget_backend/internal/intake/service"
	"quotewidget_backend/platform/logger"
	"quotewidget_backend/platform/validator"
)

// Module represents the intake domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the intake module with all pipeline stages wired.
func NewModule(
	snapshots service.SnapshotResolver,
	processor service.CRMProcessor,
	notifier service.Notifier,
	artifacts service.ArtifactStorage,
	submissions service.SubmissionLog,
	pending service.PendingQueue,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	svc := service.New(snapshots, processor, notifier, artifacts, submissions, pending, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "intake"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.API, ctx.IntakeRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
