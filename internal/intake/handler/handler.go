// Package handler exposes the intake HTTP endpoints.
package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quotewidget_backend/internal/intake/service"
	"quotewidget_backend/internal/intake/transport"
	"quotewidget_backend/internal/quote"
	"quotewidget_backend/platform/httpkit"
	"quotewidget_backend/platform/validator"
)

const msgInvalidRequest = "invalid request body"

// Handler handles the public intake routes. Everything here is
// unauthenticated; the rate limiter on the submit route is the only brake.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the intake handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the intake routes. The limiter applies only to the
// submission endpoints; the read endpoints serve the companion agent and the
// operator dashboard.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limiter gin.HandlerFunc) {
	rg.POST("/quote-request", limiter, h.Submit)
	// Legacy alias kept for older embeds of the widget.
	rg.POST("/quote", limiter, h.Submit)

	rg.GET("/quotes", h.ListQuotes)
	rg.GET("/pending-notifications", h.PendingNotifications)
	rg.POST("/mark-notified", h.MarkNotified)
	rg.GET("/snapshots", h.ListSnapshots)
	rg.GET("/snapshot/*path", h.Snapshot)
	rg.GET("/photo/*path", h.Photo)
}

// Submit handles POST /api/quote-request.
func (h *Handler) Submit(c *gin.Context) {
	var q quote.Quote
	if err := c.ShouldBindJSON(&q); err != nil {
		// The widget surfaces the parse error to the customer, so the raw
		// message rides along with the generic one.
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), &q)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SubmitResponse{
		Success:           true,
		Total:             result.Total,
		CopilotCustomerID: result.CopilotCustomerID,
	})
}

// ListQuotes handles GET /api/quotes.
func (h *Handler) ListQuotes(c *gin.Context) {
	quotes, err := h.svc.Quotes()
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quotes)
}

// PendingNotifications handles GET /api/pending-notifications.
func (h *Handler) PendingNotifications(c *gin.Context) {
	pending, err := h.svc.PendingNotifications()
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pending)
}

// MarkNotified handles POST /api/mark-notified.
func (h *Handler) MarkNotified(c *gin.Context) {
	var req transport.MarkNotifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "timestamp is required", nil)
		return
	}

	if err := h.svc.MarkNotified(req.Timestamp); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}

// ListSnapshots handles GET /api/snapshots.
func (h *Handler) ListSnapshots(c *gin.Context) {
	snapshots, err := h.svc.ListSnapshots()
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snapshots)
}

// Snapshot handles GET /api/snapshot/*path.
func (h *Handler) Snapshot(c *gin.Context) {
	h.serveArtifact(c, h.svc.SnapshotFile)
}

// Photo handles GET /api/photo/*path.
func (h *Handler) Photo(c *gin.Context) {
	h.serveArtifact(c, h.svc.PhotoFile)
}

func (h *Handler) serveArtifact(c *gin.Context, resolve func(string) (string, error)) {
	relPath := strings.TrimPrefix(c.Param("path"), "/")
	if relPath == "" {
		httpkit.Error(c, http.StatusNotFound, "not found", nil)
		return
	}

	full, err := resolve(relPath)
	if httpkit.HandleError(c, err) {
		return
	}
	c.File(full)
}
