// Package transport defines the request/response DTOs for the intake API.
package transport

// SubmitResponse is returned for an accepted quote submission. Total is the
// running count of logged submissions; the CRM customer ID is present only
// when the integration created one.
type SubmitResponse struct {
	Success           bool   `json:"success"`
	Total             int    `json:"total"`
	CopilotCustomerID string `json:"copilotCustomerId,omitempty"`
}

// MarkNotifiedRequest identifies a pending notification by its timestamp.
type MarkNotifiedRequest struct {
	Timestamp string `json:"timestamp" validate:"required"`
}
