package crm

// OpResult is the outcome of one CRM create call.
type OpResult struct {
	Success    bool   `json:"success"`
	CustomerID string `json:"customerId,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	EstimateID string `json:"estimateId,omitempty"`
	Error      string `json:"error,omitempty"`
	Raw        string `json:"raw,omitempty"`
}

// Result is the full CRM outcome for one quote submission. It is created
// fresh per request and consumed by the notification dispatcher and the
// submission store; a disabled integration yields {CopilotEnabled: false}
// with everything else zero.
type Result struct {
	CopilotEnabled bool      `json:"copilotEnabled"`
	Customer       *OpResult `json:"customer,omitempty"`
	Property       *OpResult `json:"property,omitempty"`
	EmailSent      bool      `json:"emailSent,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// CustomerID returns the created customer's identifier, empty when customer
// creation did not succeed.
func (r Result) CustomerID() string {
	if r.Customer != nil && r.Customer.Success {
		return r.Customer.CustomerID
	}
	return ""
}

// PropertyID returns the created property's identifier, empty when property
// creation did not succeed.
func (r Result) PropertyID() string {
	if r.Property != nil && r.Property.Success {
		return r.Property.PropertyID
	}
	return ""
}
