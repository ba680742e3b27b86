package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiResponse is the parsed body of one CRM call. The CRM answers with
// loosely-typed JSON ({status, id, errmsg, msg, ...}); a non-JSON body is
// kept raw and treated as a failure, never as an error.
type apiResponse struct {
	fields map[string]any
	raw    string
}

// StatusOK applies the CRM's truthiness convention to the status flag:
// booleans directly, numbers non-zero, strings non-empty.
func (r apiResponse) StatusOK() bool {
	switch v := r.fields["status"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "false" && v != "0"
	default:
		return false
	}
}

// StatusIs reports whether the status flag is exactly the given word. The
// email and SMS relays answer a keyword ("valid", "sent") rather than a
// truthy flag; anything else, including other non-empty strings, is failure.
func (r apiResponse) StatusIs(want string) bool {
	s, ok := r.fields["status"].(string)
	return ok && s == want
}

// ID returns the created-record identifier as a string, whichever JSON type
// the CRM used for it.
func (r apiResponse) ID() string {
	switch v := r.fields["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// ErrMsg returns the CRM's error message, falling back to the raw body.
func (r apiResponse) ErrMsg() string {
	for _, key := range []string{"errmsg", "msg", "error"} {
		if s, ok := r.fields[key].(string); ok && s != "" {
			return s
		}
	}
	if r.raw != "" {
		return r.raw
	}
	return "unknown error"
}

const rawBodyLimit = 1000

// client performs form-encoded calls against the CRM with session cookies.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func cookieHeader(c Cookies) string {
	return fmt.Sprintf("instantinvoices=%s; copilotApiAccessToken=%s", c.InstantInvoices, c.AccessToken)
}

// postForm sends a form-encoded POST and parses the JSON reply. Transport
// errors are returned; a non-JSON body is a soft failure carried in the
// response. The Referer and X-Requested-With headers are part of the CRM's
// implicit contract.
func (c *client) postForm(ctx context.Context, endpoint string, data url.Values, cookies Cookies, referer string) (apiResponse, error) {
	if referer == "" {
		referer = c.baseURL + "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return apiResponse{}, err
	}
	req.Header.Set("Cookie", cookieHeader(cookies))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Referer", referer)

	resp, err := c.http.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("crm request %s: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("crm response %s: %w", endpoint, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		raw := string(body)
		if len(raw) > rawBodyLimit {
			raw = raw[:rawBodyLimit]
		}
		return apiResponse{fields: map[string]any{"status": false}, raw: raw}, nil
	}
	return apiResponse{fields: fields}, nil
}

// getJSON performs an authenticated GET returning raw JSON (global search).
func (c *client) getJSON(ctx context.Context, path string, cookies Cookies) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", cookieHeader(cookies))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		if len(body) > rawBodyLimit {
			body = body[:rawBodyLimit]
		}
		return nil, fmt.Errorf("crm returned non-JSON body: %s", body)
	}
	return body, nil
}
