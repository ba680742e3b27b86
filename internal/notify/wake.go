package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quotewidget_backend/internal/quote"
)

// WakeSender nudges the companion automation agent over its gateway with a
// short natural-language line about the new submission.
type WakeSender struct {
	url   string
	token string
	http  *http.Client
}

// NewWakeSender creates a sender for the given gateway URL.
func NewWakeSender(url, token string) *WakeSender {
	return &WakeSender{
		url:   url,
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Wake posts the summary line. Fire-and-forget from the pipeline's point of
// view; the caller only logs the outcome.
func (w *WakeSender) Wake(ctx context.Context, q *quote.Quote) error {
	payload, err := json.Marshal(map[string]string{"text": BuildWakeSummary(q)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("wake signal: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wake gateway returned %d", resp.StatusCode)
	}
	return nil
}
