// Package notify fans one accepted quote submission out to the staff-facing
// channels: the summary email, the chat webhook and the automation agent wake
// signal. Channels run independently; a failed channel is logged and never
// affects the others or the submission itself.
package notify

import (
	"context"
	"sync"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
	"quotewidget_backend/platform/logger"
)

// Artifacts carries the persisted image paths a notification can attach.
type Artifacts struct {
	SnapshotPath string
	PhotoPaths   []string
}

// StaffEmailer sends the staff summary email.
type StaffEmailer interface {
	SendQuoteNotification(ctx context.Context, q *quote.Quote, crmResult crm.Result, art Artifacts) error
}

// WebhookPoster posts the chat-channel summary.
type WebhookPoster interface {
	Post(ctx context.Context, q *quote.Quote, crmResult crm.Result, art Artifacts) error
}

// WakeSignaler nudges the companion automation agent.
type WakeSignaler interface {
	Wake(ctx context.Context, q *quote.Quote) error
}

// Results reports per-channel outcomes for the submission record.
type Results struct {
	EmailSent   bool `json:"emailSent"`
	WebhookSent bool `json:"webhookSent"`
	WakeSent    bool `json:"wakeSent"`
}

// Dispatcher runs every configured channel for a submission. A nil channel
// is simply not configured and is skipped.
type Dispatcher struct {
	email   StaffEmailer
	webhook WebhookPoster
	wake    WakeSignaler
	log     *logger.Logger
}

// NewDispatcher wires the configured channels.
func NewDispatcher(email StaffEmailer, webhook WebhookPoster, wake WakeSignaler, log *logger.Logger) *Dispatcher {
	return &Dispatcher{email: email, webhook: webhook, wake: wake, log: log}
}

// Dispatch fires all channels concurrently and waits for every outcome. Each
// channel logs its own result; none blocks or fails its peers.
func (d *Dispatcher) Dispatch(ctx context.Context, q *quote.Quote, crmResult crm.Result, art Artifacts) Results {
	var (
		wg      sync.WaitGroup
		results Results
	)

	if d.email != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.email.SendQuoteNotification(ctx, q, crmResult, art)
			d.log.ChannelResult("staff_email", err == nil, err)
			results.EmailSent = err == nil
		}()
	}

	if d.webhook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.webhook.Post(ctx, q, crmResult, art)
			d.log.ChannelResult("chat_webhook", err == nil, err)
			results.WebhookSent = err == nil
		}()
	}

	if d.wake != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.wake.Wake(ctx, q)
			d.log.ChannelResult("agent_wake", err == nil, err)
			results.WakeSent = err == nil
		}()
	}

	wg.Wait()
	return results
}
