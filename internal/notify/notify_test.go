package notify

import (
	"context"
	"errors"
	"testing"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
	"quotewidget_backend/platform/logger"
)

type fakeEmailer struct {
	called bool
	err    error
}

func (f *fakeEmailer) SendQuoteNotification(_ context.Context, _ *quote.Quote, _ crm.Result, _ Artifacts) error {
	f.called = true
	return f.err
}

type fakeWebhook struct {
	called bool
	err    error
}

func (f *fakeWebhook) Post(_ context.Context, _ *quote.Quote, _ crm.Result, _ Artifacts) error {
	f.called = true
	return f.err
}

type fakeWake struct {
	called bool
	err    error
}

func (f *fakeWake) Wake(_ context.Context, _ *quote.Quote) error {
	f.called = true
	return f.err
}

func TestDispatch_AllChannelsRun(t *testing.T) {
	email := &fakeEmailer{}
	webhook := &fakeWebhook{}
	wake := &fakeWake{}
	d := NewDispatcher(email, webhook, wake, logger.New("development"))

	results := d.Dispatch(context.Background(), &quote.Quote{Name: "X"}, crm.Result{}, Artifacts{})

	if !email.called || !webhook.called || !wake.called {
		t.Fatalf("all channels must run: email=%v webhook=%v wake=%v", email.called, webhook.called, wake.called)
	}
	if !results.EmailSent || !results.WebhookSent || !results.WakeSent {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestDispatch_FailureDoesNotBlockPeers(t *testing.T) {
	email := &fakeEmailer{err: errors.New("smtp down")}
	webhook := &fakeWebhook{}
	wake := &fakeWake{err: errors.New("gateway unreachable")}
	d := NewDispatcher(email, webhook, wake, logger.New("development"))

	results := d.Dispatch(context.Background(), &quote.Quote{Name: "X"}, crm.Result{}, Artifacts{})

	if !webhook.called {
		t.Fatal("webhook must still run when email fails")
	}
	if results.EmailSent || results.WakeSent {
		t.Fatalf("failed channels must report false: %+v", results)
	}
	if !results.WebhookSent {
		t.Fatalf("healthy channel must report true: %+v", results)
	}
}

func TestDispatch_NilChannelsSkipped(t *testing.T) {
	webhook := &fakeWebhook{}
	d := NewDispatcher(nil, webhook, nil, logger.New("development"))

	results := d.Dispatch(context.Background(), &quote.Quote{Name: "X"}, crm.Result{}, Artifacts{})

	if !webhook.called {
		t.Fatal("configured channel must run")
	}
	if results.EmailSent || results.WakeSent {
		t.Fatalf("unconfigured channels must stay false: %+v", results)
	}
}
