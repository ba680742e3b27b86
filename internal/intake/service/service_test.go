package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/notify"
	"quotewidget_backend/internal/quote"
	"quotewidget_backend/internal/store"
	"quotewidget_backend/platform/apperr"
	"quotewidget_backend/platform/logger"
)

type fakeResolver struct {
	ops *[]string
	img []byte
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, _ *quote.Quote) ([]byte, error) {
	*f.ops = append(*f.ops, "resolve")
	return f.img, f.err
}

type fakeCRM struct {
	ops    *[]string
	result crm.Result
	got    *quote.Quote
}

func (f *fakeCRM) ProcessQuote(_ context.Context, q *quote.Quote) crm.Result {
	*f.ops = append(*f.ops, "crm")
	f.got = q
	return f.result
}

type fakeNotifier struct {
	ops    *[]string
	art    notify.Artifacts
	crmRes crm.Result
	called bool
}

func (f *fakeNotifier) Dispatch(_ context.Context, _ *quote.Quote, crmResult crm.Result, art notify.Artifacts) notify.Results {
	*f.ops = append(*f.ops, "notify")
	f.called = true
	f.art = art
	f.crmRes = crmResult
	return notify.Results{}
}

type failingLog struct{}

func (failingLog) Append(store.SubmissionRecord) (int, error) {
	return 0, errors.New("disk full")
}

func (failingLog) All() ([]store.SubmissionRecord, error) { return nil, nil }

type testEnv struct {
	svc             *Service
	resolver        *fakeResolver
	crm             *fakeCRM
	notifier        *fakeNotifier
	ops             *[]string
	submissionsFile string
	pending         *store.NotificationStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	ops := &[]string{}
	resolver := &fakeResolver{ops: ops, err: errors.New("no snapshot source")}
	processor := &fakeCRM{ops: ops}
	notifier := &fakeNotifier{ops: ops}

	submissionsFile := filepath.Join(dir, "quote-requests.json")
	submissions := store.NewSubmissionStore(submissionsFile)
	pending := store.NewNotificationStore(filepath.Join(dir, "pending-notifications.json"))
	artifacts := store.NewArtifactStore(filepath.Join(dir, "snapshots"), filepath.Join(dir, "photos"))

	svc := New(resolver, processor, notifier, artifacts, submissions, pending, logger.New("development"))
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	return &testEnv{
		svc:             svc,
		resolver:        resolver,
		crm:             processor,
		notifier:        notifier,
		ops:             ops,
		submissionsFile: submissionsFile,
		pending:         pending,
	}
}

func decodeServices(t *testing.T, raw string) quote.Services {
	t.Helper()
	var s quote.Services
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("decode services: %v", err)
	}
	return s
}

func TestSubmit_CRMDisabledStillLogsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.crm.result = crm.Result{CopilotEnabled: false}

	q := &quote.Quote{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Services: decodeServices(t, `{"mowing":true,"mulch":"black"}`),
		LawnSqft: 1500,
	}

	result, err := env.svc.Submit(context.Background(), q)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
	if result.CopilotCustomerID != "" {
		t.Errorf("no CRM customer expected, got %q", result.CopilotCustomerID)
	}
	if !env.notifier.called {
		t.Error("staff notification must still be attempted")
	}

	raw, err := os.ReadFile(env.submissionsFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, key := range []string{"snapshotPath", "photoPaths", "copilotCustomerId"} {
		if strings.Contains(string(raw), key) {
			t.Errorf("log must omit %q when absent:\n%s", key, raw)
		}
	}
}

func TestSubmit_StageOrder(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.err = nil
	env.resolver.img = []byte("fake-png-with-enough-bytes")

	_, err := env.svc.Submit(context.Background(), &quote.Quote{Name: "X", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := strings.Join(*env.ops, ",")
	want := "resolve,crm,notify"
	if got != want {
		t.Fatalf("stage order = %s, want %s", got, want)
	}
	if env.notifier.art.SnapshotPath == "" {
		t.Error("snapshot must be persisted before notify runs")
	}
}

func TestSubmit_CRMOutcomeFlowsToRecordAndQueue(t *testing.T) {
	env := newTestEnv(t)
	env.crm.result = crm.Result{
		CopilotEnabled: true,
		Customer:       &crm.OpResult{Success: true, CustomerID: "100"},
		Property:       &crm.OpResult{Success: true, PropertyID: "200"},
	}

	result, err := env.svc.Submit(context.Background(), &quote.Quote{Name: "Jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CopilotCustomerID != "100" {
		t.Errorf("customer ID = %q, want 100", result.CopilotCustomerID)
	}

	records, err := env.svc.Quotes()
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].CopilotCustomerID != "100" || records[0].CopilotPropertyID != "200" {
		t.Errorf("record CRM ids = %q/%q", records[0].CopilotCustomerID, records[0].CopilotPropertyID)
	}

	pending, err := env.svc.PendingNotifications()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending record, got %d", len(pending))
	}
	if pending[0].Copilot == nil || !pending[0].Copilot.Success || pending[0].Copilot.CustomerID != "100" {
		t.Errorf("pending CRM outcome = %+v", pending[0].Copilot)
	}
}

func TestSubmit_CRMFailureStillRecorded(t *testing.T) {
	env := newTestEnv(t)
	env.crm.result = crm.Result{
		CopilotEnabled: true,
		Customer:       &crm.OpResult{Success: false, Error: "duplicate email"},
	}

	result, err := env.svc.Submit(context.Background(), &quote.Quote{Name: "Jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("a CRM failure must not fail the submission: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
	if result.CopilotCustomerID != "" {
		t.Errorf("failed CRM create must not yield an ID, got %q", result.CopilotCustomerID)
	}

	pending, _ := env.svc.PendingNotifications()
	if len(pending) != 1 || pending[0].Copilot == nil || pending[0].Copilot.Success {
		t.Errorf("pending record must carry the failed CRM outcome: %+v", pending)
	}
}

func TestSubmit_SanitizesFreeText(t *testing.T) {
	env := newTestEnv(t)

	q := &quote.Quote{
		Name:  "Jane <b>Doe</b>",
		Email: "jane@example.com",
		Notes: `<script>alert(1)</script>Trim the bushes`,
	}
	if _, err := env.svc.Submit(context.Background(), q); err != nil {
		t.Fatalf("submit: %v", err)
	}

	records, _ := env.svc.Quotes()
	if records[0].Name != "Jane Doe" {
		t.Errorf("name not sanitized: %q", records[0].Name)
	}
	if records[0].Notes != "alert(1)Trim the bushes" {
		t.Errorf("notes not sanitized: %q", records[0].Notes)
	}
}

func TestSubmit_AssignsIdentityAndTimestamp(t *testing.T) {
	env := newTestEnv(t)

	q := &quote.Quote{Name: "Jane", Email: "jane@example.com"}
	if _, err := env.svc.Submit(context.Background(), q); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if q.SubmissionID == "" {
		t.Error("submission ID must be assigned")
	}
	if q.Timestamp.IsZero() {
		t.Error("timestamp must be stamped when the client omits one")
	}
	if env.crm.got.SubmissionID != q.SubmissionID {
		t.Error("CRM stage must see the stamped quote")
	}

	supplied := &quote.Quote{Name: "Jane", Email: "jane@example.com", SubmissionID: "client-supplied-123"}
	if _, err := env.svc.Submit(context.Background(), supplied); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if supplied.SubmissionID != "client-supplied-123" {
		t.Errorf("caller-supplied submission ID must be kept, got %q", supplied.SubmissionID)
	}
	records, err := env.svc.Quotes()
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if len(records) != 2 || records[1].SubmissionID != "client-supplied-123" {
		t.Errorf("logged records = %+v, want the client's own submission ID last", records)
	}
}

func TestSubmit_ClientTimestampKept(t *testing.T) {
	env := newTestEnv(t)

	sent := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	q := &quote.Quote{Name: "Jane", Timestamp: quote.FlexTime{Time: sent}}
	if _, err := env.svc.Submit(context.Background(), q); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !q.Timestamp.Equal(sent) {
		t.Errorf("client timestamp must be kept, got %v", q.Timestamp)
	}
}

func TestSubmit_LogWriteFailureFailsRequest(t *testing.T) {
	env := newTestEnv(t)
	env.svc.submissions = failingLog{}

	_, err := env.svc.Submit(context.Background(), &quote.Quote{Name: "Jane"})
	if err == nil {
		t.Fatal("an unrecorded submission must fail the request")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Errorf("expected an internal error, got %v", err)
	}
}

func TestSubmit_PhotosSavedAndAttached(t *testing.T) {
	env := newTestEnv(t)

	payload := "base64-decodes-fine"
	q := &quote.Quote{
		Name:  "Jane",
		Email: "jane@example.com",
		Photos: []quote.Photo{
			{Type: "image/jpeg", Data: encodeB64(payload)},
			{Type: "image/png", Data: encodeB64(payload)},
		},
	}
	if _, err := env.svc.Submit(context.Background(), q); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(env.notifier.art.PhotoPaths) != 2 {
		t.Fatalf("expected 2 photo paths, got %v", env.notifier.art.PhotoPaths)
	}

	records, _ := env.svc.Quotes()
	if len(records[0].PhotoPaths) != 2 {
		t.Errorf("record photo paths = %v", records[0].PhotoPaths)
	}
	if len(records[0].Photos) != 0 {
		t.Error("raw photo data must never be persisted")
	}
}

func TestMarkNotified_UnknownTimestampIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Submit(context.Background(), &quote.Quote{Name: "Jane"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.svc.MarkNotified("2000-01-01T00:00:00Z"); err != nil {
		t.Fatalf("unknown timestamp must be a no-op: %v", err)
	}

	pending, _ := env.svc.PendingNotifications()
	if len(pending) != 1 {
		t.Fatalf("record must stay pending, got %d", len(pending))
	}

	if err := env.svc.MarkNotified(pending[0].Timestamp); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	pending, _ = env.svc.PendingNotifications()
	if len(pending) != 0 {
		t.Fatalf("record must leave the pending set, got %d", len(pending))
	}
}

func encodeB64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
