// Package service orchestrates the quote submission pipeline: normalize,
// persist artifacts, push to the CRM, notify staff, and log the submission.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/notify"
	"quotewidget_backend/internal/quote"
	"quotewidget_backend/internal/store"
	"quotewidget_backend/platform/apperr"
	"quotewidget_backend/platform/logger"
	"quotewidget_backend/platform/sanitize"
)

// SnapshotResolver produces the property snapshot image for a quote.
type SnapshotResolver interface {
	Resolve(ctx context.Context, q *quote.Quote) ([]byte, error)
}

// CRMProcessor pushes a quote into the CRM. Remote failures come back inside
// the result, never as an error.
type CRMProcessor interface {
	ProcessQuote(ctx context.Context, q *quote.Quote) crm.Result
}

// Notifier fans the submission out to the staff channels.
type Notifier interface {
	Dispatch(ctx context.Context, q *quote.Quote, crmResult crm.Result, art notify.Artifacts) notify.Results
}

// ArtifactStorage persists and serves the image artifacts of a submission.
type ArtifactStorage interface {
	SaveSnapshot(email, submissionID string, img []byte) (string, error)
	SavePhotos(email, submissionID string, photos []quote.Photo) ([]string, error)
	ListSnapshots() ([]store.SnapshotInfo, error)
	OpenSnapshot(relPath string) (string, error)
	OpenPhoto(relPath string) (string, error)
}

// SubmissionLog is the durable append-only log of received quotes.
type SubmissionLog interface {
	Append(rec store.SubmissionRecord) (int, error)
	All() ([]store.SubmissionRecord, error)
}

// PendingQueue is the notification queue polled by the companion agent.
type PendingQueue interface {
	Append(rec store.PendingNotification) (store.PendingNotification, error)
	Pending() ([]store.PendingNotification, error)
	MarkNotified(timestamp string) error
}

// SubmitResult is the outcome of one accepted submission.
type SubmitResult struct {
	Total             int
	CopilotCustomerID string
}

// Service runs the intake pipeline and the read-side endpoints over the
// stores. Every external stage is soft: only a failure to write the
// submission log fails the request.
type Service struct {
	snapshots   SnapshotResolver
	crm         CRMProcessor
	notifier    Notifier
	artifacts   ArtifactStorage
	submissions SubmissionLog
	pending     PendingQueue
	log         *logger.Logger
	now         func() time.Time
	newID       func() string
}

// New wires the pipeline stages.
func New(snapshots SnapshotResolver, processor CRMProcessor, notifier Notifier, artifacts ArtifactStorage, submissions SubmissionLog, pending PendingQueue, log *logger.Logger) *Service {
	return &Service{
		snapshots:   snapshots,
		crm:         processor,
		notifier:    notifier,
		artifacts:   artifacts,
		submissions: submissions,
		pending:     pending,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Submit runs the full pipeline for one quote.
//
// Stage order is load-bearing: artifacts are persisted before any external
// call so notifications can attach them, the CRM runs before notify so the
// channels can reference the created customer, and the submission log is
// written last so a logged record always reflects the completed pipeline.
func (s *Service) Submit(ctx context.Context, q *quote.Quote) (SubmitResult, error) {
	// Both identity fields are keep-or-default: a client that supplied its
	// own values can correlate them with the log and artifact filenames.
	if q.SubmissionID == "" {
		q.SubmissionID = s.newID()
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = quote.FlexTime{Time: s.now().UTC()}
	}
	sanitizeQuote(q)

	ctx = context.WithValue(ctx, logger.SubmissionIDKey, q.SubmissionID)
	log := s.log.WithSubmissionID(q.SubmissionID)

	var art notify.Artifacts
	if img, err := s.snapshots.Resolve(ctx, q); err == nil && len(img) > 0 {
		path, err := s.artifacts.SaveSnapshot(q.Email, q.SubmissionID, img)
		if err != nil {
			log.StoreError("save_snapshot", err)
		} else {
			art.SnapshotPath = path
		}
	}

	photoPaths, err := s.artifacts.SavePhotos(q.Email, q.SubmissionID, q.Photos)
	if err != nil {
		log.StoreError("save_photos", err)
	}
	art.PhotoPaths = photoPaths

	crmResult := s.crm.ProcessQuote(ctx, q)

	s.notifier.Dispatch(ctx, q, crmResult, art)

	if err := s.queueNotification(q, crmResult, art); err != nil {
		log.StoreError("queue_notification", err)
	}

	rec := store.SubmissionRecord{
		Quote:             *q,
		SnapshotPath:      art.SnapshotPath,
		PhotoPaths:        art.PhotoPaths,
		CopilotCustomerID: crmResult.CustomerID(),
		CopilotPropertyID: crmResult.PropertyID(),
	}
	total, err := s.submissions.Append(rec)
	if err != nil {
		log.StoreError("append_submission", err)
		return SubmitResult{}, apperr.Wrap(apperr.KindInternal, "failed to record submission", err)
	}

	log.Info("quote_received",
		"name", q.Name,
		"services", q.Services.Summary(),
		"total", total,
	)
	return SubmitResult{Total: total, CopilotCustomerID: crmResult.CustomerID()}, nil
}

// sanitizeQuote strips markup from the free-text fields before they reach
// HTML surfaces and CRM note fields.
func sanitizeQuote(q *quote.Quote) {
	q.Name = sanitize.Text(q.Name)
	q.Address = sanitize.Text(q.Address)
	q.Notes = sanitize.Text(q.Notes)
	q.PropertyNotes = sanitize.Text(q.PropertyNotes)
	q.AdditionalNotes = sanitize.Text(q.AdditionalNotes)
}

func (s *Service) queueNotification(q *quote.Quote, crmResult crm.Result, art notify.Artifacts) error {
	services, err := json.Marshal(q.Services)
	if err != nil {
		return err
	}

	// Timestamp left empty: the store stamps queue time, which is the
	// record's identity for mark-notified.
	rec := store.PendingNotification{
		Quote: store.PendingQuote{
			Name:      q.Name,
			Email:     q.Email,
			Phone:     q.Phone,
			Address:   q.Address,
			Services:  services,
			TurfSqft:  q.LawnArea(),
			MulchSqft: q.MulchSqft.Float(),
			MulchCuFt: q.MulchCuFt.Float(),
			Notes:     q.EffectiveNotes(),
		},
		SnapshotPath: art.SnapshotPath,
		PhotoPaths:   art.PhotoPaths,
	}
	if crmResult.CopilotEnabled && crmResult.Customer != nil {
		rec.Copilot = &store.PendingCRM{
			CustomerID: crmResult.CustomerID(),
			PropertyID: crmResult.PropertyID(),
			Success:    crmResult.Customer.Success,
		}
	}

	_, err = s.pending.Append(rec)
	return err
}

// Quotes returns every logged submission.
func (s *Service) Quotes() ([]store.SubmissionRecord, error) {
	records, err := s.submissions.All()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read submissions", err)
	}
	return records, nil
}

// PendingNotifications returns the queued records not yet marked as sent.
func (s *Service) PendingNotifications() ([]store.PendingNotification, error) {
	pending, err := s.pending.Pending()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read notifications", err)
	}
	return pending, nil
}

// MarkNotified flips the notified flag on the record with the given
// timestamp. An unknown timestamp is a no-op.
func (s *Service) MarkNotified(timestamp string) error {
	if err := s.pending.MarkNotified(timestamp); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update notifications", err)
	}
	return nil
}

// ListSnapshots returns every saved snapshot, newest date first.
func (s *Service) ListSnapshots() ([]store.SnapshotInfo, error) {
	snapshots, err := s.artifacts.ListSnapshots()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list snapshots", err)
	}
	return snapshots, nil
}

// SnapshotFile resolves a snapshot's relative path to its file on disk.
func (s *Service) SnapshotFile(relPath string) (string, error) {
	full, err := s.artifacts.OpenSnapshot(relPath)
	if err != nil {
		return "", apperr.NotFound("snapshot not found")
	}
	return full, nil
}

// PhotoFile resolves a photo's relative path to its file on disk.
func (s *Service) PhotoFile(relPath string) (string, error) {
	full, err := s.artifacts.OpenPhoto(relPath)
	if err != nil {
		return "", apperr.NotFound("photo not found")
	}
	return full, nil
}
