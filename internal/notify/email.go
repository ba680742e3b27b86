package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	gomail "github.com/wneessen/go-mail"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
)

// EmailConfig holds the SMTP settings for the staff summary email.
type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromName   string
	FromEmail  string
	ToEmail    string
	CRMBaseURL string
}

// EmailSender delivers the staff summary email over SMTP, with the map
// snapshot embedded inline and customer photos attached.
type EmailSender struct {
	cfg EmailConfig
	now func() time.Time
}

// NewEmailSender creates a sender with the given SMTP settings.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, now: time.Now}
}

// SendQuoteNotification renders and sends the "New Website Lead" email.
// Missing image files are skipped; only SMTP failures are reported.
func (s *EmailSender) SendQuoteNotification(ctx context.Context, q *quote.Quote, crmResult crm.Result, art Artifacts) error {
	data := buildStaffEmailData(q, crmResult, art, s.cfg.CRMBaseURL, s.now())
	content, err := renderStaffEmail(data)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromEmail); err != nil {
		return fmt.Errorf("staff email from: %w", err)
	}
	if err := msg.To(s.cfg.ToEmail); err != nil {
		return fmt.Errorf("staff email to: %w", err)
	}
	msg.Subject("New Website Lead - " + q.Name)
	msg.SetBodyString(gomail.TypeTextHTML, content)

	if art.SnapshotPath != "" {
		if img, err := os.ReadFile(art.SnapshotPath); err == nil {
			msg.EmbedReader("map_snapshot.png", bytes.NewReader(img))
		}
	}
	for i, path := range art.PhotoPaths {
		img, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		name := fmt.Sprintf("customer_photo_%d%s", i+1, filepath.Ext(path))
		msg.AttachReader(name, bytes.NewReader(img))
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
