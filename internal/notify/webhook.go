package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"quotewidget_backend/internal/crm"
	"quotewidget_backend/internal/quote"
)

// maxWebhookFiles caps attachments per post; the chat platform rejects more.
const maxWebhookFiles = 10

// Discord caps message content length.
const maxContentLength = 2000

// WebhookSender posts submission summaries to a Discord-compatible webhook.
// Without images it sends plain JSON; with images it hand-builds a
// multipart/form-data body with the payload_json part first.
type WebhookSender struct {
	url        string
	mentionID  string
	crmBaseURL string
	http       *http.Client

	newBoundary func() string
}

// NewWebhookSender creates a sender for the given webhook URL. mentionID,
// when set, prefixes the post with a user mention.
func NewWebhookSender(url, mentionID, crmBaseURL string) *WebhookSender {
	return &WebhookSender{
		url:        url,
		mentionID:  mentionID,
		crmBaseURL: crmBaseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		newBoundary: func() string {
			return "----QuoteWidgetBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Post sends the formatted summary, attaching the snapshot first and then
// customer photos up to the attachment cap. Unreadable image files are
// skipped, not fatal.
func (w *WebhookSender) Post(ctx context.Context, q *quote.Quote, crmResult crm.Result, art Artifacts) error {
	content := BuildChatSummary(q, crmResult, w.crmBaseURL)
	if w.mentionID != "" {
		content = fmt.Sprintf("<@%s> %s", w.mentionID, content)
	}
	if len(content) > maxContentLength {
		content = strings.ToValidUTF8(content[:maxContentLength-4], "") + "…"
	}

	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	files := w.collectFiles(art)
	if len(files) == 0 {
		return w.send(ctx, "application/json", payload)
	}

	parts := []formPart{{FieldName: "payload_json", ContentType: "application/json", Data: payload}}
	for i, f := range files {
		parts = append(parts, formPart{
			FieldName:   fmt.Sprintf("files[%d]", i),
			FileName:    f.name,
			ContentType: f.contentType,
			Data:        f.data,
		})
	}

	boundary := w.newBoundary()
	body := encodeMultipart(boundary, parts)
	return w.send(ctx, "multipart/form-data; boundary="+boundary, body)
}

type webhookFile struct {
	name        string
	contentType string
	data        []byte
}

// collectFiles loads the snapshot and photos from disk, snapshot always
// first, capped at maxWebhookFiles.
func (w *WebhookSender) collectFiles(art Artifacts) []webhookFile {
	var files []webhookFile

	if art.SnapshotPath != "" {
		if data, err := os.ReadFile(art.SnapshotPath); err == nil {
			files = append(files, webhookFile{name: "map_snapshot.png", contentType: "image/png", data: data})
		}
	}

	for i, path := range art.PhotoPaths {
		if len(files) >= maxWebhookFiles {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ext := strings.ToLower(filepath.Ext(path))
		contentType := "image/jpeg"
		if ext == ".png" {
			contentType = "image/png"
		}
		files = append(files, webhookFile{
			name:        fmt.Sprintf("customer_photo_%d%s", i+1, ext),
			contentType: contentType,
			data:        data,
		})
	}

	return files
}

func (w *WebhookSender) send(ctx context.Context, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
