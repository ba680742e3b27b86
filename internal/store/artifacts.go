package store

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"quotewidget_backend/internal/quote"
)

var unsafeEmailChars = regexp.MustCompile(`[^a-z0-9@.-]`)

// ArtifactStore persists snapshot and photo images under date-partitioned
// directories and serves them back by relative path.
type ArtifactStore struct {
	snapshotsDir string
	photosDir    string
	now          func() time.Time
}

// NewArtifactStore creates a store rooted at the given directories.
func NewArtifactStore(snapshotsDir, photosDir string) *ArtifactStore {
	return &ArtifactStore{
		snapshotsDir: snapshotsDir,
		photosDir:    photosDir,
		now:          time.Now,
	}
}

// cleanEmail lowercases an email and replaces filename-hostile characters,
// keeping the artifact name greppable by customer.
func cleanEmail(email string) string {
	if email == "" {
		email = "unknown"
	}
	return unsafeEmailChars.ReplaceAllString(strings.ToLower(email), "_")
}

// SaveSnapshot writes the snapshot image as
// snapshots/<date>/<email>_<submissionID>.png and returns its path.
func (a *ArtifactStore) SaveSnapshot(email, submissionID string, img []byte) (string, error) {
	date := a.now().UTC().Format("2006-01-02")
	dir := filepath.Join(a.snapshotsDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", cleanEmail(email), submissionID))
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// SavePhotos decodes and writes every customer photo under
// photos/<date>/<email>_<submissionID>/photo_N.<ext>, returning the paths.
// An undecodable photo is skipped rather than failing the batch.
func (a *ArtifactStore) SavePhotos(email, submissionID string, photos []quote.Photo) ([]string, error) {
	if len(photos) == 0 {
		return nil, nil
	}

	date := a.now().UTC().Format("2006-01-02")
	dir := filepath.Join(a.photosDir, date, cleanEmail(email)+"_"+submissionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos dir: %w", err)
	}

	var paths []string
	for i, photo := range photos {
		data := photo.Data
		if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
			data = data[idx+1:]
		}
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			continue
		}

		ext := "jpg"
		if photo.Type == "image/png" {
			ext = "png"
		}
		path := filepath.Join(dir, fmt.Sprintf("photo_%d.%s", i+1, ext))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return paths, fmt.Errorf("write photo %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SnapshotInfo describes one saved snapshot for the listing endpoint.
type SnapshotInfo struct {
	Date     string `json:"date"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Email    string `json:"email"`
}

// ListSnapshots returns every saved snapshot, newest date first.
func (a *ArtifactStore) ListSnapshots() ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(a.snapshotsDir)
	if os.IsNotExist(err) {
		return []SnapshotInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	snapshots := []SnapshotInfo{}
	for _, date := range dates {
		files, err := os.ReadDir(filepath.Join(a.snapshotsDir, date))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".png") {
				continue
			}
			snapshots = append(snapshots, SnapshotInfo{
				Date:     date,
				Filename: f.Name(),
				Path:     date + "/" + f.Name(),
				Email:    strings.ReplaceAll(strings.Split(f.Name(), "_")[0], "_", "."),
			})
		}
	}
	return snapshots, nil
}

// OpenSnapshot resolves a snapshot by relative path, rejecting traversal
// outside the snapshots root.
func (a *ArtifactStore) OpenSnapshot(relPath string) (string, error) {
	return a.resolve(a.snapshotsDir, relPath)
}

// OpenPhoto resolves a photo by relative path, rejecting traversal outside
// the photos root.
func (a *ArtifactStore) OpenPhoto(relPath string) (string, error) {
	return a.resolve(a.photosDir, relPath)
}

func (a *ArtifactStore) resolve(root, relPath string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	full := filepath.Join(rootAbs, filepath.FromSlash(relPath))
	full = filepath.Clean(full)
	if full != rootAbs && !strings.HasPrefix(full, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root")
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("artifact not found")
	}
	return full, nil
}
