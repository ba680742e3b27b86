package crm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quotewidget_backend/platform/logger"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "widget",
	})
	s, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestExtractSessionCookies(t *testing.T) {
	ii, at := extractSessionCookies([]string{
		"instantinvoices=abc123; Path=/; HttpOnly",
		"other=x",
		"copilotApiAccessToken=tok.en.sig; Secure; Path=/",
	})
	if ii != "abc123" {
		t.Errorf("instantinvoices = %q", ii)
	}
	if at != "tok.en.sig" {
		t.Errorf("accessToken = %q", at)
	}

	ii, at = extractSessionCookies(nil)
	if ii != "" || at != "" {
		t.Errorf("expected empty pair, got %q/%q", ii, at)
	}
}

func TestExpiringSoon(t *testing.T) {
	m := &SessionManager{now: func() time.Time { return time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) }}

	if !m.expiringSoon(IntegrationConfig{}) {
		t.Error("missing expiry must count as expiring")
	}
	in3Days := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC).Unix()
	if !m.expiringSoon(IntegrationConfig{TokenExpiresAt: in3Days}) {
		t.Error("expiry inside the 7-day window must trigger refresh")
	}
	in30Days := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC).Unix()
	if m.expiringSoon(IntegrationConfig{TokenExpiresAt: in30Days}) {
		t.Error("expiry outside the window must not trigger refresh")
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	m := &SessionManager{now: func() time.Time { return now }}

	exp := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	if got := m.tokenExpiry(signedToken(t, exp)); got != exp.Unix() {
		t.Errorf("tokenExpiry = %d, want %d", got, exp.Unix())
	}

	// An opaque token falls back to the default lifetime.
	want := now.Add(defaultTokenTTL).Unix()
	if got := m.tokenExpiry("not-a-jwt"); got != want {
		t.Errorf("tokenExpiry(opaque) = %d, want %d", got, want)
	}
}

func TestEnsureFresh_RefreshesAndPersists(t *testing.T) {
	exp := time.Now().Add(60 * 24 * time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/doLogin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "chris" || r.PostForm.Get("password") != "secret" {
			t.Errorf("unexpected credentials %v", r.PostForm)
		}
		http.SetCookie(w, &http.Cookie{Name: "instantinvoices", Value: "new-ii"})
		http.SetCookie(w, &http.Cookie{Name: "copilotApiAccessToken", Value: token})
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer server.Close()

	store := NewConfigStore(filepath.Join(t.TempDir(), "copilot-config.json"))
	if err := store.Save(IntegrationConfig{
		Enabled: true,
		Auth:    Credentials{Username: "chris", Password: "secret"},
		Cookies: Cookies{InstantInvoices: "old-ii", AccessToken: "old-at"},
	}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	m := NewSessionManager(store, server.URL, logger.New("development"))
	cfg := m.EnsureFresh(context.Background())

	if cfg.Cookies.AccessToken != token {
		t.Fatalf("access token not refreshed: %q", cfg.Cookies.AccessToken)
	}
	if cfg.Cookies.InstantInvoices != "new-ii" {
		t.Fatalf("instantinvoices not refreshed: %q", cfg.Cookies.InstantInvoices)
	}
	if cfg.TokenExpiresAt != exp.Unix() {
		t.Fatalf("expiry = %d, want %d", cfg.TokenExpiresAt, exp.Unix())
	}

	// The refreshed session must survive a reload.
	reloaded := store.Load()
	if reloaded.Cookies.AccessToken != token || reloaded.LastRefreshed == "" {
		t.Fatalf("refreshed session not persisted: %+v", reloaded.Cookies)
	}
}

func TestEnsureFresh_FailedLoginKeepsStaleSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"errmsg":"bad credentials"}`))
	}))
	defer server.Close()

	store := NewConfigStore(filepath.Join(t.TempDir(), "copilot-config.json"))
	if err := store.Save(IntegrationConfig{
		Enabled: true,
		Auth:    Credentials{Username: "chris", Password: "wrong"},
		Cookies: Cookies{AccessToken: "stale"},
	}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	m := NewSessionManager(store, server.URL, logger.New("development"))
	cfg := m.EnsureFresh(context.Background())

	if !cfg.Enabled {
		t.Fatal("failed refresh must not disable the integration")
	}
	if cfg.Cookies.AccessToken != "stale" {
		t.Fatalf("stale session must be returned as-is, got %q", cfg.Cookies.AccessToken)
	}
}
