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

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"quotewidget_backend/platform/logger"
)

const (
	// A session counts as fresh while it expires more than this far out.
	freshnessWindow = 7 * 24 * time.Hour
	// Expiry assumed when the access token carries no readable exp claim.
	defaultTokenTTL = 60 * 24 * time.Hour
)

// SessionManager keeps the CRM cookie pair fresh, re-authenticating with the
// stored credentials when the access token is within the freshness window of
// expiry. Refreshes are coalesced so concurrent submissions trigger at most
// one login exchange.
type SessionManager struct {
	store   *ConfigStore
	baseURL string
	http    *http.Client
	log     *logger.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewSessionManager creates a manager over the given config store.
func NewSessionManager(store *ConfigStore, baseURL string, log *logger.Logger) *SessionManager {
	return &SessionManager{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
		now:     time.Now,
	}
}

// expiringSoon reports whether the stored token needs a refresh. A missing
// expiry always does.
func (m *SessionManager) expiringSoon(cfg IntegrationConfig) bool {
	if cfg.TokenExpiresAt == 0 {
		return true
	}
	return time.Unix(cfg.TokenExpiresAt, 0).Before(m.now().Add(freshnessWindow))
}

// EnsureFresh returns an integration config with a usable session, refreshing
// it first when needed. A failed refresh is non-fatal: the stale config is
// returned and the subsequent CRM call reports its own failure.
func (m *SessionManager) EnsureFresh(ctx context.Context) IntegrationConfig {
	cfg := m.store.Load()
	if !cfg.Enabled {
		return cfg
	}
	if !m.expiringSoon(cfg) {
		return cfg
	}

	fresh, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		m.log.ExternalCallFailed("crm", "token_refresh", err)
		return cfg
	}
	return fresh.(IntegrationConfig)
}

// refresh performs the login exchange and persists the new cookie pair.
func (m *SessionManager) refresh(ctx context.Context) (IntegrationConfig, error) {
	cfg := m.store.Load()
	if cfg.Auth.Username == "" || cfg.Auth.Password == "" {
		return cfg, fmt.Errorf("no stored credentials")
	}

	form := url.Values{
		"username": {cfg.Auth.Username},
		"password": {cfg.Auth.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/login/doLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return cfg, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := m.http.Do(req)
	if err != nil {
		return cfg, fmt.Errorf("login request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	instantInvoices, accessToken := extractSessionCookies(resp.Header.Values("Set-Cookie"))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cfg, fmt.Errorf("login response: %w", err)
	}
	var login struct {
		Status bool   `json:"status"`
		ErrMsg string `json:"errmsg"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return cfg, fmt.Errorf("login response is not JSON")
	}
	if !login.Status || accessToken == "" {
		if login.ErrMsg != "" {
			return cfg, fmt.Errorf("login rejected: %s", login.ErrMsg)
		}
		return cfg, fmt.Errorf("login rejected")
	}

	expiresAt := m.tokenExpiry(accessToken)

	updated, err := m.store.Update(func(c *IntegrationConfig) {
		c.Cookies.AccessToken = accessToken
		if instantInvoices != "" {
			c.Cookies.InstantInvoices = instantInvoices
		}
		c.TokenExpiresAt = expiresAt
		c.LastRefreshed = m.now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		return updated, fmt.Errorf("persist refreshed session: %w", err)
	}

	m.log.Info("crm_session_refreshed", "expires_at", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return updated, nil
}

// tokenExpiry reads the exp claim out of the access token without verifying
// the signature (the claim only schedules the next refresh). An unreadable
// token gets the default lifetime.
func (m *SessionManager) tokenExpiry(accessToken string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Unix()
		}
	}
	return m.now().Add(defaultTokenTTL).Unix()
}

// extractSessionCookies pulls the cookie pair out of Set-Cookie headers.
func extractSessionCookies(setCookies []string) (instantInvoices, accessToken string) {
	for _, c := range setCookies {
		pair := strings.SplitN(strings.SplitN(c, ";", 2)[0], "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "instantinvoices":
			instantInvoices = pair[1]
		case "copilotApiAccessToken":
			accessToken = pair[1]
		}
	}
	return instantInvoices, accessToken
}
