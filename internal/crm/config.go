// Package crm integrates with the Copilot CRM: customer, property and
// estimate creation plus CRM-relayed email and SMS, authenticated by session
// cookies kept in a small mutable JSON file.
//
// The CRM's form endpoints are undocumented; the field sets below were
// captured from working browser requests and must be reproduced verbatim.
// Remote failures never raise; every operation reports a result value.
package crm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cookies is the CRM session cookie pair.
type Cookies struct {
	InstantInvoices string `json:"instantinvoices"`
	AccessToken     string `json:"copilotApiAccessToken"`
}

// Credentials is the stored login used to refresh the session.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IntegrationConfig is the on-disk CRM integration state: toggles, session
// material and address defaults. It is read at defined points (before a CRM
// call, after a token refresh) rather than on every access.
type IntegrationConfig struct {
	Enabled            bool        `json:"enabled"`
	AutoCreateCustomer bool        `json:"autoCreateCustomer"`
	AutoCreateProperty bool        `json:"autoCreateProperty"`
	Cookies            Cookies     `json:"cookies"`
	Auth               Credentials `json:"auth"`
	TokenExpiresAt     int64       `json:"tokenExpiresAt,omitempty"`
	LastRefreshed      string      `json:"lastRefreshed,omitempty"`
	DefaultState       string      `json:"defaultState,omitempty"`
	DefaultCountry     string      `json:"defaultCountry,omitempty"`
	CompanyID          string      `json:"companyId,omitempty"`
}

// ConfigStore reads and writes the integration config file whole.
type ConfigStore struct {
	path string
	mu   sync.Mutex
}

// NewConfigStore creates a store for the given file path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Load reads the config file. A missing or unreadable file disables the
// integration rather than failing.
func (s *ConfigStore) Load() IntegrationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *ConfigStore) load() IntegrationConfig {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return IntegrationConfig{Enabled: false}
	}

	var cfg IntegrationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return IntegrationConfig{Enabled: false}
	}
	return cfg
}

// Save writes the config file whole.
func (s *ConfigStore) Save(cfg IntegrationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Update applies fn under the store lock, persisting the result.
func (s *ConfigStore) Update(fn func(*IntegrationConfig)) (IntegrationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.load()
	fn(&cfg)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return cfg, err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return cfg, err
	}
	return cfg, os.WriteFile(s.path, data, 0o600)
}
