package model

import "fmt"

// ProviderKind selects the outbound messaging transport.
type ProviderKind string

const (
	ProviderTwilio     ProviderKind = "twilio"
	ProviderCloudAPI   ProviderKind = "cloud_api"
	ProviderAutoSender ProviderKind = "auto_sender" // legacy dual-auth vendor
	ProviderWebhook    ProviderKind = "webhook"
)

func (k ProviderKind) String() string { return string(k) }

func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderTwilio, ProviderCloudAPI, ProviderAutoSender, ProviderWebhook:
		return true
	}
	return false
}

// ProviderSettings is the per-tenant (or global) outbound provider
// configuration. Read-only to this service; the settings UI writes it.
type ProviderSettings struct {
	TenantID    TenantID          `json:"tenant_id,omitempty"`
	Enabled     bool              `json:"enabled"`
	Kind        ProviderKind      `json:"kind"`
	Credentials map[string]string `json:"credentials"`
	FromAddress string            `json:"from_address,omitempty"`
	EndpointURL string            `json:"endpoint_url,omitempty"`
}

// Credential keys expected per provider kind.
const (
	CredAccountSID    = "account_sid"
	CredAuthToken     = "auth_token"
	CredAccessToken   = "access_token"
	CredPhoneNumberID = "phone_number_id"
	CredAPIKey        = "api_key"
	CredAccountID     = "account_id"
	CredAccountSecret = "account_secret"
)

// Validate checks that the credential fields required by the provider kind
// are present. Must pass before any send attempt.
func (s *ProviderSettings) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown provider kind %q", s.Kind)
	}

	var required []string
	switch s.Kind {
	case ProviderTwilio:
		required = []string{CredAccountSID, CredAuthToken}
	case ProviderCloudAPI:
		required = []string{CredAccessToken, CredPhoneNumberID}
	case ProviderAutoSender:
		required = []string{CredAPIKey, CredAccountID, CredAccountSecret}
	case ProviderWebhook:
		if s.EndpointURL == "" {
			return fmt.Errorf("provider %s: endpoint_url is required", s.Kind)
		}
	}

	for _, key := range required {
		if s.Credentials[key] == "" {
			return fmt.Errorf("provider %s: missing credential %q", s.Kind, key)
		}
	}
	return nil
}
