package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/garageops/workshop-notify/internal/model"
)

// SendTimeout is the hard per-send timeout. A timeout is a normal failure,
// never a crash; callers never block past it.
const SendTimeout = 5 * time.Second

// DefaultRelayBaseURL is used when no relay base URL is configured.
const DefaultRelayBaseURL = "https://relay.garageops.dev"

// Sender delivers one normalized outbound message using the given provider
// settings.
type Sender interface {
	Send(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error
}

// HTTPSender implements every provider kind over plain HTTP POSTs, selected
// by a flat switch on the kind tag.
type HTTPSender struct {
	client       *http.Client
	relayBaseURL string
}

func NewHTTPSender(relayBaseURL string) *HTTPSender {
	if relayBaseURL == "" {
		relayBaseURL = DefaultRelayBaseURL
	}
	return &HTTPSender{
		client:       &http.Client{Timeout: SendTimeout},
		relayBaseURL: strings.TrimRight(relayBaseURL, "/"),
	}
}

var _ Sender = (*HTTPSender)(nil)

func (s *HTTPSender) Send(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	switch cfg.Kind {
	case model.ProviderTwilio:
		return s.sendTwilio(ctx, cfg, msg)
	case model.ProviderCloudAPI:
		return s.sendCloudAPI(ctx, cfg, msg)
	case model.ProviderWebhook:
		return s.sendWebhook(ctx, cfg, msg)
	case model.ProviderAutoSender:
		return s.sendAutoSender(ctx, cfg, msg)
	default:
		return fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func (s *HTTPSender) sendTwilio(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	payload := map[string]any{
		"account_sid": cfg.Credentials[model.CredAccountSID],
		"from":        cfg.FromAddress,
		"to":          msg.To,
		"body":        msg.Body,
	}
	auth := func(req *http.Request) {
		req.SetBasicAuth(cfg.Credentials[model.CredAccountSID], cfg.Credentials[model.CredAuthToken])
	}

	status, body, err := s.post(ctx, s.endpoint(cfg, "/relay/twilio"), auth, payload)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	if status/100 != 2 {
		return fmt.Errorf("twilio: status=%d body=%s", status, trim(body))
	}
	return nil
}

func (s *HTTPSender) sendCloudAPI(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"phone_number_id":   cfg.Credentials[model.CredPhoneNumberID],
		"to":                msg.To,
		"type":              "text",
		"text":              map[string]string{"body": msg.Body},
	}
	if msg.Attachment != nil {
		payload["type"] = "document"
		payload["document"] = map[string]string{
			"filename":  msg.Attachment.Filename,
			"mime_type": msg.Attachment.MimeType,
			"data":      msg.Attachment.Data,
		}
	}
	auth := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+cfg.Credentials[model.CredAccessToken])
	}

	status, body, err := s.post(ctx, s.endpoint(cfg, "/relay/cloud-api"), auth, payload)
	if err != nil {
		return fmt.Errorf("cloud_api: %w", err)
	}
	if status/100 != 2 {
		return fmt.Errorf("cloud_api: status=%d body=%s", status, trim(body))
	}
	return nil
}

func (s *HTTPSender) sendWebhook(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	payload := map[string]any{
		"to":      msg.To,
		"from":    cfg.FromAddress,
		"message": msg.Body,
	}
	auth := func(req *http.Request) {
		if token := cfg.Credentials["token"]; token != "" {
			req.Header.Set("X-Webhook-Token", token)
		}
	}

	status, body, err := s.post(ctx, cfg.EndpointURL, auth, payload)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if status/100 != 2 {
		return fmt.Errorf("webhook: status=%d body=%s", status, trim(body))
	}
	return nil
}

// endpoint prefers a configured endpoint override and falls back to the
// relay base URL.
func (s *HTTPSender) endpoint(cfg *model.ProviderSettings, path string) string {
	if cfg.EndpointURL != "" {
		return cfg.EndpointURL
	}
	return s.relayBaseURL + path
}

// post issues one JSON POST and returns status and body. The response body
// is read once here so callers never re-read it.
func (s *HTTPSender) post(ctx context.Context, url string, auth func(*http.Request), payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		auth(req)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return res.StatusCode, body, nil
}

func trim(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
