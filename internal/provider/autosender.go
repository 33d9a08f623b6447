package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/util"
)

// sendAutoSender delivers through the legacy vendor whose auth behavior is
// inconsistent across accounts: the primary attempt uses the API-key
// header, and any primary failure (transport, HTTP, or app-level error in
// the body) triggers exactly one retry with basic auth over the account
// id/secret. Both attempts share the same normalized payload and count as
// a single logical send.
func (s *HTTPSender) sendAutoSender(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	payload := map[string]any{
		"number":  util.NormalizePhone(msg.To),
		"message": msg.Body,
	}
	if msg.Attachment != nil {
		payload["file"] = msg.Attachment.Data
		payload["filename"] = msg.Attachment.Filename
		payload["mime_type"] = msg.Attachment.MimeType
	}

	url := s.endpoint(cfg, "/relay/auto-sender")

	primaryAuth := func(req *http.Request) {
		req.Header.Set("apikey", cfg.Credentials[model.CredAPIKey])
	}
	primaryErr := s.attemptAutoSender(ctx, url, primaryAuth, payload)
	if primaryErr == nil {
		return nil
	}

	fallbackAuth := func(req *http.Request) {
		req.SetBasicAuth(cfg.Credentials[model.CredAccountID], cfg.Credentials[model.CredAccountSecret])
	}
	if fallbackErr := s.attemptAutoSender(ctx, url, fallbackAuth, payload); fallbackErr != nil {
		return fmt.Errorf("auto_sender: primary: %v; fallback: %v", primaryErr, fallbackErr)
	}
	return nil
}

func (s *HTTPSender) attemptAutoSender(ctx context.Context, url string, auth func(*http.Request), payload any) error {
	status, body, err := s.post(ctx, url, auth, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("status=%d body=%s", status, trim(body))
	}

	// 2xx alone is not success: the vendor signals app-level errors in the
	// body with a 200 status.
	var res struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &res); err != nil || res.Status != "success" {
		return fmt.Errorf("app-level failure body=%s", trim(body))
	}
	return nil
}
