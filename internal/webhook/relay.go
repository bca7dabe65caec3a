// Package webhook relays chat messages to Make.com style webhooks and keeps
// the per-module chat history.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/telemetry"
)

// APIKeyHeader carries the Make.com key.
const APIKeyHeader = "x-make-apikey"

// Relay posts text to a webhook and returns its reply.
type Relay struct {
	client *http.Client
}

// NewRelay builds a Relay. client may be nil.
func NewRelay(client *http.Client) *Relay {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Relay{client: client}
}

// Send posts {"text": text}. JSON replies are re-indented with two spaces;
// anything else is returned verbatim.
func (r *Relay) Send(ctx context.Context, url, text, apiKey string) (string, error) {
	if apiKey == "" {
		telemetry.WebhookRelays.WithLabelValues("missing_key").Inc()
		return "", domain.NewMessageError(domain.ErrMissingCredential, "Make.com API Key is not configured.")
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewMessageError(domain.ErrInvalidInput, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		telemetry.WebhookRelays.WithLabelValues("error").Inc()
		return "", domain.NewMessageError(domain.ErrRemoteCallFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.WebhookRelays.WithLabelValues("error").Inc()
		return "", domain.NewMessageError(domain.ErrRemoteCallFailed, fmt.Sprintf("Webhook request failed with status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.WebhookRelays.WithLabelValues("error").Inc()
		return "", domain.NewMessageError(domain.ErrRemoteCallFailed, err.Error())
	}
	telemetry.WebhookRelays.WithLabelValues("ok").Inc()

	if isJSON(resp.Header.Get("Content-Type")) {
		var out bytes.Buffer
		if err := json.Indent(&out, bytes.TrimSpace(data), "", "  "); err == nil {
			return out.String(), nil
		}
	}
	return string(data), nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json"
}
