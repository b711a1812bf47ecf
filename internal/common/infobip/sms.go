// internal/common/infobip/sms.go
package infobip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medishift-notifications/internal/common/config"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
)

const defaultBaseURL = "https://api.infobip.com"

// Client sends SMS through the Infobip advanced-text gateway.
type Client struct {
	apiKey   string
	baseURL  string
	senderID string

	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds an Infobip client from provider config. The gateway
// gets a hard 10-second timeout.
func NewClient(cfg config.InfobipConfig, log logger.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	senderID := cfg.SenderID
	if senderID == "" {
		senderID = "MediShift"
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		senderID:   senderID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

// NormalizePhone converts a number into the digits-only form the gateway
// expects: whitespace stripped, a leading + ensured, +0XXXX rewritten to
// +XXXX, then the + removed.
func NormalizePhone(number string) string {
	cleaned := strings.Join(strings.Fields(number), "")
	if cleaned == "" {
		return ""
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	for strings.HasPrefix(cleaned, "+0") {
		cleaned = "+" + cleaned[2:]
	}
	return strings.TrimPrefix(cleaned, "+")
}

type destination struct {
	To string `json:"to"`
}

type smsMessage struct {
	Destinations []destination `json:"destinations"`
	From         string        `json:"from"`
	Text         string        `json:"text"`
}

type smsRequest struct {
	Messages []smsMessage `json:"messages"`
}

type gatewayError struct {
	RequestError struct {
		ServiceException struct {
			MessageID string `json:"messageId"`
			Text      string `json:"text"`
		} `json:"serviceException"`
	} `json:"requestError"`
}

// Send normalizes the numbers and posts one batch message to the gateway.
func (c *Client) Send(ctx context.Context, to []string, message string) (*models.SendOutcome, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients")
	}

	destinations := make([]destination, 0, len(to))
	for _, number := range to {
		if normalized := NormalizePhone(number); normalized != "" {
			destinations = append(destinations, destination{To: normalized})
		}
	}
	if len(destinations) == 0 {
		return nil, fmt.Errorf("no valid phone numbers after normalization")
	}

	payload := smsRequest{
		Messages: []smsMessage{{
			Destinations: destinations,
			From:         c.senderID,
			Text:         message,
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms/2/text/advanced", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Authorization", "App "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr gatewayError
		if json.Unmarshal(respBody, &gwErr) == nil && gwErr.RequestError.ServiceException.Text != "" {
			return nil, fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, gwErr.RequestError.ServiceException.Text)
		}
		return nil, fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	var response map[string]interface{}
	if err := json.Unmarshal(respBody, &response); err != nil {
		response = nil
	}

	recipients := make([]string, 0, len(destinations))
	for _, d := range destinations {
		recipients = append(recipients, d.To)
	}

	c.logger.Info("sms sent", map[string]interface{}{
		"recipients": len(recipients),
	})

	return &models.SendOutcome{
		Success:    true,
		Method:     models.MethodSMS,
		Recipients: recipients,
		Response:   response,
	}, nil
}
