// internal/common/graph/mailer.go
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medishift-notifications/internal/common/config"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
)

const (
	defaultTokenURL = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphScope      = "https://graph.microsoft.com/.default"
)

// Message is one outbound email.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	From     string
	ReplyTo  string
}

// Mailer sends email through Microsoft Graph using the client-credentials
// grant. Tokens are not cached; every send re-authenticates.
type Mailer struct {
	tenantID     string
	clientID     string
	clientSecret string
	fromEmail    string

	tokenURL string
	baseURL  string

	httpClient *http.Client
	logger     logger.Logger
}

// NewMailer builds a Mailer from the Microsoft provider config.
func NewMailer(cfg config.MicrosoftConfig, log logger.Logger) *Mailer {
	return &Mailer{
		tenantID:     cfg.TenantID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		fromEmail:    cfg.FromEmail,
		tokenURL:     fmt.Sprintf(defaultTokenURL, cfg.TenantID),
		baseURL:      defaultGraphURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       log,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// acquireToken performs the client-credentials grant against the tenant
// token endpoint.
func (m *Mailer) acquireToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("scope", graphScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}
	return token.AccessToken, nil
}

type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
	ReplyTo      []graphRecipient `json:"replyTo,omitempty"`
}

type sendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

func toGraphRecipients(addresses []string) []graphRecipient {
	out := make([]graphRecipient, 0, len(addresses))
	for _, addr := range addresses {
		var r graphRecipient
		r.EmailAddress.Address = addr
		out = append(out, r)
	}
	return out
}

// Send acquires a fresh token and posts the message via the sender
// mailbox. Graph answers 202 Accepted on success.
func (m *Mailer) Send(ctx context.Context, msg Message) (*models.SendOutcome, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("no recipients")
	}

	token, err := m.acquireToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph authentication failed: %w", err)
	}

	from := msg.From
	if from == "" {
		from = m.fromEmail
	}

	payload := sendMailRequest{SaveToSentItems: false}
	payload.Message.Subject = msg.Subject
	payload.Message.Body.ContentType = "HTML"
	payload.Message.Body.Content = msg.HTMLBody
	payload.Message.ToRecipients = toGraphRecipients(msg.To)
	if msg.ReplyTo != "" {
		payload.Message.ReplyTo = toGraphRecipients([]string{msg.ReplyTo})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sendMail payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", m.baseURL, url.PathEscape(from))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sendMail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sendMail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("graph sendMail returned %d: %s", resp.StatusCode, string(respBody))
	}

	m.logger.Info("email sent", map[string]interface{}{
		"recipients": len(msg.To),
		"from":       from,
	})

	return &models.SendOutcome{
		Success:    true,
		Method:     models.MethodEmail,
		Recipients: msg.To,
	}, nil
}
