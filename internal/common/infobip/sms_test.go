package infobip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medishift-notifications/internal/common/config"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already international", "+41791234567", "41791234567"},
		{"digits without plus", "41791234567", "41791234567"},
		{"internal whitespace", "+41 79 123 45 67", "41791234567"},
		{"double-zero international", "0041791234567", "41791234567"},
		{"plus-zero rewritten", "+0791234567", "791234567"},
		{"hyphens survive cleanup", "+41-79-123-45-67", "41-79-123-45-67"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func newTestClient(baseURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		baseURL:    baseURL,
		senderID:   "MediShift",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger.NewNoOpLogger(),
	}
}

func TestClientSend(t *testing.T) {
	var captured smsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "App test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/sms/2/text/advanced", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"status":{"groupName":"PENDING"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	outcome, err := client.Send(context.Background(), []string{"+41 79 123 45 67", "0791234567"}, "Shift confirmed")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, models.MethodSMS, outcome.Method)
	assert.Equal(t, []string{"41791234567", "791234567"}, outcome.Recipients)
	assert.NotNil(t, outcome.Response)

	require.Len(t, captured.Messages, 1)
	msg := captured.Messages[0]
	assert.Equal(t, "MediShift", msg.From)
	assert.Equal(t, "Shift confirmed", msg.Text)
	require.Len(t, msg.Destinations, 2)
	assert.Equal(t, "41791234567", msg.Destinations[0].To)
}

func TestClientSendGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"requestError":{"serviceException":{"messageId":"UNAUTHORIZED","text":"Invalid login details"}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Send(context.Background(), []string{"+41791234567"}, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid login details")
}

func TestClientSendNoRecipients(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")

	_, err := client.Send(context.Background(), nil, "hello")
	assert.Error(t, err)

	_, err = client.Send(context.Background(), []string{"   "}, "hello")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(config.InfobipConfig{APIKey: "k"}, logger.NewNoOpLogger())
	assert.Equal(t, "https://api.infobip.com", client.baseURL)
	assert.Equal(t, "MediShift", client.senderID)
}
