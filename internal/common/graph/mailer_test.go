package graph

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

func newTestMailer(tokenURL, baseURL string) *Mailer {
	return &Mailer{
		tenantID:     "tenant-123",
		clientID:     "client-abc",
		clientSecret: "secret",
		fromEmail:    "noreply@medishift.ch",
		tokenURL:     tokenURL,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		logger:       logger.NewNoOpLogger(),
	}
}

func TestMailerSend(t *testing.T) {
	var tokenRequests int
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "client-abc", r.FormValue("client_id"))
		assert.Equal(t, "https://graph.microsoft.com/.default", r.FormValue("scope"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3599}`))
	}))
	defer tokenServer.Close()

	var sendRequests int
	var lastPayload sendMailRequest
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendRequests++
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/users/noreply@medishift.ch/sendMail", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastPayload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	mailer := newTestMailer(tokenServer.URL, graphServer.URL)

	outcome, err := mailer.Send(context.Background(), Message{
		To:       []string{"ada@medishift.ch", "bob@medishift.ch"},
		Subject:  "Shift update",
		HTMLBody: "<p>hello</p>",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, models.MethodEmail, outcome.Method)
	assert.Equal(t, []string{"ada@medishift.ch", "bob@medishift.ch"}, outcome.Recipients)

	assert.False(t, lastPayload.SaveToSentItems)
	assert.Equal(t, "Shift update", lastPayload.Message.Subject)
	assert.Equal(t, "HTML", lastPayload.Message.Body.ContentType)
	require.Len(t, lastPayload.Message.ToRecipients, 2)
	assert.Equal(t, "ada@medishift.ch", lastPayload.Message.ToRecipients[0].EmailAddress.Address)

	// Every send re-authenticates, no token cache.
	_, err = mailer.Send(context.Background(), Message{
		To:       []string{"ada@medishift.ch"},
		Subject:  "Another",
		HTMLBody: "<p>again</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tokenRequests)
	assert.Equal(t, 2, sendRequests)
}

func TestMailerSendReplyTo(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3599}`))
	}))
	defer tokenServer.Close()

	var payload sendMailRequest
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer graphServer.Close()

	mailer := newTestMailer(tokenServer.URL, graphServer.URL)
	_, err := mailer.Send(context.Background(), Message{
		To:       []string{"ada@medishift.ch"},
		Subject:  "s",
		HTMLBody: "b",
		ReplyTo:  "support@medishift.ch",
	})
	require.NoError(t, err)

	require.Len(t, payload.Message.ReplyTo, 1)
	assert.Equal(t, "support@medishift.ch", payload.Message.ReplyTo[0].EmailAddress.Address)
}

func TestMailerSendErrors(t *testing.T) {
	t.Run("token endpoint failure", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
		}))
		defer tokenServer.Close()

		mailer := newTestMailer(tokenServer.URL, "http://127.0.0.1:0")
		_, err := mailer.Send(context.Background(), Message{To: []string{"a@b.ch"}, Subject: "s", HTMLBody: "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "authentication failed")
		assert.Contains(t, err.Error(), "invalid_client")
	})

	t.Run("graph rejects send", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3599}`))
		}))
		defer tokenServer.Close()

		graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":"ErrorAccessDenied"}}`))
		}))
		defer graphServer.Close()

		mailer := newTestMailer(tokenServer.URL, graphServer.URL)
		_, err := mailer.Send(context.Background(), Message{To: []string{"a@b.ch"}, Subject: "s", HTMLBody: "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
		assert.Contains(t, err.Error(), "ErrorAccessDenied")
	})

	t.Run("no recipients", func(t *testing.T) {
		mailer := newTestMailer("http://127.0.0.1:0", "http://127.0.0.1:0")
		_, err := mailer.Send(context.Background(), Message{Subject: "s", HTMLBody: "b"})
		assert.Error(t, err)
	})
}

func TestNewMailerDefaults(t *testing.T) {
	mailer := NewMailer(config.MicrosoftConfig{
		TenantID:  "tenant-123",
		ClientID:  "client-abc",
		FromEmail: "noreply@medishift.ch",
	}, logger.NewNoOpLogger())

	assert.Equal(t, "https://login.microsoftonline.com/tenant-123/oauth2/v2.0/token", mailer.tokenURL)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", mailer.baseURL)
}
