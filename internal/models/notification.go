// internal/models/notification.go
package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Delivery methods
const (
	MethodEmail = "email"
	MethodSMS   = "sms"
	MethodBoth  = "both"
)

// Dispatch statuses recorded in the audit log
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// TemplateKey identifies a message template. The set is closed; an
// unknown key falls back to caller-supplied custom content.
type TemplateKey string

const (
	TemplateShiftAssigned    TemplateKey = "shift_assigned"
	TemplateShiftReminder    TemplateKey = "shift_reminder"
	TemplateShiftCancelled   TemplateKey = "shift_cancelled"
	TemplatePromotion        TemplateKey = "promotion"
	TemplateWelcome          TemplateKey = "welcome"
	TemplateBankingUpdated   TemplateKey = "banking_updated"
	TemplateGeneric          TemplateKey = "generic"
	TemplateVerificationCode TemplateKey = "verification_code"
)

// AuthContext carries the caller identity attached to job variables.
type AuthContext struct {
	UID           string `json:"uid,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Recipient is one entry of a recipients list. Callers may pass either a
// bare string (email address or phone number) or an object with explicit
// fields; bare strings are kept in Raw and classified per channel.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
	Raw   string `json:"-"`
}

func (r *Recipient) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.Raw)
	}

	type recipientAlias Recipient
	var alias recipientAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*r = Recipient(alias)
	return nil
}

func (r Recipient) MarshalJSON() ([]byte, error) {
	if r.Raw != "" {
		return json.Marshal(r.Raw)
	}
	type recipientAlias Recipient
	return json.Marshal(recipientAlias(r))
}

// NotificationRequest is the shared request shape of the dispatch entry points.
type NotificationRequest struct {
	Type          string                 `json:"type"`
	Method        string                 `json:"method"`
	Recipients    []Recipient            `json:"recipients"`
	Template      TemplateKey            `json:"template,omitempty"`
	TemplateData  map[string]interface{} `json:"templateData,omitempty"`
	CustomSubject string                 `json:"customSubject,omitempty"`
	CustomMessage string                 `json:"customMessage,omitempty"`
	CustomHTML    string                 `json:"customHtml,omitempty"`
	From          string                 `json:"from,omitempty"`
	ReplyTo       string                 `json:"replyTo,omitempty"`
}

// SendOutcome is the per-channel result of a provider call.
type SendOutcome struct {
	Success    bool                   `json:"success"`
	Method     string                 `json:"method"`
	Recipients []string               `json:"recipients"`
	Response   map[string]interface{} `json:"response,omitempty"`
}

// DispatchResult reports both channels; a channel that had no valid
// recipients stays nil.
type DispatchResult struct {
	Email *SendOutcome `json:"email"`
	SMS   *SendOutcome `json:"sms"`
}

// NotificationLog is one audit row, written once per dispatch call.
type NotificationLog struct {
	ID             string    `json:"id"`
	SentBy         string    `json:"sentBy"`
	Type           string    `json:"type"`
	Method         string    `json:"method"`
	Template       string    `json:"template,omitempty"`
	Filters        string    `json:"filters,omitempty"`
	RecipientCount int       `json:"recipientCount"`
	EmailsSent     int       `json:"emailsSent"`
	SMSSent        int       `json:"smsSent"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	SentAt         time.Time `json:"sentAt"`
}
