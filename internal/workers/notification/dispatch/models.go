package dispatch

import (
	"context"

	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
)

// Input is the decoded job variable payload. Raw keeps the undecoded
// variables for schema validation.
type Input struct {
	models.NotificationRequest
	Auth models.AuthContext `json:"auth"`

	Raw []byte `json:"-"`
}

type Output struct {
	Success bool                  `json:"success"`
	Results models.DispatchResult `json:"results"`
}

// EmailSender delivers one email message.
type EmailSender interface {
	Send(ctx context.Context, msg graph.Message) (*models.SendOutcome, error)
}

// SMSSender delivers one text message to a recipient list.
type SMSSender interface {
	Send(ctx context.Context, to []string, message string) (*models.SendOutcome, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	Email  EmailSender
	SMS    SMSSender
	Logs   *store.NotificationLogs
	Codes  *store.VerificationCodes
}

// inputSchema is checked against the raw job variables before decoding.
const inputSchema = `{
	"type": "object",
	"properties": {
		"type": {"type": "string"},
		"method": {"type": "string"},
		"recipients": {
			"type": "array",
			"items": {
				"oneOf": [
					{"type": "string"},
					{
						"type": "object",
						"properties": {
							"email": {"type": "string"},
							"phone": {"type": "string"},
							"name": {"type": "string"}
						}
					}
				]
			}
		},
		"template": {"type": "string"},
		"templateData": {"type": "object"},
		"customSubject": {"type": "string"},
		"customMessage": {"type": "string"},
		"customHtml": {"type": "string"},
		"from": {"type": "string"},
		"replyTo": {"type": "string"},
		"auth": {
			"type": "object",
			"properties": {
				"uid": {"type": "string"},
				"authenticated": {"type": "boolean"}
			}
		}
	},
	"required": ["method", "recipients"]
}`
