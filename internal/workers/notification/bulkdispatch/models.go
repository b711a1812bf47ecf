package bulkdispatch

import (
	"context"

	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
)

type Input struct {
	Method        string                 `json:"method"`
	Filters       models.BulkFilters     `json:"filters"`
	Template      models.TemplateKey     `json:"template,omitempty"`
	TemplateData  map[string]interface{} `json:"templateData,omitempty"`
	CustomSubject string                 `json:"customSubject,omitempty"`
	CustomMessage string                 `json:"customMessage,omitempty"`
	CustomHTML    string                 `json:"customHtml,omitempty"`
	Auth          models.AuthContext     `json:"auth"`
}

type Output struct {
	Success        bool                  `json:"success"`
	RecipientCount int                   `json:"recipientCount"`
	Results        models.DispatchResult `json:"results"`
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
	Logger   logger.Logger
	Email    EmailSender
	SMS      SMSSender
	Logs     *store.NotificationLogs
	Profiles *store.Profiles
}
