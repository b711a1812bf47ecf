package shiftassignment

import (
	"context"

	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
)

type Input struct {
	WorkerID  string                 `json:"workerId"`
	ShiftData map[string]interface{} `json:"shiftData"`
	Method    string                 `json:"method,omitempty"`
	Auth      models.AuthContext     `json:"auth"`
}

type Output struct {
	Success bool                  `json:"success"`
	Method  string                `json:"method"`
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
	Logger   logger.Logger
	Email    EmailSender
	SMS      SMSSender
	Logs     *store.NotificationLogs
	Profiles *store.Profiles
}
