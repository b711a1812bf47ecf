package shiftassignment

import (
	"context"
	"fmt"

	"medishift-notifications/internal/common/errors"
	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
	"medishift-notifications/internal/templates"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	email    EmailSender
	sms      SMSSender
	logs     *store.NotificationLogs
	profiles *store.Profiles
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		email:    deps.Email,
		sms:      deps.SMS,
		logs:     deps.Logs,
		profiles: deps.Profiles,
	}
}

// Execute notifies one worker about a shift assignment. The channel is
// the explicit method argument, else the worker's stored preference,
// else email.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Auth.Authenticated {
		return nil, errors.NewUnauthenticatedError("shift assignment notification requires an authenticated caller")
	}
	if input.WorkerID == "" || len(input.ShiftData) == 0 {
		return nil, errors.NewInvalidArgumentError("workerId and shiftData are required", "")
	}

	profile, err := s.profiles.GetProfile(ctx, input.WorkerID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("worker profile", fmt.Sprintf("uid %s", input.WorkerID))
	}

	method := resolveMethod(input.Method, profile)

	templateData := make(map[string]interface{}, len(input.ShiftData)+1)
	for k, v := range input.ShiftData {
		templateData[k] = v
	}
	templateData["workerName"] = profile.FullName()

	result := models.DispatchResult{}
	emailsSent, smsSent := 0, 0
	var dispatchErr error

	if (method == models.MethodEmail || method == models.MethodBoth) && profile.Email != "" {
		content, _ := templates.Email(models.TemplateShiftAssigned, templateData)
		outcome, err := s.email.Send(ctx, graph.Message{
			To:       []string{profile.Email},
			Subject:  content.Subject,
			HTMLBody: content.HTML,
		})
		if err != nil {
			dispatchErr = err
		} else {
			result.Email = outcome
			emailsSent = 1
		}
	}

	if dispatchErr == nil && (method == models.MethodSMS || method == models.MethodBoth) && profile.Phone != "" {
		message, _ := templates.SMS(models.TemplateShiftAssigned, templateData)
		message, truncated := templates.TruncateSMS(message)
		if truncated {
			s.logger.Warn("sms message truncated to one segment", map[string]interface{}{
				"workerId": input.WorkerID,
			})
		}
		outcome, err := s.sms.Send(ctx, []string{profile.Phone}, message)
		if err != nil {
			dispatchErr = err
		} else {
			result.SMS = outcome
			smsSent = 1
		}
	}

	entry := &models.NotificationLog{
		SentBy:         input.Auth.UID,
		Type:           "shift_assignment",
		Method:         method,
		Template:       string(models.TemplateShiftAssigned),
		RecipientCount: 1,
		EmailsSent:     emailsSent,
		SMSSent:        smsSent,
		Status:         models.StatusSent,
	}

	if dispatchErr != nil {
		entry.Status = models.StatusFailed
		entry.Error = dispatchErr.Error()
		if logErr := s.logs.Append(ctx, entry); logErr != nil {
			return nil, errors.NewInternalError(logErr)
		}
		return nil, errors.NewInternalError(dispatchErr)
	}

	if logErr := s.logs.Append(ctx, entry); logErr != nil {
		return nil, errors.NewInternalError(logErr)
	}

	return &Output{Success: true, Method: method, Results: result}, nil
}

func resolveMethod(explicit string, profile *models.ProfessionalProfile) string {
	switch explicit {
	case models.MethodEmail, models.MethodSMS, models.MethodBoth:
		return explicit
	}
	switch profile.Preferences.ShiftAssignment {
	case models.MethodEmail, models.MethodSMS, models.MethodBoth:
		return profile.Preferences.ShiftAssignment
	}
	return models.MethodEmail
}
