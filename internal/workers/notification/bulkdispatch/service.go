package bulkdispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"medishift-notifications/internal/common/errors"
	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/common/validation"
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

// Execute sends one bulk notification to the filtered professional
// audience. Only admins with a bulk-capable role may call it.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Auth.Authenticated {
		return nil, errors.NewUnauthenticatedError("bulk dispatch requires an authenticated caller")
	}

	admin, err := s.profiles.GetAdmin(ctx, input.Auth.UID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if admin == nil || !admin.CanBulkDispatch() {
		return nil, errors.NewPermissionDeniedError(
			fmt.Sprintf("uid %s is not an active admin with bulk dispatch rights", input.Auth.UID))
	}

	switch input.Method {
	case models.MethodEmail, models.MethodSMS, models.MethodBoth:
	default:
		return nil, errors.NewInvalidArgumentError(
			"Method must be one of email, sms, both",
			fmt.Sprintf("got %q", input.Method))
	}

	recipients, err := s.profiles.QueryRecipients(ctx, input.Filters)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if len(recipients) == 0 {
		return nil, errors.NewNotFoundError("recipients", "no professional profiles match the filters")
	}

	s.logger.Info("bulk audience resolved", map[string]interface{}{
		"recipients": len(recipients),
		"filters":    input.Filters,
	})

	result := models.DispatchResult{}
	emailsSent, smsSent := 0, 0
	var dispatchErr error

	if input.Method == models.MethodEmail || input.Method == models.MethodBoth {
		emailsSent, result.Email, dispatchErr = s.sendEmailBatches(ctx, input, recipients)
	}

	if dispatchErr == nil && (input.Method == models.MethodSMS || input.Method == models.MethodBoth) {
		phones := validation.FilterPhones(recipients)
		if len(phones) > 0 {
			message := s.resolveSMSContent(input)
			outcome, err := s.sms.Send(ctx, phones, message)
			if err != nil {
				dispatchErr = err
			} else {
				result.SMS = outcome
				smsSent = len(phones)
			}
		}
	}

	entry := &models.NotificationLog{
		SentBy:         input.Auth.UID,
		Type:           "bulk",
		Method:         input.Method,
		Template:       string(input.Template),
		Filters:        encodeFilters(input.Filters),
		RecipientCount: len(recipients),
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

	return &Output{
		Success:        true,
		RecipientCount: len(recipients),
		Results:        result,
	}, nil
}

// sendEmailBatches walks the address list in batches of 50, sequentially.
// The first batch error aborts the whole send; prior batches stay sent.
func (s *Service) sendEmailBatches(ctx context.Context, input *Input, recipients []models.Recipient) (int, *models.SendOutcome, error) {
	addresses := validation.FilterEmails(recipients)
	if len(addresses) == 0 {
		return 0, nil, nil
	}

	subject, htmlBody := s.resolveEmailContent(input)

	sent := 0
	for start := 0; start < len(addresses); start += emailBatchSize {
		end := start + emailBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}

		if _, err := s.email.Send(ctx, graph.Message{
			To:       addresses[start:end],
			Subject:  subject,
			HTMLBody: htmlBody,
		}); err != nil {
			return sent, nil, err
		}
		sent += end - start
	}

	return sent, &models.SendOutcome{
		Success:    true,
		Method:     models.MethodEmail,
		Recipients: addresses,
	}, nil
}

func (s *Service) resolveEmailContent(input *Input) (string, string) {
	subject := ""
	htmlBody := ""

	if content, ok := templates.Email(input.Template, input.TemplateData); ok {
		subject = content.Subject
		htmlBody = content.HTML
	}
	if input.CustomSubject != "" {
		subject = input.CustomSubject
	}
	if input.CustomHTML != "" {
		htmlBody = input.CustomHTML
	}

	if subject == "" {
		subject = "Notification from MediShift"
	}
	if htmlBody == "" {
		htmlBody = templates.CustomMessageHTML(input.CustomMessage)
	}
	return subject, htmlBody
}

func (s *Service) resolveSMSContent(input *Input) string {
	message, ok := templates.SMS(input.Template, input.TemplateData)
	if !ok || message == "" {
		message = input.CustomMessage
	}
	if message == "" {
		message = "Notification from MediShift"
	}

	truncated, didTruncate := templates.TruncateSMS(message)
	if didTruncate {
		s.logger.Warn("sms message truncated to one segment", map[string]interface{}{
			"originalLength": len(message),
		})
	}
	return truncated
}

func encodeFilters(filters models.BulkFilters) string {
	encoded, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return string(encoded)
}
