package dispatch

import (
	"context"
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
	config *Config
	logger logger.Logger
	email  EmailSender
	sms    SMSSender
	logs   *store.NotificationLogs
	codes  *store.VerificationCodes
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		email:  deps.Email,
		sms:    deps.SMS,
		logs:   deps.Logs,
		codes:  deps.Codes,
	}
}

// Execute runs one dispatch. Auth and validation failures fail the job
// without an audit row; failures after validation write a failed row
// before surfacing INTERNAL.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Auth.Authenticated {
		return nil, errors.NewUnauthenticatedError("dispatch requires an authenticated caller")
	}

	if len(input.Raw) > 0 {
		if err := validation.ValidatePayload(input.Raw, inputSchema); err != nil {
			return nil, errors.NewInvalidArgumentError("Request payload failed validation", err.Error())
		}
	}

	if len(input.Recipients) == 0 {
		return nil, errors.NewInvalidArgumentError("Recipients list must not be empty", "")
	}
	switch input.Method {
	case models.MethodEmail, models.MethodSMS, models.MethodBoth:
	default:
		return nil, errors.NewInvalidArgumentError(
			"Method must be one of email, sms, both",
			fmt.Sprintf("got %q", input.Method))
	}

	templateData, dispatchErr := s.ensureVerificationCode(ctx, input)

	result := models.DispatchResult{}
	emailsSent, smsSent := 0, 0

	if dispatchErr == nil && (input.Method == models.MethodEmail || input.Method == models.MethodBoth) {
		addresses := validation.FilterEmails(input.Recipients)
		if len(addresses) > 0 {
			subject, htmlBody := s.resolveEmailContent(input, templateData)
			outcome, err := s.email.Send(ctx, graph.Message{
				To:       addresses,
				Subject:  subject,
				HTMLBody: htmlBody,
				From:     input.From,
				ReplyTo:  input.ReplyTo,
			})
			if err != nil {
				dispatchErr = err
			} else {
				result.Email = outcome
				emailsSent = len(addresses)
			}
		}
	}

	// both shares one error scope: an email failure suppresses the SMS attempt
	if dispatchErr == nil && (input.Method == models.MethodSMS || input.Method == models.MethodBoth) {
		phones := validation.FilterPhones(input.Recipients)
		if len(phones) > 0 {
			message := s.resolveSMSContent(input, templateData)
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
		Type:           notificationType(input.Type),
		Method:         input.Method,
		Template:       string(input.Template),
		RecipientCount: len(input.Recipients),
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

	return &Output{Success: true, Results: result}, nil
}

func notificationType(t string) string {
	if t == "" {
		return "custom"
	}
	return t
}

// ensureVerificationCode issues and injects a code when the
// verification_code template is requested without one.
func (s *Service) ensureVerificationCode(ctx context.Context, input *Input) (map[string]interface{}, error) {
	data := input.TemplateData
	if input.Template != models.TemplateVerificationCode || s.codes == nil {
		return data, nil
	}
	if _, ok := data["code"]; ok {
		return data, nil
	}

	recipient := firstRecipientKey(input.Recipients)
	code, err := s.codes.Issue(ctx, recipient)
	if err != nil {
		return data, err
	}

	injected := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		injected[k] = v
	}
	injected["code"] = code
	return injected, nil
}

func firstRecipientKey(recipients []models.Recipient) string {
	for _, r := range recipients {
		if addr := validation.EmailAddress(r); addr != "" {
			return addr
		}
		if num := validation.PhoneNumber(r); num != "" {
			return num
		}
	}
	return "unknown"
}

func (s *Service) resolveEmailContent(input *Input, data map[string]interface{}) (string, string) {
	subject := ""
	htmlBody := ""

	if content, ok := templates.Email(input.Template, data); ok {
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

func (s *Service) resolveSMSContent(input *Input, data map[string]interface{}) string {
	message, ok := templates.SMS(input.Template, data)
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
