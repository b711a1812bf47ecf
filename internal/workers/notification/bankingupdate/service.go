package bankingupdate

import (
	"context"
	"time"

	"medishift-notifications/internal/common/errors"
	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
	"medishift-notifications/internal/templates"
)

// timestampLayout renders the update time the en-GB way,
// e.g. "02 Jan 2006, 15:04".
const timestampLayout = "02 Jan 2006, 15:04"

type Service struct {
	config   *Config
	logger   logger.Logger
	email    EmailSender
	sms      SMSSender
	logs     *store.NotificationLogs
	profiles *store.Profiles
	now      func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		email:    deps.Email,
		sms:      deps.SMS,
		logs:     deps.Logs,
		profiles: deps.Profiles,
		now:      time.Now,
	}
}

// Execute confirms a banking-details change to the caller's own profile.
// A missing profile resolves softly with success=false instead of an
// error; the change itself already happened, only the notice is skipped.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Auth.Authenticated {
		return nil, errors.NewUnauthenticatedError("banking update notification requires an authenticated caller")
	}

	profile, err := s.profiles.GetProfile(ctx, input.Auth.UID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if profile == nil {
		s.logger.Warn("no profile for banking update notice", map[string]interface{}{
			"uid": input.Auth.UID,
		})
		return &Output{
			Success: false,
			Message: "no professional profile found for caller",
		}, nil
	}

	templateData := map[string]interface{}{
		"name":      profile.FullName(),
		"updatedAt": s.now().Format(timestampLayout),
	}
	if input.BankName != "" {
		templateData["bankName"] = input.BankName
	}
	if input.IBANLast4 != "" {
		templateData["ibanLast4"] = input.IBANLast4
	}

	result := models.DispatchResult{}
	emailsSent, smsSent := 0, 0
	var dispatchErr error

	if profile.Email != "" {
		content, _ := templates.Email(models.TemplateBankingUpdated, templateData)
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

	if dispatchErr == nil && profile.Phone != "" {
		message, _ := templates.SMS(models.TemplateBankingUpdated, templateData)
		message, truncated := templates.TruncateSMS(message)
		if truncated {
			s.logger.Warn("sms message truncated to one segment", map[string]interface{}{
				"uid": input.Auth.UID,
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

	method := methodFromContacts(profile)
	entry := &models.NotificationLog{
		SentBy:         input.Auth.UID,
		Type:           "banking_update",
		Method:         method,
		Template:       string(models.TemplateBankingUpdated),
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

	return &Output{Success: true, Results: result}, nil
}

func methodFromContacts(profile *models.ProfessionalProfile) string {
	switch {
	case profile.Email != "" && profile.Phone != "":
		return models.MethodBoth
	case profile.Phone != "":
		return models.MethodSMS
	default:
		return models.MethodEmail
	}
}
