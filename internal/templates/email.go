// internal/templates/email.go
package templates

import (
	"fmt"
	"html"

	"medishift-notifications/internal/models"
)

// EmailContent is the rendered output of an email template.
type EmailContent struct {
	Subject string
	HTML    string
}

// field pulls a string value out of template data, escaping it for HTML
// interpolation. Missing or non-string values render as the fallback.
func field(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return html.EscapeString(s)
		}
	}
	return html.EscapeString(fallback)
}

// Email renders the template for the given key. ok is false when the key
// has no email template; callers fall back to custom content.
func Email(key models.TemplateKey, data map[string]interface{}) (EmailContent, bool) {
	switch key {
	case models.TemplateShiftAssigned:
		name := field(data, "workerName", "there")
		body := fmt.Sprintf(`
			<h2 style="color: #1a1a2e; margin: 0 0 16px;">New Shift Assigned</h2>
			<p>Hi %s,</p>
			<p>You have been assigned a new shift:</p>
			<table style="border-collapse: collapse; margin: 16px 0;">
				<tr><td style="padding: 4px 12px 4px 0; color: #666;">Facility</td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0; color: #666;">Date</td><td>%s</td></tr>
				<tr><td style="padding: 4px 12px 4px 0; color: #666;">Time</td><td>%s - %s</td></tr>
			</table>
			<p>Please confirm the shift in the MediShift app.</p>`,
			name,
			field(data, "facilityName", "your facility"),
			field(data, "shiftDate", ""),
			field(data, "startTime", ""),
			field(data, "endTime", ""))
		return EmailContent{
			Subject: fmt.Sprintf("New shift at %s", field(data, "facilityName", "MediShift")),
			HTML:    body,
		}, true

	case models.TemplateShiftReminder:
		body := fmt.Sprintf(`
			<h2 style="color: #1a1a2e; margin: 0 0 16px;">Shift Reminder</h2>
			<p>Hi %s,</p>
			<p>This is a reminder for your upcoming shift at %s on %s, starting at %s.</p>`,
			field(data, "workerName", "there"),
			field(data, "facilityName", "your facility"),
			field(data, "shiftDate", ""),
			field(data, "startTime", ""))
		return EmailContent{
			Subject: "Reminder: upcoming shift",
			HTML:    body,
		}, true

	case models.TemplateShiftCancelled:
		body := fmt.Sprintf(`
			<h2 style="color: #b91c1c; margin: 0 0 16px;">Shift Cancelled</h2>
			<p>Hi %s,</p>
			<p>Your shift at %s on %s has been cancelled.</p>
			<p>%s</p>`,
			field(data, "workerName", "there"),
			field(data, "facilityName", "your facility"),
			field(data, "shiftDate", ""),
			field(data, "reason", "No reason was provided."))
		return EmailContent{
			Subject: "Your shift has been cancelled",
			HTML:    body,
		}, true

	case models.TemplatePromotion:
		title := field(data, "title", "News from MediShift")
		body := fmt.Sprintf(`
			<p>%s</p>
			<p style="margin-top: 24px;"><a href="https://app.medishift.ch" style="background: #667eea; color: #ffffff; padding: 12px 28px; border-radius: 6px; text-decoration: none;">Open MediShift</a></p>`,
			field(data, "message", ""))
		return EmailContent{
			Subject: title,
			HTML:    createEmailWrapper(title, body),
		}, true

	case models.TemplateWelcome:
		name := field(data, "name", "there")
		body := fmt.Sprintf(`
			<p>Hello %s,</p>
			<p>Welcome to MediShift. Your account is ready and you can start browsing shifts right away.</p>
			<p>Complete your profile to get matched with the facilities that fit you best.</p>`,
			name)
		return EmailContent{
			Subject: "Welcome to MediShift",
			HTML:    createEmailWrapper("Welcome to MediShift", body),
		}, true

	case models.TemplateBankingUpdated:
		body := fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Your banking details were updated on %s.</p>
			%s%s
			<p>If you did not make this change, contact our support team immediately.</p>`,
			field(data, "name", "there"),
			field(data, "updatedAt", ""),
			optionalRow("Bank", data, "bankName"),
			optionalRow("IBAN ending", data, "ibanLast4"))
		return EmailContent{
			Subject: "Your banking details were updated",
			HTML:    createEmailWrapper("Banking Details Updated", body),
		}, true

	case models.TemplateGeneric:
		subject := field(data, "subject", "Notification from MediShift")
		return EmailContent{
			Subject: subject,
			HTML:    fmt.Sprintf(`<p>%s</p>`, field(data, "message", "")),
		}, true

	case models.TemplateVerificationCode:
		code := field(data, "code", "")
		body := fmt.Sprintf(`
			<p>Your MediShift verification code is:</p>
			<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #1a1a2e;">%s</p>
			<p>The code expires in 10 minutes. Do not share it with anyone.</p>`,
			code)
		return EmailContent{
			Subject: "Your MediShift verification code",
			HTML:    body,
		}, true

	default:
		return EmailContent{}, false
	}
}

// CustomMessageHTML wraps a plain custom message for sends without a
// matching template.
func CustomMessageHTML(message string) string {
	return fmt.Sprintf(
		`<div style="font-family: Arial, Helvetica, sans-serif; color: #333333; line-height: 1.6;"><p>%s</p></div>`,
		html.EscapeString(message))
}

func optionalRow(label string, data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return fmt.Sprintf(`<p style="margin: 4px 0;"><strong>%s:</strong> %s</p>`, label, html.EscapeString(s))
		}
	}
	return ""
}

// createEmailWrapper wraps a rendered body in the shared MediShift HTML
// document with logo, gradient header and footer links.
func createEmailWrapper(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin: 0; padding: 0; background-color: #f4f5f7; font-family: Arial, Helvetica, sans-serif;">
	<table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
		<tr><td align="center" style="padding: 24px 12px;">
			<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background: #ffffff; border-radius: 8px; overflow: hidden;">
				<tr><td style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 32px; text-align: center;">
					<img src="https://app.medishift.ch/assets/logo-white.png" alt="MediShift" width="140" style="display: block; margin: 0 auto 12px;">
					<h1 style="color: #ffffff; margin: 0; font-size: 22px;">%s</h1>
				</td></tr>
				<tr><td style="padding: 32px; color: #333333; line-height: 1.6;">%s</td></tr>
				<tr><td style="padding: 24px 32px; background: #f4f5f7; text-align: center; font-size: 12px; color: #888888;">
					<p style="margin: 0 0 8px;">MediShift AG, Switzerland</p>
					<p style="margin: 0;">
						<a href="https://medishift.ch/privacy" style="color: #667eea;">Privacy</a> &middot;
						<a href="https://medishift.ch/terms" style="color: #667eea;">Terms</a> &middot;
						<a href="mailto:support@medishift.ch" style="color: #667eea;">Support</a>
					</p>
				</td></tr>
			</table>
		</td></tr>
	</table>
</body>
</html>`, html.EscapeString(title), body)
}
