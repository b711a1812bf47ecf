// internal/templates/sms.go
package templates

import (
	"fmt"
	"unicode/utf8"

	"medishift-notifications/internal/models"
)

// maxSMSLength keeps messages inside a single GSM segment.
const maxSMSLength = 160

func plain(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// SMS renders the template for the given key. ok is false when the key has
// no SMS template; welcome is email-only.
func SMS(key models.TemplateKey, data map[string]interface{}) (string, bool) {
	switch key {
	case models.TemplateShiftAssigned:
		return fmt.Sprintf("MediShift: new shift at %s on %s, %s-%s. Confirm in the app.",
			plain(data, "facilityName", "your facility"),
			plain(data, "shiftDate", ""),
			plain(data, "startTime", ""),
			plain(data, "endTime", "")), true

	case models.TemplateShiftReminder:
		return fmt.Sprintf("MediShift reminder: shift at %s on %s starts at %s.",
			plain(data, "facilityName", "your facility"),
			plain(data, "shiftDate", ""),
			plain(data, "startTime", "")), true

	case models.TemplateShiftCancelled:
		return fmt.Sprintf("MediShift: your shift at %s on %s was cancelled. Check the app for details.",
			plain(data, "facilityName", "your facility"),
			plain(data, "shiftDate", "")), true

	case models.TemplatePromotion:
		return plain(data, "message", "News from MediShift. Open the app for details."), true

	case models.TemplateBankingUpdated:
		return fmt.Sprintf("MediShift: your banking details were updated on %s. Not you? Contact support@medishift.ch.",
			plain(data, "updatedAt", "")), true

	case models.TemplateGeneric:
		return plain(data, "message", "Notification from MediShift"), true

	case models.TemplateVerificationCode:
		return fmt.Sprintf("%s is your MediShift verification code. It expires in 10 minutes.",
			plain(data, "code", "")), true

	default:
		return "", false
	}
}

// TruncateSMS caps a message at one segment, cutting to 157 characters
// plus an ellipsis. The limit counts characters, not bytes, so the cut
// never lands inside a multi-byte rune. The second return reports whether
// truncation happened.
func TruncateSMS(message string) (string, bool) {
	if utf8.RuneCountInString(message) <= maxSMSLength {
		return message, false
	}
	runes := []rune(message)
	return string(runes[:maxSMSLength-3]) + "...", true
}
