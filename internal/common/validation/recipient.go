// internal/common/validation/recipient.go
package validation

import (
	"regexp"
	"strings"

	"medishift-notifications/internal/models"
)

var phonePattern = regexp.MustCompile(`^\+?[\d\s-]{8,}$`)

// LooksLikeEmail reports whether the value can be used as an email address.
func LooksLikeEmail(value string) bool {
	return strings.Contains(value, "@")
}

// LooksLikePhone reports whether the value can be used as a phone number.
func LooksLikePhone(value string) bool {
	return phonePattern.MatchString(strings.TrimSpace(value))
}

// EmailAddress extracts the email address of a recipient, preferring the
// explicit field over a bare-string entry. Returns "" when the recipient
// has no usable address.
func EmailAddress(r models.Recipient) string {
	if r.Email != "" && LooksLikeEmail(r.Email) {
		return r.Email
	}
	if r.Raw != "" && LooksLikeEmail(r.Raw) {
		return r.Raw
	}
	return ""
}

// PhoneNumber extracts the phone number of a recipient. Bare strings
// count only when they look like a phone number and not an email.
func PhoneNumber(r models.Recipient) string {
	if r.Phone != "" && LooksLikePhone(r.Phone) {
		return r.Phone
	}
	if r.Raw != "" && !LooksLikeEmail(r.Raw) && LooksLikePhone(r.Raw) {
		return r.Raw
	}
	return ""
}

// FilterEmails returns the email addresses of all recipients that have one.
func FilterEmails(recipients []models.Recipient) []string {
	var out []string
	for _, r := range recipients {
		if addr := EmailAddress(r); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// FilterPhones returns the phone numbers of all recipients that have one.
func FilterPhones(recipients []models.Recipient) []string {
	var out []string
	for _, r := range recipients {
		if num := PhoneNumber(r); num != "" {
			out = append(out, num)
		}
	}
	return out
}
