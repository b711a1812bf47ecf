package templates

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medishift-notifications/internal/models"
)

func TestSMSKnownKeys(t *testing.T) {
	keys := []models.TemplateKey{
		models.TemplateShiftAssigned,
		models.TemplateShiftReminder,
		models.TemplateShiftCancelled,
		models.TemplatePromotion,
		models.TemplateBankingUpdated,
		models.TemplateGeneric,
		models.TemplateVerificationCode,
	}

	for _, key := range keys {
		t.Run(string(key), func(t *testing.T) {
			msg, ok := SMS(key, map[string]interface{}{})
			require.True(t, ok)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestSMSWelcomeIsEmailOnly(t *testing.T) {
	_, ok := SMS(models.TemplateWelcome, nil)
	assert.False(t, ok)
}

func TestSMSVerificationCodeLeadsWithCode(t *testing.T) {
	msg, ok := SMS(models.TemplateVerificationCode, map[string]interface{}{"code": "482913"})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "482913"))
}

func TestTruncateSMS(t *testing.T) {
	t.Run("short message untouched", func(t *testing.T) {
		msg, truncated := TruncateSMS("Shift confirmed.")
		assert.False(t, truncated)
		assert.Equal(t, "Shift confirmed.", msg)
	})

	t.Run("exactly 160 untouched", func(t *testing.T) {
		in := strings.Repeat("a", 160)
		msg, truncated := TruncateSMS(in)
		assert.False(t, truncated)
		assert.Equal(t, in, msg)
	})

	t.Run("over 160 cut to 157 plus ellipsis", func(t *testing.T) {
		in := strings.Repeat("a", 200)
		msg, truncated := TruncateSMS(in)
		assert.True(t, truncated)
		assert.Len(t, msg, 160)
		assert.Equal(t, strings.Repeat("a", 157)+"...", msg)
	})

	t.Run("multi-byte characters count once", func(t *testing.T) {
		in := strings.Repeat("ü", 100) // 200 bytes but only 100 characters
		msg, truncated := TruncateSMS(in)
		assert.False(t, truncated)
		assert.Equal(t, in, msg)
	})

	t.Run("cut lands on a rune boundary", func(t *testing.T) {
		in := strings.Repeat("a", 150) + strings.Repeat("€", 20)
		msg, truncated := TruncateSMS(in)
		assert.True(t, truncated)
		assert.True(t, utf8.ValidString(msg))
		assert.Equal(t, 160, utf8.RuneCountInString(msg))
		assert.Equal(t, strings.Repeat("a", 150)+strings.Repeat("€", 7)+"...", msg)
	})
}
