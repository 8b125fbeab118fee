package i18n_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rahmah-exchange/internal/pkg/i18n"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, i18n.Load())

	t.Run("Known key", func(t *testing.T) {
		assert.Equal(t, "Case rejected", i18n.Translate("en", "email.case_rejected_heading"))
	})

	t.Run("Falls back to English", func(t *testing.T) {
		assert.Equal(t, "Case rejected", i18n.Translate("ar", "email.case_rejected_heading"))
	})

	t.Run("Unknown locale falls back to English", func(t *testing.T) {
		assert.Equal(t, "Approved", i18n.Translate("xx", "status.approved"))
	})

	t.Run("Missing key returns key", func(t *testing.T) {
		assert.Equal(t, "email.nope", i18n.Translate("en", "email.nope"))
	})

	t.Run("Formatted", func(t *testing.T) {
		assert.Equal(t, "Payment required for case CASE-1", i18n.Translatef("en", "email.treasurer_payment_subject", "CASE-1"))
	})
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Ready for Approval", i18n.StatusLabel("en", "Ready for Approval"))
	assert.Equal(t, "مرفوض", i18n.StatusLabel("ar", "Rejected"))
	assert.Equal(t, "Escalated", i18n.StatusLabel("en", "Escalated"))
}

func TestLoadTranslations_OverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte("STATUS:\n  approved: \"Approuvé\"\n"), 0o600))

	require.NoError(t, i18n.LoadTranslations(dir))

	assert.Equal(t, "Approuvé", i18n.StatusLabel("fr", "Approved"))
	assert.Equal(t, "Pending", i18n.StatusLabel("fr", "Pending"))
}
