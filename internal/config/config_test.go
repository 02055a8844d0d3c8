package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NotifyRelayEmail(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SMTP_EMAIL", "sender@example.com")
	t.Setenv("NOTIFY_RELAY_EMAIL", "relay@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "relay@example.com", cfg.NotifyRelayEmail)
}

func TestLoad_NotifyRelayEmailFallsBackToSender(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SMTP_EMAIL", "sender@example.com")
	t.Setenv("NOTIFY_RELAY_EMAIL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sender@example.com", cfg.NotifyRelayEmail)
}
