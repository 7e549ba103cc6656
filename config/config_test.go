package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/grudge")
	t.Setenv("GATEWAY_TOKEN", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("AUDIT_INTERVAL", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.AuditInterval)
	assert.False(t, cfg.R2Enabled())
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_TOKEN", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/grudge")
	t.Setenv("GATEWAY_TOKEN", "")
	_, err = Load()
	assert.ErrorContains(t, err, "GATEWAY_TOKEN")
}

func TestLoadParsesLists(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("AUDIT_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.AuditInterval)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("AUDIT_INTERVAL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "AUDIT_INTERVAL")

	t.Setenv("AUDIT_INTERVAL", "-1m")
	_, err = Load()
	assert.Error(t, err)
}

func TestSyncTokenFallsBackToGatewayToken(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_SERVICE_URL", "http://profiles.local")
	t.Setenv("SYNC_SERVICE_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.SyncServiceToken)
}

func TestR2Enabled(t *testing.T) {
	setRequired(t)
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "id")
	t.Setenv("R2_ACCESS_KEY_SECRET", "secret")
	t.Setenv("R2_BUCKET_NAME", "slips")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.R2Enabled())
}
