package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_LinkBaseURLPrefersAppURLVariables(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_APP_URL", "")
	t.Setenv("NEXT_PUBLIC_BASE_URL", "https://sikayet.example/")
	t.Setenv("APP_URL", "https://ignored.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://sikayet.example", cfg.App.URL)

	t.Setenv("NEXT_PUBLIC_APP_URL", "https://app.example")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://app.example", cfg.App.URL)
}

func TestLoad_AllowedOriginsNormalized(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://a.test/ ,http://b.test,, ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins)
}

func TestLoad_ProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
}

func TestLoad_SMTPFromEnv(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.Secure)
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	app := AppConfig{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, "UTC", app.Location().String())
}
