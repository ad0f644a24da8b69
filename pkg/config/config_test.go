package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AuthConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("RESET_TOKEN_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("PLACES_DEFAULT_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Typesense.URL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 12, cfg.Search.DefaultLimit)
	assert.Equal(t, 25.0, cfg.Search.ProximityRadiusKm)
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://spottica.app, http://localhost:4173,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://spottica.app", "http://localhost:4173"}, cfg.Server.AllowedOrigins)
}

func TestValidate_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.EqualError(t, cfg.Validate(), "JWT_SECRET must be set")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "spottica", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=spottica sslmode=disable", cfg.DatabaseDSN())
}
