package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_NAME", "gis")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.DBHost)
	require.Equal(t, "5432", cfg.DBPort)
	require.Equal(t, "Helsinki", cfg.CityName)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.MaxAttempts)
	require.Equal(t, 2*time.Second, cfg.RetryDelay)
}

func TestLoadMissingRequiredNamesVariable(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CITY_NAME", "Espoo")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("MAX_ATTEMPTS", "7")
	t.Setenv("DB_HOST", "db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Espoo", cfg.CityName)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 7, cfg.MaxAttempts)
	require.Equal(t, "db", cfg.DBHost)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP_TIMEOUT")

	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("MAX_ATTEMPTS", "0")
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "MAX_ATTEMPTS")
}

func TestConnString(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t,
		"host=localhost port=5432 dbname=gis user=postgres password=secret sslmode=disable",
		cfg.ConnString())
}
