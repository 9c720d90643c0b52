package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"MODEL_SERVER_URL": "http://models:8501",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, int64(10<<20), cfg.HTTP.UploadMaxBytes)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "https://api.openweathermap.org", cfg.Weather.BaseURL)
	assert.Equal(t, 3, cfg.Weather.MaxRetries)
	assert.Equal(t, "agromind", cfg.Models.NutrientModel)
	assert.Equal(t, "plant_disease", cfg.Models.DiseaseModel)
	assert.False(t, cfg.HistoryEnabled())
}

func TestExplicitValues(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"APP_ENV":              "production",
		"HTTP_PORT":            9090,
		"MODEL_SERVER_URL":     "http://models:8501",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com, ,http://localhost:19006",
		"WEATHER_TIMEOUT":      "3s",
		"DB_DSN":               "postgres://localhost/agromind",
		"JWT_ACCESS_SECRET":    "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:19006"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	assert.True(t, cfg.HistoryEnabled())
}

func TestValidate(t *testing.T) {
	t.Run("model server required", func(t *testing.T) {
		_, err := fromViper(newViper(nil))
		assert.ErrorContains(t, err, "MODEL_SERVER_URL")
	})

	t.Run("database needs a token secret", func(t *testing.T) {
		_, err := fromViper(newViper(map[string]any{
			"MODEL_SERVER_URL": "http://models:8501",
			"DB_DSN":           "postgres://localhost/agromind",
		}))
		assert.ErrorContains(t, err, "JWT_ACCESS_SECRET")
	})

	t.Run("bad connection lifetime", func(t *testing.T) {
		_, err := fromViper(newViper(map[string]any{
			"MODEL_SERVER_URL":     "http://models:8501",
			"DB_CONN_MAX_LIFETIME": "forever",
		}))
		assert.ErrorContains(t, err, "DB_CONN_MAX_LIFETIME")
	})
}
