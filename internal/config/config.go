package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	UploadMaxBytes int64
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type WeatherConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type ModelConfig struct {
	ServerURL     string
	NutrientModel string
	DiseaseModel  string
	Timeout       time.Duration
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Weather     WeatherConfig
	Models      ModelConfig
}

// HistoryEnabled reports whether recommendation history can be stored and
// served. It needs both a database and a token secret.
func (c *Config) HistoryEnabled() bool {
	return c.DB.DSN != "" && c.Auth.AccessSecret != ""
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Weather: WeatherConfig{
			BaseURL:    v.GetString("WEATHER_BASE_URL"),
			APIKey:     v.GetString("WEATHER_API_KEY"),
			Timeout:    v.GetDuration("WEATHER_TIMEOUT"),
			MaxRetries: v.GetInt("WEATHER_MAX_RETRIES"),
		},
		Models: ModelConfig{
			ServerURL:     v.GetString("MODEL_SERVER_URL"),
			NutrientModel: v.GetString("NUTRIENT_MODEL_NAME"),
			DiseaseModel:  v.GetString("DISEASE_MODEL_NAME"),
			Timeout:       v.GetDuration("MODEL_TIMEOUT"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8000
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.UploadMaxBytes <= 0 {
		cfg.HTTP.UploadMaxBytes = 10 << 20
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.HTTP.RateLimitRPS <= 0 {
		cfg.HTTP.RateLimitRPS = 5
	}
	if cfg.HTTP.RateLimitBurst <= 0 {
		cfg.HTTP.RateLimitBurst = 10
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.openweathermap.org"
	}
	if cfg.Weather.Timeout <= 0 {
		cfg.Weather.Timeout = 10 * time.Second
	}
	if cfg.Weather.MaxRetries <= 0 {
		cfg.Weather.MaxRetries = 3
	}
	if cfg.Models.NutrientModel == "" {
		cfg.Models.NutrientModel = "agromind"
	}
	if cfg.Models.DiseaseModel == "" {
		cfg.Models.DiseaseModel = "plant_disease"
	}
	if cfg.Models.Timeout <= 0 {
		cfg.Models.Timeout = 15 * time.Second
	}
}

func validate(cfg *Config) error {
	if cfg.Models.ServerURL == "" {
		return fmt.Errorf("MODEL_SERVER_URL is required")
	}
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if cfg.DB.DSN != "" && cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required when DB_DSN is set")
	}
	if cfg.DB.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
			return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
